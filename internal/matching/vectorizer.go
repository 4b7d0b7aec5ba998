package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/benvon/coffee-match/internal/models"
)

// minTokenLength is the shortest token kept; shorter fragments ("a", "of", "js") are dropped
const minTokenLength = 3

// Vectorizer turns free-text profile fields into comparable token vectors.
// Swapping the implementation (stemming, synonyms, embeddings) leaves the scorer's weighting untouched.
type Vectorizer interface {
	Vectorize(text string) models.TokenVector
	Similarity(a, b models.TokenVector) float64
}

// TokenVectorizer lower-cases text, splits on commas and whitespace, and counts tokens.
// No stemming or synonym resolution is performed.
type TokenVectorizer struct{}

// NewTokenVectorizer creates the default vectorizer
func NewTokenVectorizer() *TokenVectorizer {
	return &TokenVectorizer{}
}

// Vectorize returns token counts; empty text yields an empty vector
func (TokenVectorizer) Vectorize(text string) models.TokenVector {
	vec := models.TokenVector{}
	if text == "" {
		return vec
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, f := range fields {
		tok := strings.TrimSpace(f)
		if utf8.RuneCountInString(tok) < minTokenLength {
			continue
		}
		vec[tok]++
	}
	return vec
}

// Similarity is the Jaccard index of the key sets; 0 when either side is empty
func (TokenVectorizer) Similarity(a, b models.TokenVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for k := range small {
		if _, ok := large[k]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
