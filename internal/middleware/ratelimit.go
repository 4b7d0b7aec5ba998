package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/coffee-match/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRate is the ulule formatted request rate per caller
const DefaultRate = "20-S"

// RateLimit limits requests per actor, falling back to client IP for anonymous callers.
// Counters live in Redis so every server replica shares them; a nil client keeps them in memory.
func RateLimit(redisClient *redis.Client, rateStr string) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rateStr, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:          "match_limiter",
			MaxRetry:        limiter.DefaultMaxRetry,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, rate), stdlibmw.WithKeyGetter(rateLimitKey))
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if actor, ok := request.ParseActor(r); ok {
		return "actor:" + actor.String()
	}
	return "ip:" + request.ClientIP(r)
}
