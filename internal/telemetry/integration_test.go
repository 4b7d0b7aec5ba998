package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/memstore"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Engine spans must join the trace started by the HTTP middleware
func TestEngineSpansJoinRequestTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := memstore.New()
	tech := "Tech"
	skills := "go,postgres"
	user := &models.User{ID: uuid.New(), Name: "u", Industry: &tech, Skills: &skills}
	peer := &models.User{ID: uuid.New(), Name: "p", Industry: &tech, Skills: &skills}
	store.PutUser(user)
	store.PutUser(peer)
	engine := matching.NewEngine(store.Stores(), nil, matching.Config{}, nil)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("coffee-match-test"))
	r.HandleFunc("/users/{id}/candidates", func(w http.ResponseWriter, r *http.Request) {
		id := uuid.MustParse(mux.Vars(r)["id"])
		results, err := engine.FindMatches(r.Context(), id, 5)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(results)
	})

	const traceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/users/"+user.ID.String()+"/candidates", nil)
	req.Header.Set("traceparent", traceParent)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", rr.Code)
	}
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("Failed to flush tracer provider: %v", err)
	}

	spans := exporter.GetSpans()
	var engineSpan, httpSpan *tracetest.SpanStub
	for i := range spans {
		switch {
		case spans[i].Name == "Engine.FindMatches":
			engineSpan = &spans[i]
		case spans[i].Parent.SpanID().String() == "00f067aa0ba902b7":
			httpSpan = &spans[i]
		}
	}
	if engineSpan == nil || httpSpan == nil {
		t.Fatalf("Expected engine and HTTP spans, got %d spans", len(spans))
	}
	if engineSpan.SpanContext.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("Expected engine span in propagated trace, got %s", engineSpan.SpanContext.TraceID())
	}
	if engineSpan.Parent.SpanID() != httpSpan.SpanContext.SpanID() {
		t.Error("Expected engine span to be a child of the HTTP span")
	}
}
