package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func TestRecordAnswerCountsOutcomes(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	m.RecordAnswer("ask", &domain.Answer{Source: domain.SourceGate}, time.Millisecond)
	m.RecordAnswer("ask", &domain.Answer{Source: domain.SourceGenerative, Intent: domain.IntentGeneric}, time.Millisecond)
	m.RecordAnswer("ask", &domain.Answer{
		Source:         domain.SourceDeterministic,
		Intent:         domain.IntentCost,
		FallbackReason: string(domain.GenerationUnavailable),
	}, time.Millisecond)

	if got := testutil.ToFloat64(m.gateRejectedTotal.WithLabelValues("api", "ask")); got != 1 {
		t.Fatalf("gate rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.generativeTotal.WithLabelValues("api", "ask", "ok")); got != 1 {
		t.Fatalf("generative ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.generativeTotal.WithLabelValues("api", "ask", "unavailable")); got != 1 {
		t.Fatalf("generative unavailable = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.answersTotal.WithLabelValues("api", "ask", "gate", "none")); got != 1 {
		t.Fatalf("gate answers = %v, want 1", got)
	}
}

func TestObserverMethods(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.BreakerStateChanged("ollama.generate", true)
	m.RetryAttempted("ollama.generate")
	m.RetryAttempted("ollama.generate")

	if got := testutil.ToFloat64(m.breakerOpen.WithLabelValues("worker", "ollama.generate")); got != 1 {
		t.Fatalf("breaker gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.retryAttemptsTotal.WithLabelValues("worker", "ollama.generate")); got != 2 {
		t.Fatalf("retries = %v, want 2", got)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/programs/AI%20Product/plan": "/v1/programs/{title}/plan",
		"/v1/programs/AI":                "/v1/programs/{title}",
		"/v1/ask":                        "/v1/ask",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareExposesRequestCount(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	h := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `advisor_http_requests_total{method="GET",path="/healthz",service="api",status="418"} 1`) {
		t.Fatalf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}

type answererStub struct {
	answer *domain.Answer
	err    error
}

func (s answererStub) Ask(context.Context, domain.AskRequest) (*domain.Answer, error) {
	return s.answer, s.err
}

func TestInstrumentAnswerer(t *testing.T) {
	m := NewWorkerMetrics("worker")

	ok := InstrumentAnswerer(answererStub{answer: &domain.Answer{Source: domain.SourceShortcut}}, m, "nats")
	if _, err := ok.Ask(context.Background(), domain.AskRequest{Question: "q"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	failing := InstrumentAnswerer(answererStub{err: errors.New("boom")}, m, "nats")
	if _, err := failing.Ask(context.Background(), domain.AskRequest{Question: "q"}); err == nil {
		t.Fatalf("expected error")
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("worker", "success")); got != 1 {
		t.Fatalf("success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.answersTotal.WithLabelValues("worker", "nats", "shortcut", "none")); got != 1 {
		t.Fatalf("answers = %v, want 1", got)
	}
}
