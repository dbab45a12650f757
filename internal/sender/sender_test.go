package sender

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/sender/circuitbreaker"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) (*Sender, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	cfg := DefaultConfig(srv.URL)
	cfg.Timeout = time.Second
	cfg.InnerRetries = 3
	s := New(cfg, circuitbreaker.New(circuitbreaker.DefaultConfig(srv.URL)))
	return s, srv
}

func TestSender_Send_Success(t *testing.T) {
	s, srv := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	result := s.Send(t.Context(), "a@b.com", "hello")
	assert.Equal(t, Sent, result.Outcome)
	assert.Equal(t, 200, result.Code)
}

func TestSender_Send_PermanentFailureDoesNotRetry(t *testing.T) {
	calls := 0
	s, srv := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})
	defer srv.Close()

	result := s.Send(t.Context(), "a@b.com", "hello")
	assert.Equal(t, PermanentFailure, result.Outcome)
	assert.Equal(t, 1, calls)
}

func TestSender_Send_TransientFailureRetriesThenGivesUp(t *testing.T) {
	calls := 0
	s, srv := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()
	s.config.InnerRetries = 2

	result := s.Send(t.Context(), "a@b.com", "hello")
	assert.Equal(t, TransientFailure, result.Outcome)
	assert.Equal(t, 2, calls)
}

func TestSender_Send_RecoversAfterTransientThenSuccess(t *testing.T) {
	calls := 0
	s, srv := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	result := s.Send(t.Context(), "a@b.com", "hello")
	assert.Equal(t, Sent, result.Outcome)
	assert.Equal(t, 2, calls)
}

func TestFullJitterBackoff_WithinBounds(t *testing.T) {
	for attempt := 1; attempt <= 6; attempt++ {
		d := fullJitterBackoff(attempt, time.Second, 10*time.Second)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 10*time.Second)
	}
}
