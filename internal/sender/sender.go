// Package sender is the email delivery client: one unit of "send this
// rendered message to this recipient", defended by a per-call timeout, a
// per-endpoint circuit breaker, and an inner retry-with-jitter loop.
package sender

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"resty.dev/v3"

	"daybreak/internal/sender/circuitbreaker"
	"daybreak/pkg/logger"
)

// Outcome classifies a send attempt.
type Outcome int

const (
	Sent Outcome = iota
	TransientFailure
	PermanentFailure
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// Result is send's return value.
type Result struct {
	Outcome Outcome
	Reason  string
	Code    int
}

// Interface is what the worker pool depends on, so tests can substitute
// fakesender.Fake for the real resty-backed Sender.
type Interface interface {
	Send(ctx context.Context, to, message string) Result
}

// Config configures one Sender instance. The circuit breaker has its own
// Config (circuitbreaker.Config) — it is constructed separately and
// handed in.
type Config struct {
	Endpoint     string
	Timeout      time.Duration
	InnerRetries int
}

func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:     endpoint,
		Timeout:      30 * time.Second,
		InnerRetries: 3,
	}
}

// payload is the wire envelope POSTed to the external email service.
type payload struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Sender wraps a resty.dev/v3 client behind one per-endpoint
// circuitbreaker.CircuitBreaker. Resty's own retry is disabled
// (SetRetryCount(0)): the retry policy here needs capped, jittered
// backoff, which resty's boolean retry conditions can't express, so the
// inner loop below drives resty's single-attempt R().Post(...) directly.
type Sender struct {
	client  *resty.Client
	breaker *circuitbreaker.CircuitBreaker
	config  Config
}

func New(config Config, breaker *circuitbreaker.CircuitBreaker) *Sender {
	client := resty.New().
		SetBaseURL(config.Endpoint).
		SetTimeout(config.Timeout).
		SetRetryCount(0)

	return &Sender{client: client, breaker: breaker, config: config}
}

// Send performs one logical send, including the inner retry-with-jitter
// loop. It never returns a transport error directly — every outcome is
// reported through Result so callers (the worker pool) never have to
// classify errors themselves.
func (s *Sender) Send(ctx context.Context, to, message string) Result {
	var last Result

	for attempt := 0; attempt < s.config.InnerRetries; attempt++ {
		if attempt > 0 {
			wait := fullJitterBackoff(attempt, time.Second, 10*time.Second)
			logger.Debugf("sender: inner retry %d/%d after %s", attempt, s.config.InnerRetries, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return Result{Outcome: TransientFailure, Reason: "context_cancelled"}
			}
		}

		var result Result
		err := s.breaker.Execute(ctx, func() error {
			result = s.attempt(ctx, to, message)
			if result.Outcome == TransientFailure {
				return errTransient
			}
			return nil
		})

		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			// The breaker itself rejected the call; attempt() never ran.
			return Result{Outcome: TransientFailure, Reason: "circuit_open"}
		}

		last = result
		if result.Outcome != TransientFailure {
			return result
		}
	}

	return last
}

var errTransient = &transientErr{}

type transientErr struct{}

func (*transientErr) Error() string { return "transient send failure" }

// attempt performs exactly one HTTP POST and classifies the outcome:
// any 2xx = Sent; 408/425/429/5xx = TransientFailure; other 4xx =
// PermanentFailure; timeout/transport error = TransientFailure.
func (s *Sender) attempt(ctx context.Context, to, message string) Result {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload{Email: to, Message: message}).
		Post("/")

	if err != nil {
		return Result{Outcome: TransientFailure, Reason: "timeout_or_transport: " + err.Error()}
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return Result{Outcome: Sent, Code: code}
	case code == http.StatusRequestTimeout, code == 425, code == http.StatusTooManyRequests, code >= 500:
		return Result{Outcome: TransientFailure, Reason: "retryable_status", Code: code}
	case code >= 400 && code < 500:
		return Result{Outcome: PermanentFailure, Reason: "non_retryable_status", Code: code}
	default:
		return Result{Outcome: TransientFailure, Reason: "unexpected_status", Code: code}
	}
}

// fullJitterBackoff: base, doubling each attempt, capped, then a uniform
// random draw in [0, cap] — full jitter in the AWS backoff taxonomy.
func fullJitterBackoff(attempt int, base, capAt time.Duration) time.Duration {
	exp := base * time.Duration(1<<uint(attempt-1))
	if exp > capAt || exp <= 0 {
		exp = capAt
	}
	return time.Duration(rand.Int63n(int64(exp) + 1))
}

var _ Interface = (*Sender)(nil)
