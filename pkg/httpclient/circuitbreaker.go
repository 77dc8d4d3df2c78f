package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// maxFailureBody caps how much of a failed response is kept in the error.
const maxFailureBody = 4 << 10

// Doer is the request side of Client, so breakers can wrap any transport.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// BreakerConfig sizes a breaker. Interval 0 never clears closed-state
// counts. The breaker trips once MinRequests have been seen and the
// failure ratio reaches FailureRatio.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns defaults for a named breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_total",
			Help: "Requests refused while the circuit breaker was open",
		},
		[]string{"name"},
	)
)

// ErrCircuitOpen is returned when the breaker refuses a request and no
// open-state error was configured.
var ErrCircuitOpen = gobreaker.ErrOpenState

// StatusError is the breaker's error for a response classified as a
// failure. Body holds at most the first few KiB.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// BreakerOption customizes NewBreaker.
type BreakerOption func(*Breaker)

// WithFailureStatus replaces the default classification (any 5xx) of which
// response statuses count against the breaker.
func WithFailureStatus(isFailure func(status int) bool) BreakerOption {
	return func(b *Breaker) { b.isFailure = isFailure }
}

// WithOpenError makes the breaker return openErr(ctx) instead of
// ErrCircuitOpen while it is open.
func WithOpenError(openErr func(ctx context.Context) error) BreakerOption {
	return func(b *Breaker) { b.openErr = openErr }
}

// Breaker guards a Doer with a gobreaker circuit.
type Breaker struct {
	next      Doer
	cb        *gobreaker.CircuitBreaker[*http.Response]
	name      string
	logger    *slog.Logger
	isFailure func(status int) bool
	openErr   func(ctx context.Context) error
}

// NewBreaker wraps next with a breaker sized by cfg.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		next:      next,
		name:      cfg.Name,
		logger:    logger,
		isFailure: func(status int) bool { return status >= http.StatusInternalServerError },
	}
	for _, opt := range opts {
		opt(b)
	}

	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures) >= cfg.FailureRatio*float64(counts.Requests)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateGauge(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(stateGauge(gobreaker.StateClosed))
	return b
}

// Do sends req through the breaker. A response whose status is classified
// as a failure is closed and returned as a *StatusError.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if b.isFailure(resp.StatusCode) {
			return nil, b.failure(resp)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejected.WithLabelValues(b.name).Inc()
		b.logger.WarnContext(ctx, "circuit breaker rejected request",
			slog.String("breaker", b.name),
			slog.String("url", req.URL.Redacted()),
		)
		if b.openErr != nil {
			return nil, b.openErr(ctx)
		}
	}
	return resp, err
}

func (b *Breaker) failure(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	statusErr := &StatusError{Service: b.name, StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFailureBody))
	if err != nil {
		return fmt.Errorf("%w (reading body: %w)", statusErr, err)
	}
	statusErr.Body = string(body)
	return statusErr
}

// State returns the current state of the breaker.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateGauge(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
