package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling the wrapped function while the circuit is open.
var ErrCircuitOpen = errors.New("circuit open")

var errPanicked = errors.New("call panicked")

// State is the circuit breaker state.
type State int

// Circuit breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	Name         string
	Threshold    int
	ResetTimeout time.Duration
	Clock        Clock
	// OnStateChange is invoked outside the breaker lock after every transition.
	OnStateChange func(name string, from, to State)
}

// DefaultBreakerConfig returns the configuration used for model calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "semantic",
		Threshold:    5,
		ResetTimeout: 30 * time.Second,
	}
}

// CircuitBreaker stops calling a failing dependency until ResetTimeout has passed
// since the last failure, then lets exactly one probe through.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewCircuitBreaker builds a closed breaker.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	defaults := DefaultBreakerConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaults.Threshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaults.ResetTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	return &CircuitBreaker{cfg: cfg}
}

// Name returns the configured breaker name.
func (b *CircuitBreaker) Name() string {
	return b.cfg.Name
}

// State returns the current state. An open breaker whose timeout has elapsed
// still reports open until the next call attempt.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current failure counter.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Do runs fn through the breaker.
func (b *CircuitBreaker) Do(fn func() error) error {
	_, err := Call(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Call runs fn through b and returns its value.
func Call[T any](b *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.before(); err != nil {
		return zero, err
	}

	// A panic in fn counts as a failure so a half-open breaker releases its probe.
	completed := false
	defer func() {
		if !completed {
			b.after(errPanicked)
		}
	}()

	value, err := fn()
	completed = true
	b.after(err)
	return value, err
}

func (b *CircuitBreaker) before() error {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case StateOpen:
		if b.cfg.Clock.Now().Sub(b.lastFailure) <= b.cfg.ResetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return nil
}

func (b *CircuitBreaker) after(err error) {
	b.mu.Lock()
	from := b.state
	if err == nil {
		switch b.state {
		case StateHalfOpen:
			b.state = StateClosed
			b.failures = 0
		default:
			if b.failures > 0 {
				b.failures--
			}
		}
	} else {
		b.failures++
		b.lastFailure = b.cfg.Clock.Now()
		if b.state == StateHalfOpen || b.failures >= b.cfg.Threshold {
			b.state = StateOpen
		}
	}
	if from == StateHalfOpen {
		b.probing = false
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *CircuitBreaker) notify(from, to State) {
	if from == to || b.cfg.OnStateChange == nil {
		return
	}
	b.cfg.OnStateChange(b.cfg.Name, from, to)
}
