package errors

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the position of a CircuitBreaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned without calling the operation while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerSettings configures when a CircuitBreaker trips and how long it stays open.
type BreakerSettings struct {
	FailureRatio  float64
	MinRequests   int
	OpenTimeout   time.Duration
	TrialRequests int
}

// DefaultBreakerSettings trips at half of at least ten calls failing.
var DefaultBreakerSettings = BreakerSettings{
	FailureRatio:  0.5,
	MinRequests:   10,
	OpenTimeout:   30 * time.Second,
	TrialRequests: 3,
}

// CircuitBreaker stops calling a failing dependency for a while.
type CircuitBreaker struct {
	mu       sync.Mutex
	settings BreakerSettings
	state    BreakerState
	failures int
	requests int
	openedAt time.Time
	now      func() time.Time
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(settings BreakerSettings) *CircuitBreaker {
	if settings.TrialRequests <= 0 {
		settings.TrialRequests = 1
	}
	return &CircuitBreaker{settings: settings, now: time.Now}
}

// Call runs fn unless the breaker is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++
	if err != nil {
		cb.failures++
		if cb.state == BreakerHalfOpen || cb.tripped() {
			cb.open()
		}
		return err
	}

	if cb.state == BreakerHalfOpen && cb.requests-cb.failures >= cb.settings.TrialRequests {
		cb.state = BreakerClosed
		cb.reset()
	}
	return nil
}

// State returns the current position.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.settings.OpenTimeout {
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.reset()
	case BreakerHalfOpen:
		if cb.requests >= cb.settings.TrialRequests {
			return ErrCircuitOpen
		}
	}
	return nil
}

func (cb *CircuitBreaker) tripped() bool {
	if cb.requests < cb.settings.MinRequests {
		return false
	}
	return float64(cb.failures)/float64(cb.requests) >= cb.settings.FailureRatio
}

func (cb *CircuitBreaker) open() {
	cb.state = BreakerOpen
	cb.openedAt = cb.now()
	cb.reset()
}

func (cb *CircuitBreaker) reset() {
	cb.failures = 0
	cb.requests = 0
}
