package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker remembers consecutive upstream failures. Once the threshold
// is reached it rejects calls until the cool-down has passed, then lets one
// trial call through. While open, the failure that tripped it is available
// from LastError so callers can report the real cause.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold    int
	cooldown     time.Duration
	state        CircuitState
	failures     int
	lastErr      error
	lastFailure  time.Time
	retryAt      time.Time
	trialPending bool

	logger *zap.Logger
	now    func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		state:     CircuitStateClosed,
		logger:    logger,
		now:       time.Now,
	}
}

// Allow reports whether a call may go out. After the cool-down only the first
// caller gets the half-open trial; others are rejected until it reports back.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitStateClosed:
		return true
	case CircuitStateOpen:
		if cb.now().Before(cb.retryAt) {
			return false
		}
		cb.setState(CircuitStateHalfOpen)
		cb.trialPending = true
		return true
	default:
		if cb.trialPending {
			return false
		}
		cb.trialPending = true
		return true
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.lastErr = nil
	cb.trialPending = false
	if cb.state != CircuitStateClosed {
		cb.setState(CircuitStateClosed)
	}
}

// RecordFailure counts err against the threshold. cooldown overrides the
// default when positive, e.g. for rate limits.
func (cb *CircuitBreaker) RecordFailure(err error, cooldown time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cooldown <= 0 {
		cooldown = cb.cooldown
	}

	cb.failures++
	cb.lastErr = err
	cb.lastFailure = cb.now()
	cb.trialPending = false

	if cb.state == CircuitStateHalfOpen || cb.failures >= cb.threshold {
		cb.retryAt = cb.lastFailure.Add(cooldown)
		if cb.state != CircuitStateOpen {
			cb.setState(CircuitStateOpen)
		}
	}
}

// LastError is the most recent recorded failure, nil after a success.
func (cb *CircuitBreaker) LastError() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastErr
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.lastErr = nil
	cb.retryAt = time.Time{}
	cb.trialPending = false
	cb.setState(CircuitStateClosed)
}

func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		State:        cb.state,
		FailureCount: cb.failures,
	}
	if cb.lastErr != nil {
		status.LastError = cb.lastErr.Error()
	}
	if cb.state == CircuitStateOpen {
		retry := cb.retryAt
		status.RetryAt = &retry
	}
	return status
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(next CircuitState) {
	prev := cb.state
	cb.state = next
	if prev == next {
		return
	}
	fields := []zap.Field{
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
		zap.Int("failures", cb.failures),
	}
	if next == CircuitStateOpen {
		fields = append(fields, zap.Time("retry_at", cb.retryAt))
		cb.logger.Warn("Circuit opened", fields...)
		return
	}
	cb.logger.Info("Circuit state changed", fields...)
}

type CircuitBreakerStatus struct {
	State        CircuitState `json:"state"`
	FailureCount int          `json:"failure_count"`
	LastError    string       `json:"last_error,omitempty"`
	RetryAt      *time.Time   `json:"retry_at,omitempty"`
}
