// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package circuitbreaker gates calls to an unreliable dependency.
//
// Breaker wraps sony/gobreaker with the semantics the content selector
// relies on: Call never returns an error, it returns either the upstream
// value or a fallback signal; a single probe is admitted in HALF_OPEN;
// Reset forces CLOSED with zeroed counters.
//
// Breaker state is per process. Each running instance tracks upstream health
// on its own.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
)

var (
	// ErrTimeout is the cause recorded when an upstream call exceeds CallTimeout.
	ErrTimeout = errors.New("upstream call timed out")

	// ErrUpstreamPanic is the cause recorded when the upstream function panics.
	ErrUpstreamPanic = errors.New("upstream call panicked")
)

// State mirrors gobreaker.State with stable external names.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Config configures a Breaker.
type Config struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that open the circuit
	CoolDown         time.Duration // time spent OPEN before a probe is admitted
	CallTimeout      time.Duration // per-call deadline, 0 disables
}

// DefaultConfig returns a threshold of 5 failures and a 30s cool-down.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		CoolDown:         30 * time.Second,
		CallTimeout:      5 * time.Second,
	}
}

// Status is a point-in-time view of the breaker.
type Status struct {
	Name          string     `json:"name"`
	State         State      `json:"state"`
	FailureCount  uint32     `json:"failure_count"`
	SuccessCount  uint32     `json:"success_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
}

// Result is the outcome of Call. When Fallback is set Value is the zero
// value and Cause says why: a rejected call (open circuit, probe already in
// flight) or the upstream failure itself.
type Result[T any] struct {
	Value    T
	Fallback bool
	Cause    error
}

// Breaker is safe for concurrent use.
type Breaker[T any] struct {
	cfg Config
	now func() time.Time

	mu         sync.Mutex
	cb         *gobreaker.CircuitBreaker[T]
	generation uint64
	failures   uint32
	successes  uint32
	lastFail   time.Time
}

// New builds a CLOSED breaker.
func New[T any](cfg Config) *Breaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	b := &Breaker[T]{cfg: cfg, now: time.Now}
	b.cb = b.newCircuit()
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cfg.Name).Set(0)
	return b
}

func (b *Breaker[T]) newCircuit() *gobreaker.CircuitBreaker[T] {
	threshold := b.cfg.FailureThreshold
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        b.cfg.Name,
		MaxRequests: 1, // one probe in HALF_OPEN
		Interval:    0, // never clear counts while CLOSED
		Timeout:     b.cfg.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().
					Str("breaker", b.cfg.Name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: b.onStateChange,
	})
}

// onStateChange runs under gobreaker's lock; it must not call back into cb.
func (b *Breaker[T]) onStateChange(name string, from, to gobreaker.State) {
	fromStr, toStr := toState(from), toState(to)
	logging.Info().Str("breaker", name).Str("from", string(fromStr)).Str("to", string(toStr)).
		Msg("[CIRCUIT BREAKER] State transition")

	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
	metrics.CircuitBreakerTransitions.WithLabelValues(name, string(fromStr), string(toStr)).Inc()

	if to == gobreaker.StateClosed {
		b.mu.Lock()
		b.failures, b.successes = 0, 0
		b.mu.Unlock()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
	}
}

// Call runs fn through the breaker. It never returns an error.
func (b *Breaker[T]) Call(ctx context.Context, fn func(context.Context) (T, error)) Result[T] {
	b.mu.Lock()
	cb, gen := b.cb, b.generation
	b.mu.Unlock()

	// Counters are updated inside the request so that a closing transition
	// triggered by this very call (probe success) zeroes them afterwards.
	v, err := cb.Execute(func() (T, error) {
		v, err := b.invoke(ctx, fn)
		b.record(gen, err)
		return v, err
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.cfg.Name, "success").Inc()
		return Result[T]{Value: v}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.cfg.Name, "rejected").Inc()
		logging.Debug().Str("breaker", b.cfg.Name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(b.cfg.Name, "failure").Inc()
		logging.Warn().Str("breaker", b.cfg.Name).Err(err).Msg("[CIRCUIT BREAKER] Upstream call failed")
	}
	var zero T
	return Result[T]{Value: zero, Fallback: true, Cause: err}
}

// invoke applies the call timeout and converts panics into failures. fn runs
// on its own goroutine so a callee that ignores ctx cannot block past the
// deadline.
func (b *Breaker[T]) invoke(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	if b.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
	}

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{zero, fmt.Errorf("%w: %v", ErrUpstreamPanic, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, b.cfg.CallTimeout)
		}
		return zero, ctx.Err()
	}
}

func (b *Breaker[T]) record(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return // breaker was reset while the call was in flight
	}
	if err != nil {
		b.failures++
		b.lastFail = b.now()
	} else {
		b.failures = 0
		b.successes++
	}
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.cfg.Name).Set(float64(b.failures))
}

// Status reports the state and counters without changing them.
func (b *Breaker[T]) Status() Status {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()

	// cb.State takes gobreaker's lock, which onStateChange holds while it
	// waits for b.mu; read it before taking b.mu again.
	state := toState(cb.State())

	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{
		Name:         b.cfg.Name,
		State:        state,
		FailureCount: b.failures,
		SuccessCount: b.successes,
	}
	if !b.lastFail.IsZero() {
		t := b.lastFail
		st.LastFailureAt = &t
	}
	return st
}

// Reset forces CLOSED with zeroed counters. Calls already in flight finish
// against the previous circuit and are not counted.
func (b *Breaker[T]) Reset() {
	b.mu.Lock()
	old := b.cb
	b.mu.Unlock()
	prev := toState(old.State())

	b.mu.Lock()
	b.generation++
	b.cb = b.newCircuit()
	b.failures, b.successes = 0, 0
	b.lastFail = time.Time{}
	b.mu.Unlock()

	metrics.CircuitBreakerState.WithLabelValues(b.cfg.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.cfg.Name).Set(0)
	logging.Info().Str("breaker", b.cfg.Name).Str("from", string(prev)).Msg("[CIRCUIT BREAKER] Reset by operator")
}

// Name returns the configured breaker name.
func (b *Breaker[T]) Name() string { return b.cfg.Name }

func toState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
