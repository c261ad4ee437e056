// Package breaker tracks backend health per provider and short-circuits calls
// to providers in sustained failure.
package breaker

import (
	"sync"
	"time"
)

// State is the externally visible breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// CircuitState is the mutable record kept per provider
type CircuitState struct {
	Failures     int       // Consecutive failures
	LastFailure  time.Time // Time of the most recent failure
	Open         bool
	HalfOpen     bool      // Cooldown elapsed, one trial call admitted
	ProbeStarted time.Time // When the half-open trial was admitted
}

// Registry holds one CircuitState per provider. Safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	states    map[string]*CircuitState
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewRegistry creates a registry that opens after threshold consecutive
// failures and half-opens after cooldown
func NewRegistry(threshold int, cooldown time.Duration) *Registry {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}

	return &Registry{
		states:    make(map[string]*CircuitState),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// SetClock replaces the time source (tests)
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// IsOpen reports whether calls to provider must be short-circuited.
// Once the cooldown has elapsed, exactly one caller is let through as a trial
// until that trial records its outcome (or itself outlives the cooldown).
func (r *Registry) IsOpen(provider string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[provider]
	if !ok || !s.Open {
		return false
	}

	now := r.now()
	if now.Sub(s.LastFailure) < r.cooldown {
		return true
	}

	if s.HalfOpen && now.Sub(s.ProbeStarted) < r.cooldown {
		// Trial already in flight
		return true
	}

	s.HalfOpen = true
	s.ProbeStarted = now
	return false
}

// RecordSuccess closes the circuit and clears the failure count
func (r *Registry) RecordSuccess(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.getOrCreate(provider)
	s.Failures = 0
	s.Open = false
	s.HalfOpen = false
	s.ProbeStarted = time.Time{}
}

// RecordFailure counts a backend-health failure. A failed half-open trial
// reopens the circuit immediately.
func (r *Registry) RecordFailure(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.getOrCreate(provider)
	s.Failures++
	s.LastFailure = r.now()

	if s.Failures >= r.threshold || s.HalfOpen {
		s.Open = true
	}
	s.HalfOpen = false
	s.ProbeStarted = time.Time{}
}

// ReleaseTrial ends a half-open trial whose outcome says nothing about
// backend health (a rejected request, a cancelled context). The circuit stays
// open and the next IsOpen admits a fresh trial.
func (r *Registry) ReleaseTrial(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.states[provider]; ok {
		s.HalfOpen = false
		s.ProbeStarted = time.Time{}
	}
}

// State returns the current state without admitting a trial
func (r *Registry) State(provider string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[provider]
	if !ok || !s.Open {
		return StateClosed
	}
	if s.HalfOpen || r.now().Sub(s.LastFailure) >= r.cooldown {
		return StateHalfOpen
	}
	return StateOpen
}

// Snapshot returns a copy of the record for provider
func (r *Registry) Snapshot(provider string) CircuitState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.states[provider]; ok {
		return *s
	}
	return CircuitState{}
}

// Reset forgets every provider
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = make(map[string]*CircuitState)
}

// getOrCreate must be called with mu held
func (r *Registry) getOrCreate(provider string) *CircuitState {
	s, ok := r.states[provider]
	if !ok {
		s = &CircuitState{}
		r.states[provider] = s
	}
	return s
}
