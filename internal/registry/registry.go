// Package registry lazily constructs named service handles with single-flight
// semantics: each handle is built at most once per attempt, on first use, no
// matter how many callers race for it. A failed construction is retried on
// the next explicit Get, never in the background.
package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateError         State = "error"
)

// Constructor builds a service handle. It runs inside the service's exclusive
// section and must honor ctx cancellation.
type Constructor func(ctx context.Context) (any, error)

type entry struct {
	ctor Constructor

	// init serializes construction attempts; it is never held while Ready.
	init sync.Mutex

	// mu guards the fields below so Status can read them mid-attempt.
	mu      sync.RWMutex
	state   State
	gen     uint64
	handle  any
	lastErr error
	initDur time.Duration
}

// Manager is the service registry. Register every constructor before serving
// traffic; Get and Status are safe for concurrent use.
type Manager struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

func New(logger *slog.Logger) *Manager {
	return &Manager{
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Register binds a constructor to a name. Re-registering a name replaces the
// constructor and resets its state.
func (m *Manager) Register(name string, ctor Constructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = &entry{ctor: ctor, state: StateUninitialized}
}

// Get returns the handle for name, constructing it on first use. Ready
// handles return immediately. Concurrent callers during construction block
// until the in-flight attempt finishes and share its outcome; a caller that
// arrives after a failed attempt triggers a fresh one.
func (m *Manager) Get(ctx context.Context, name string) (any, error) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}

	e.mu.RLock()
	if e.state == StateReady {
		h := e.handle
		e.mu.RUnlock()
		return h, nil
	}
	gen := e.gen
	e.mu.RUnlock()

	e.init.Lock()
	defer e.init.Unlock()

	// Double-check after acquiring the init lock: another caller may have
	// finished an attempt while we waited. Share its outcome either way.
	e.mu.RLock()
	if e.state == StateReady {
		h := e.handle
		e.mu.RUnlock()
		return h, nil
	}
	if e.state == StateError && e.gen != gen {
		err := e.lastErr
		e.mu.RUnlock()
		return nil, err
	}
	e.mu.RUnlock()

	return m.construct(ctx, name, e)
}

func (m *Manager) construct(ctx context.Context, name string, e *entry) (any, error) {
	e.mu.Lock()
	e.state = StateInitializing
	e.mu.Unlock()

	start := time.Now()
	h, err := e.ctor(ctx)
	dur := time.Since(start)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.initDur = dur
	if err != nil {
		e.state = StateError
		e.lastErr = err
		m.logger.Error("service init failed", "service", name, "duration_ms", dur.Milliseconds(), "error", err)
		return nil, err
	}
	e.state = StateReady
	e.handle = h
	e.lastErr = nil
	m.logger.Info("service initialized", "service", name, "duration_ms", dur.Milliseconds())
	return h, nil
}

// ServiceStatus is one service's snapshot for health reporting.
type ServiceStatus struct {
	State      State  `json:"state"`
	InitMillis int64  `json:"initMillis,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Status snapshots every registered service without triggering construction.
func (m *Manager) Status() map[string]ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ServiceStatus, len(m.entries))
	for name, e := range m.entries {
		e.mu.RLock()
		st := ServiceStatus{State: e.state, InitMillis: e.initDur.Milliseconds()}
		if e.lastErr != nil {
			st.Error = e.lastErr.Error()
		}
		e.mu.RUnlock()
		out[name] = st
	}
	return out
}

// Warmup eagerly constructs the named services, best effort. The returned map
// holds one entry per requested name, nil on success.
func (m *Manager) Warmup(ctx context.Context, names ...string) map[string]error {
	out := make(map[string]error, len(names))
	for _, name := range names {
		_, err := m.Get(ctx, name)
		out[name] = err
	}
	return out
}

// Close releases every Ready handle that implements io.Closer and resets the
// registry to uninitialized.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, e := range m.entries {
		e.mu.Lock()
		if c, ok := e.handle.(io.Closer); ok && e.state == StateReady {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("closing %s: %w", name, err)
			}
		}
		e.state = StateUninitialized
		e.handle = nil
		e.mu.Unlock()
	}
	return firstErr
}

// Resolve fetches a handle by name and asserts its concrete type.
func Resolve[T any](ctx context.Context, m *Manager, name string) (T, error) {
	var zero T
	h, err := m.Get(ctx, name)
	if err != nil {
		return zero, err
	}
	t, ok := h.(T)
	if !ok {
		return zero, fmt.Errorf("service %q has type %T, want %T", name, h, zero)
	}
	return t, nil
}
