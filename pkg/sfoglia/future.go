package sfoglia

import (
	"context"
	"sync"
)

// Signal is a single-fire completion notification with no payload. It backs
// the points where a caller may choose to wait on the engine (a route's
// entrance transition finishing, its exit teardown completing) without the
// engine itself ever blocking on it.
type Signal struct {
	mu        sync.Mutex
	completed bool
	done      chan struct{}
	listeners []func()
}

func newSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Done returns a channel that is closed once the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Completed reports whether the signal has fired.
func (s *Signal) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Wait blocks until the signal fires or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onComplete registers fn to run once the signal fires. If the signal has
// already fired, fn runs inline. Listeners run on whichever goroutine
// completes the signal, in registration order.
func (s *Signal) onComplete(fn func()) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		fn()
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// complete fires the signal. Firing twice is a no-op so transition layers
// can resolve it from multiple paths without coordination.
func (s *Signal) complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	listeners := s.listeners
	s.listeners = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Result is a single-resolution future carrying an arbitrary value. Each
// route exposes one as its popped signal: it resolves exactly once, with
// the result the route was popped with.
type Result struct {
	mu       sync.Mutex
	resolved bool
	value    any
	done     chan struct{}
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// Done returns a channel that is closed once the result resolves.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Resolved reports whether the result has been resolved.
func (r *Result) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

// Value returns the resolved value. Only meaningful after Done is closed;
// before resolution it returns nil.
func (r *Result) Value() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Wait blocks until the result resolves or ctx is done, returning the
// resolved value.
func (r *Result) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.Value(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve sets the value and fires the done channel. Returns false if the
// result was already resolved.
func (r *Result) resolve(v any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return false
	}
	r.resolved = true
	r.value = v
	close(r.done)
	return true
}
