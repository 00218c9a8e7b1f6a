package sfoglia

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotAttached indicates a stack mutation was attempted before the
	// navigator was attached to a surface.
	ErrNotAttached = errors.New("navigator not attached to a surface")

	// ErrEmptyHistory indicates an operation that requires at least one
	// route was called on an empty history.
	ErrEmptyHistory = errors.New("history is empty")

	// ErrPredicateUnsatisfied indicates PopUntil ran out of poppable routes
	// before its predicate matched.
	ErrPredicateUnsatisfied = errors.New("predicate never matched a poppable route")
)

// Configuration faults surfaced during name resolution.
var (
	errNoGenerateRoute = errors.New("no OnGenerateRoute factory configured")
	errNoUnknownRoute  = errors.New("OnGenerateRoute returned nil and no OnUnknownRoute factory is configured")
	errNilUnknownRoute = errors.New("OnUnknownRoute returned nil; it must always produce a route")
)

// StackError represents a precondition violation on a navigator or overlay
// operation (pushing a route that already has a navigator, removing an
// entry twice, and so on). These indicate programmer errors in the calling
// code; the operation is aborted and nothing is retried or corrected.
type StackError struct {
	Op  string // Operation that failed (e.g., "push", "overlay.insert")
	Err error  // Underlying error or description
}

func (e *StackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sfoglia: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sfoglia: %s", e.Op)
}

func (e *StackError) Unwrap() error {
	return e.Err
}

func stackErrorf(op, format string, args ...any) *StackError {
	return &StackError{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsStackError checks if an error is a precondition violation.
func IsStackError(err error) bool {
	var se *StackError
	return errors.As(err, &se)
}

// ConfigError represents a host misconfiguration, such as an unknown-route
// factory returning nil. These are fatal: the navigator cannot proceed and
// the fault lies in how it was wired up, not in the failing call.
type ConfigError struct {
	Op   string // Operation that surfaced the misconfiguration
	Name string // Route name being resolved, if any
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("sfoglia: %s: route %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("sfoglia: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if an error indicates host misconfiguration.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
