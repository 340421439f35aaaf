package primitives

import (
	"errors"
	"fmt"
)

// Sentinel errors for navigation failures.
var (
	// ErrRouteNotFound indicates a target or pop-to identifier did not resolve.
	ErrRouteNotFound = errors.New("route not found")

	// ErrInvalidOperation indicates a step or batch that can never be applied,
	// e.g. Back mixed with other steps. These are caller programming errors.
	ErrInvalidOperation = errors.New("invalid operation combination")

	// ErrNoActiveFlow indicates a guided-flow operation that requires an active flow.
	ErrNoActiveFlow = errors.New("no active guided flow")

	// ErrFlowNotFound indicates an unknown guided-flow route.
	ErrFlowNotFound = errors.New("guided flow not found")

	// ErrInvalidConfig indicates a broken declaration tree (cyclic start
	// references, duplicate graph ids, unresolvable start destinations).
	ErrInvalidConfig = errors.New("invalid navigation configuration")
)

// NavigationError carries the failing operation and route alongside the cause.
type NavigationError struct {
	Op    string // Operation that failed (e.g., "resolve", "pop_up_to")
	Route string // Route or identifier involved, if any
	Err   error  // Underlying error
}

func (e *NavigationError) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("navigatorx: %s %q: %v", e.Op, e.Route, e.Err)
	}
	return fmt.Sprintf("navigatorx: %s: %v", e.Op, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// NewError creates a NavigationError.
func NewError(op, route string, err error) *NavigationError {
	return &NavigationError{Op: op, Route: route, Err: err}
}

// Errorf creates a NavigationError wrapping err with extra detail.
func Errorf(op, route string, err error, format string, args ...any) *NavigationError {
	return &NavigationError{Op: op, Route: route, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}

// IsRouteNotFound checks if an error is a route resolution failure.
func IsRouteNotFound(err error) bool {
	return errors.Is(err, ErrRouteNotFound)
}

// IsInvalidOperation checks if an error is an invalid step combination.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}
