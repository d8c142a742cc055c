package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison via errors.Is(). Each maps to an error
// kind from the control plane's error handling design: components recover
// locally from transient I/O/config problems and only surface errors that
// change what the caller asked for.
var (
	// LockedStateFile (C1)
	ErrLockTimeout = errors.New("lock timeout: holder still active")
	ErrLockBusy    = errors.New("lock busy: held by active pid")
	ErrStateCorrupt = errors.New("state file corrupt")

	// QuotaTracker (C2)
	ErrQuotaExhausted   = errors.New("quota exhausted")
	ErrDeferToTomorrow  = errors.New("all tiers exhausted: defer to tomorrow")

	// WorkCoordinator (C3)
	ErrWorkNotFound    = errors.New("work item not found")
	ErrWIPLimitReached = errors.New("work-in-progress limit reached")

	// RoutingCore / ProbabilisticRouter (C4, C5)
	ErrInvalidRequest   = errors.New("invalid request")
	ErrValidationFailed = errors.New("validation failed")

	// OvernightExecutor (C7)
	ErrSubprocessTimeout = errors.New("subprocess timeout")
	ErrDependencyStall   = errors.New("dependency stall: no ready items remain")

	// Configuration / general
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")
	ErrAlreadyStarted       = errors.New("already started")
	ErrNotInitialized       = errors.New("not initialized")
	ErrTimeout              = errors.New("operation timeout")
	ErrMaxRetriesExceeded   = errors.New("maximum retries exceeded")
	ErrConnectionFailed     = errors.New("connection failed")
)

// RouterError provides structured error context with wrapping.
type RouterError struct {
	Op      string // operation that failed, e.g. "quota.Increment"
	Kind    string // error kind, e.g. "lock", "quota", "validation"
	ID      string // optional id of the entity involved (tier, work id, pid)
	Message string
	Err     error
}

func (e *RouterError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

func NewRouterError(op, kind string, err error) *RouterError {
	return &RouterError{Op: op, Kind: kind, Err: err}
}

func NewRouterErrorWithID(op, kind, id string, err error) *RouterError {
	return &RouterError{Op: op, Kind: kind, ID: id, Err: err}
}

// IsRetryable reports whether the operation that produced err may succeed
// if retried (transient lock contention, timeouts, connection problems).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrSubprocessTimeout)
}

// IsNotFound reports whether err represents a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkNotFound)
}

// IsConfigurationError reports whether err is configuration-related.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}

// IsStateError reports whether err reflects an invalid state transition.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrNotInitialized)
}
