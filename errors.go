package rivulet

import (
	"errors"
	"fmt"

	"github.com/ygrebnov/errorc"
)

// Namespace prefixes every sentinel error so callers can recognize rivulet
// failures when multiple libraries share a log stream.
const Namespace = "rivulet"

// Kind classifies an Outcome failure for retry/error-mode decisions.
type Kind int

const (
	// KindUnknown is the zero value; Classify never returns it for a non-nil error.
	KindUnknown Kind = iota

	// KindTransient covers timeouts and other errors considered retryable by default.
	KindTransient

	// KindCancelled means the pipeline's root cancel was observed.
	KindCancelled

	// KindTimeout means a per-item deadline elapsed.
	KindTimeout

	// KindCircuitOpen is a synthetic failure produced when the breaker short-circuits.
	KindCircuitOpen

	// KindThrottled is a rate-limit refusal in non-blocking mode.
	KindThrottled

	// KindUserFault is any other error returned by the user operation.
	KindUserFault

	// KindSourceFault is an error raised while reading the source sequence.
	KindSourceFault

	// KindConfigError is an option-validation failure, raised before any work starts.
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "Transient"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindCircuitOpen:
		return "CircuitOpen"
	case KindThrottled:
		return "Throttled"
	case KindUserFault:
		return "UserFault"
	case KindSourceFault:
		return "SourceFault"
	case KindConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

var (
	ErrCancelled    = errors.New(Namespace + ": cancelled")
	ErrTimeout      = errors.New(Namespace + ": per-item timeout exceeded")
	ErrCircuitOpen  = errors.New(Namespace + ": circuit breaker is open")
	ErrThrottled    = errors.New(Namespace + ": rate limit exceeded")
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")
)

// kindError pairs a Kind with an underlying cause so Classify and error-mode
// propagation can agree on how a failure should be treated.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.cause) }
func (e *kindError) Unwrap() error { return e.cause }

// WithKind wraps cause so Classify reports kind for it, regardless of what
// Classify would have inferred from cause alone. A nil cause returns nil.
func WithKind(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

// Classify inspects err and returns its Kind, consulting isTransient (if
// non-nil) only for errors that are not already definitively classified
// (Cancelled, CircuitOpen, SourceFault, ConfigError are never retried
// regardless of isTransient).
func Classify(err error, isTransient func(error) bool) Kind {
	if err == nil {
		return KindUnknown
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}

	switch {
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrCircuitOpen):
		return KindCircuitOpen
	case errors.Is(err, ErrConfigErrorSentinel):
		return KindConfigError
	case errors.Is(err, ErrTimeout):
		if isTransient != nil && !isTransient(err) {
			return KindUserFault
		}
		return KindTimeout
	case errors.Is(err, ErrThrottled):
		if isTransient != nil && !isTransient(err) {
			return KindUserFault
		}
		return KindThrottled
	}

	if isTransient != nil && isTransient(err) {
		return KindTransient
	}
	return KindUserFault
}

// SourceFault wraps an error raised while reading the source sequence. It is
// never retried and always terminates the run, per spec.
func SourceFault(cause error) error {
	if cause == nil {
		return nil
	}
	return WithKind(KindSourceFault, errorc.Wrap(cause, Namespace+": source fault"))
}

// ItemFailure correlates a terminal failure with the WorkItem index that
// produced it, for use inside an aggregate (CollectAndContinue) error.
type ItemFailure struct {
	Index int
	Kind  Kind
	Err   error
}

func (f *ItemFailure) Error() string {
	return fmt.Sprintf("item %d (%s): %v", f.Index, f.Kind, f.Err)
}

func (f *ItemFailure) Unwrap() error { return f.Err }

// Aggregate joins per-item terminal failures into a single error, preserving
// each cause for inspection via errors.As(*ItemFailure).
func Aggregate(failures []*ItemFailure) error {
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
