// Package errors defines the error taxonomy shared by every resolver backend.
//
// All failures surfaced out of the resolver pipeline carry one of a closed
// set of Kinds, the operation that produced them, and (where applicable) the
// underlying cause. Callers are expected to branch on Kind via errors.As,
// never on message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a ResolveError into one of the outcomes the pipeline and
// its backends can produce.
type Kind int

const (
	// InternalError marks an impossible invariant: wakeup bookkeeping gone
	// wrong, a subrequest accounted for twice, etc.
	InternalError Kind = iota

	// InvalidParameter marks a forbidden combination supplied by the caller:
	// a non-IPv4 destination for an NBT operation, an empty name, a
	// resolve_order beginning with "NULL", or NetBIOS disabled globally for
	// a path that requires it.
	InvalidParameter

	// InvalidAddress marks a destination of the wrong family or one that
	// cannot be represented on the wire.
	InvalidAddress

	// IoTimeout marks a deadline firing before a response arrived. Callers
	// in the broadcast path relabel this outcome as success with whatever
	// was collected; everywhere else it propagates as-is.
	IoTimeout

	// NotFound marks a negative response from a backend (a WINS negative
	// reply, an empty hosts lookup, a backend producing zero endpoints).
	NotFound

	// NoLogonServers marks DC-list assembly producing no candidates even
	// after the auto-lookup fallback ran.
	NoLogonServers

	// NoMemory marks an allocation failure. Always fatal to the request.
	NoMemory
)

// String renders the Kind the way log lines and test failure messages want
// to see it.
func (k Kind) String() string {
	switch k {
	case InternalError:
		return "internal_error"
	case InvalidParameter:
		return "invalid_parameter"
	case InvalidAddress:
		return "invalid_address"
	case IoTimeout:
		return "io_timeout"
	case NotFound:
		return "not_found"
	case NoLogonServers:
		return "no_logon_servers"
	case NoMemory:
		return "no_memory"
	default:
		return "unknown"
	}
}

// ResolveError is the single error type returned across the resolver,
// wire, transport, and cache packages. Op names the failing operation
// (e.g. "name_query", "resolve_wins", "parse_header") for log lines;
// Err carries the underlying cause when there is one.
type ResolveError struct {
	Op   string
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error, enabling errors.Is/As chain walking.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// New builds a ResolveError with no wrapped cause.
func New(op string, kind Kind) *ResolveError {
	return &ResolveError{Op: op, Kind: kind}
}

// Wrap builds a ResolveError around an existing cause. Wrap(op, kind, nil)
// returns nil, so call sites can write `return Wrap(op, kind, err)` inside
// an `if err != nil` guard without an extra branch.
func Wrap(op string, kind Kind, err error) *ResolveError {
	if err == nil {
		return nil
	}
	return &ResolveError{Op: op, Kind: kind, Err: err}
}

// Is reports whether err, or any error in its chain, is a *ResolveError
// of the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var re *ResolveError
		if !errors.As(err, &re) {
			return false
		}
		if re.Kind == kind {
			return true
		}
		err = re.Err
	}
	return false
}
