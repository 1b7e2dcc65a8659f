package embed

import "fmt"

// Kind enumerates the embed manager's error taxonomy.
type Kind string

const (
	// UnsupportedProvider is returned when a modality names a provider the
	// factory does not recognize.
	UnsupportedProvider Kind = "unsupported_provider"
	// MissingConfig is returned when a provider is recognized but required
	// configuration (model alias, credentials) is absent.
	MissingConfig Kind = "missing_config"
	// BackendFailure is returned when the backend call itself errors.
	BackendFailure Kind = "backend_failure"
	// InvalidInput is returned for empty/invalid inputs (e.g. blank text
	// after trim, a media path that does not exist locally).
	InvalidInput Kind = "invalid_input"
)

// Error is the embed manager's typed error, carrying the taxonomy Kind
// alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embed: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("embed: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
