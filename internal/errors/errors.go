package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services wrap these with context (`fmt.Errorf("...: %w", ...)`) and callers use
// `errors.Is()` to decide whether a failure is fatal for a run, a per-record
// problem, or something the API layer should map to an HTTP status.

var (
	// ErrConfiguration signifies that a required setting is missing or still
	// holds a placeholder value. Detected before any record is touched.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrConnectivity signifies that the source or target store could not be
	// reached. It aborts the whole run.
	ErrConnectivity = errors.New("store unreachable")

	// ErrInvalidRecord signifies that a single source document had an
	// unexpected shape. The run continues with the next record.
	ErrInvalidRecord = errors.New("invalid source record")

	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation conflicts with the current
	// state, e.g. starting a job while another one is still running.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrInternal signifies an unexpected error. This is a generic error used
	// to prevent leaking implementation details to the client.
	ErrInternal = errors.New("internal server error")
)
