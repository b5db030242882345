package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// TransportError represents a failure reaching the ledger node or the relay
// feed. The projection core never retries these; the ingestor's connection
// loop owns retry policy.
type TransportError struct {
	Op        string // Operation that failed (e.g., "backfill", "subscribe", "dial")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) IsRetriable() bool {
	return e.Retriable
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new retriable transport error
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retriable: true}
}

// NewFatalTransportError creates a non-retriable transport error
func NewFatalTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrZeroBaseAmount is returned when an order's base leg is zero and no
	// unit price can be computed. The record is excluded from priced views
	// but stays visible in raw form.
	ErrZeroBaseAmount = errors.New("zero base amount")

	// ErrNotReady is returned when a view is requested before the backfill
	// has completed. Projecting a partial store would report matched orders
	// as open.
	ErrNotReady = errors.New("backfill not complete")

	// ErrUnknownEventKind is returned when a feed delivers a record that is
	// not one of Order, Cancel, Trade.
	ErrUnknownEventKind = errors.New("unknown event kind")
)
