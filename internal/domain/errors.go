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

// VenueError represents a failed venue operation that may be retriable
type VenueError struct {
	Venue     string // venue identifier
	Op        string // operation that failed (e.g., "fetch_balance", "create_order")
	Err       error  // underlying error
	Retriable bool   // whether this error is retriable
}

func (e *VenueError) Error() string {
	return e.Venue + " " + e.Op + ": " + e.Err.Error()
}

func (e *VenueError) IsRetriable() bool {
	return e.Retriable
}

func (e *VenueError) Unwrap() error {
	return e.Err
}

// NewVenueError creates a retriable venue error
func NewVenueError(venue, op string, err error) *VenueError {
	return &VenueError{Venue: venue, Op: op, Err: err, Retriable: true}
}

// NewFatalVenueError creates a non-retriable venue error
func NewFatalVenueError(venue, op string, err error) *VenueError {
	return &VenueError{Venue: venue, Op: op, Err: err, Retriable: false}
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
	// ErrSeriesWarmingUp is returned while a spread series has fewer samples
	// than its window. Cycles are skipped, never failed, on this condition.
	ErrSeriesWarmingUp = errors.New("spread series warming up")

	// ErrStaleQuote is returned when a venue's last book update is older than
	// the configured staleness threshold.
	ErrStaleQuote = errors.New("stale quote")

	// ErrBelowMinimum is returned when a sized quantity falls below either
	// venue's minimum order size. Not retriable; the opportunity is skipped.
	ErrBelowMinimum = errors.New("quantity below venue minimum")

	// ErrUnhedgedExposure is returned when leg 2 could not match leg 1's fill
	// within the bounded retry budget. Requires manual intervention.
	ErrUnhedgedExposure = errors.New("unhedged exposure after leg 2 retries")
)
