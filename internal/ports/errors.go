package ports

import "errors"

// Pipeline failure classes. Every error returned by a draw request wraps exactly one of these.
var (
	// ErrFetch means the data source was unreachable or returned nothing usable.
	ErrFetch = errors.New("price history fetch failed")
	// ErrDomain means a price or age violates the positivity required by the logarithm.
	ErrDomain = errors.New("value outside logarithm domain")
	// ErrInsufficientData means fewer than two usable observations, or no spread in age.
	ErrInsufficientData = errors.New("insufficient data for fit")
	// ErrNumerical means the least-squares solve produced a non-finite result.
	ErrNumerical = errors.New("numerical failure in fit")
)

// Transport classification. Adapters wrap these underneath ErrFetch.
var (
	ErrUnknown              = errors.New("unknown error occurred")
	ErrInvalidRequest       = errors.New("invalid request parameters or format")
	ErrNoData               = errors.New("no data returned for requested window")
	ErrTimeout              = errors.New("operation timed out")
	ErrContextCanceled      = errors.New("operation canceled via context")
	ErrConnectionFailed     = errors.New("failed to connect to the data provider")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("data provider authentication failed")
	ErrConfigurationError   = errors.New("invalid or missing configuration")
)
