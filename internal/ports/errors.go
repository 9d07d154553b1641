package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Trading loop faults. All of them are recoverable inside the loop.
	ErrFetchFault       = errors.New("market data retrieval failed")
	ErrOrderFault       = errors.New("order placement failed")
	ErrDataInsufficient = errors.New("not enough candles to compute indicators")
	ErrPositionOpen     = errors.New("a position is already open")
	ErrNoOpenPosition   = errors.New("no open position")
	ErrTickPanic        = errors.New("tick panicked")

	// Exchange Specific Errors
	ErrNetwork              = errors.New("network fault talking to the exchange")
	ErrExchange             = errors.New("exchange rejected the request")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInvalidAPIKeys       = errors.New("invalid API keys or permissions")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrBelowLotSize         = errors.New("order quantity below exchange lot size")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
