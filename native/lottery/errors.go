package lottery

import "errors"

var (
	ErrNilState          = errors.New("lottery: state not configured")
	ErrUnauthorized      = errors.New("lottery: unauthorized")
	ErrInvalidTier       = errors.New("lottery: invalid tier")
	ErrZeroWeight        = errors.New("lottery: tier weight must be positive")
	ErrWeightOverflow    = errors.New("lottery: total weight overflow")
	ErrLengthMismatch    = errors.New("lottery: asset and amount length mismatch")
	ErrInvalidAmount     = errors.New("lottery: amount must be positive")
	ErrUnknownToken      = errors.New("lottery: unknown token")
	ErrInvalidPrize      = errors.New("lottery: initial prize must be positive")
	ErrInvalidInterval   = errors.New("lottery: halving interval must be positive")
	ErrDrawNotConfigured = errors.New("lottery: draw type not configured")
	ErrDrawInactive      = errors.New("lottery: draw type inactive")
	ErrDrawTooEarly      = errors.New("lottery: draw interval not elapsed")
	ErrNoParticipants    = errors.New("lottery: no participants")
	ErrDrawPending       = errors.New("lottery: draw awaiting entropy")
	ErrNoPendingDraw     = errors.New("lottery: no pending draw")
	ErrInsufficientFunds = errors.New("lottery: insufficient funds")
	ErrTicketNotFound    = errors.New("lottery: ticket not found")
	ErrDrawNotFound      = errors.New("lottery: draw not found")

	// ErrCorruptWeightLedger signals that the binary search failed to locate a
	// range for a value below the total weight. It indicates ledger corruption
	// and is never recoverable by the caller.
	ErrCorruptWeightLedger = errors.New("lottery: weight ledger corrupted")
)
