package checkout

import "errors"

var (
	ErrNotAuthenticated      = errors.New("checkout requires an authenticated user")
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrUnknownShipping       = errors.New("unknown shipping option")
	ErrTotalMismatch         = errors.New("client total does not match server-computed total")
	ErrIllegalTransition     = errors.New("illegal transition of transaction status")
	ErrNotOwner              = errors.New("transaction belongs to another user")
	ErrUnsupportedFinalize   = errors.New("customer finalize only accepts the paid status")
	ErrMissingProfileContact = errors.New("address and phone are required for checkout")
	ErrStaleIdempotencyKey   = errors.New("a previous attempt with this idempotency key failed, retry with a new key")
)
