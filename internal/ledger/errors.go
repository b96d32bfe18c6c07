package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownAccount    = errors.New("account not found")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyMaxTier    = errors.New("battery already at maximum tier")
	ErrNoEnergyAvailable = errors.New("no energy available")
	ErrUnknownGenerator  = errors.New("unknown generator kind")
	ErrStorageCorrupt    = errors.New("ledger snapshot corrupt")
)

// InsufficientFundsError carries the price and the balance at the time of the check.
type InsufficientFundsError struct {
	Need decimal.Decimal
	Have decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", e.Need.StringFixed(2), e.Have.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Shortfall is how much more money the caller needs.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Need.Sub(e.Have)
}

// InvalidQuantityError carries the rejected amount. Available is set when the
// request exceeded what the account holds.
type InvalidQuantityError struct {
	Requested float64
	Available float64
}

func (e *InvalidQuantityError) Error() string {
	if e.Available > 0 && e.Requested > e.Available {
		return fmt.Sprintf("invalid quantity %g: only %g available", e.Requested, e.Available)
	}
	return fmt.Sprintf("invalid quantity %g: must be positive", e.Requested)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }
