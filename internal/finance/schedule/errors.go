package schedule

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation wraps all rejected inputs so callers can branch on the class
// without matching messages.
var ErrValidation = errors.New("invalid amortization input")

func errValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// BalanceMismatchError reports a plan whose amounts no longer sum to the
// total. It is advisory: the plan stays as the user wrote it.
type BalanceMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("installment sum %s does not close total %s",
		e.Actual.StringFixed(2), e.Expected.StringFixed(2))
}

// Difference returns how far the plan is from closing, positive when the plan
// overshoots the total.
func (e *BalanceMismatchError) Difference() decimal.Decimal {
	return e.Actual.Sub(e.Expected)
}
