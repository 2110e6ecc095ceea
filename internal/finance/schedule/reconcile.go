package schedule

import "github.com/shopspring/decimal"

// ReconcileCount adjusts the installment count after the down payment field
// is finalized. It is pure and idempotent, wired to the input-blur event by
// the caller:
//
//   - balance settled in full: the count is forced to zero;
//   - balance remains and the count is zero or negative: suggest one
//     installment;
//   - otherwise the user's explicit count is kept.
//
// The reverse transition is deliberately asymmetric: lowering the down
// payment again after a full settlement does not restore the count the form
// had before, it only bumps zero up to one. The previous count is gone and
// guessing it would surprise the user more than asking again.
func ReconcileCount(total, downPayment decimal.Decimal, current int) int {
	remaining := total.Sub(downPayment)
	switch {
	case remaining.Abs().LessThan(Tolerance):
		return 0
	case remaining.GreaterThan(Tolerance) && current <= 0:
		return 1
	default:
		return current
	}
}
