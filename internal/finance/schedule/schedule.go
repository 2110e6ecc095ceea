// Package schedule splits a financed balance into an installment plan and
// keeps hand-edited plans reconciled with their totals.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags how an installment row came to exist. Regeneration must not
// overwrite rows the user edited by hand.
type Origin string

const (
	// OriginGenerated marks rows produced by Split or Rebuild.
	OriginGenerated Origin = "GENERATED"
	// OriginUserEdited marks rows whose amount or due date was overridden.
	OriginUserEdited Origin = "USER_EDITED"
)

// Tolerance is the largest sum drift treated as "equal" when comparing
// monetary amounts, one cent.
var Tolerance = decimal.New(1, -2)

// Input describes a balance to amortize.
type Input struct {
	Total       decimal.Decimal
	DownPayment decimal.Decimal
	Count       int
	IssueDate   time.Time
}

// Remaining returns the balance left after the down payment.
func (in Input) Remaining() decimal.Decimal {
	return in.Total.Sub(in.DownPayment)
}

// Installment is one scheduled partial payment. Sequence is 1-based; the down
// payment, when present, is sequence zero and never part of the plan.
type Installment struct {
	Sequence int             `json:"sequence"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
	Origin   Origin          `json:"origin"`
}

func (in Input) validate() error {
	switch {
	case in.Total.IsNegative():
		return errValidation("total value must not be negative")
	case in.DownPayment.IsNegative():
		return errValidation("down payment must not be negative")
	case in.DownPayment.Sub(in.Total).GreaterThan(Tolerance):
		return errValidation("down payment exceeds total value")
	case in.Count < 0:
		return errValidation("installment count must not be negative")
	}
	return nil
}

// Split produces a plan of exactly in.Count installments whose amounts sum to
// the remaining balance. Each share is the balance divided by the count and
// rounded to cents; the last installment absorbs the rounding remainder so
// the sum closes exactly. Due dates advance one calendar month per sequence.
//
// A zero count is only valid when the balance is already settled by the down
// payment; otherwise the caller is asked for at least one installment.
func Split(in Input) ([]Installment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	remaining := in.Remaining()
	if remaining.IsNegative() {
		// Validation bounds the overshoot to Tolerance. Treat it as settled
		// so no installment ever carries a negative amount.
		remaining = decimal.Zero
	}
	if in.Count == 0 {
		if remaining.Abs().GreaterThan(Tolerance) {
			return nil, errValidation("remaining balance requires at least one installment")
		}
		return []Installment{}, nil
	}

	share := remaining.Div(decimal.NewFromInt(int64(in.Count))).Round(2)
	plan := make([]Installment, in.Count)
	allocated := decimal.Zero
	for i := 0; i < in.Count; i++ {
		amount := share
		if i == in.Count-1 {
			amount = remaining.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		plan[i] = Installment{
			Sequence: i + 1,
			DueDate:  AddMonthsClamped(in.IssueDate, i+1),
			Amount:   amount,
			Origin:   OriginGenerated,
		}
	}
	return plan, nil
}

// Rebuild recomputes a plan after its inputs changed while an edited plan
// already exists. Rows the user edited keep their amount and due date as long
// as their sequence is still in range; everything else is regenerated from
// the balance that is not claimed by surviving edits. The resulting plan may
// therefore carry a balance mismatch, which CheckBalance reports and the UI
// surfaces instead of silently rewriting the user's numbers.
func Rebuild(in Input, existing []Installment) ([]Installment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	kept := make(map[int]Installment)
	for _, inst := range existing {
		if inst.Origin == OriginUserEdited && inst.Sequence >= 1 && inst.Sequence <= in.Count {
			kept[inst.Sequence] = inst
		}
	}
	if len(kept) == 0 {
		return Split(in)
	}

	remaining := in.Remaining()
	free := in.Count - len(kept)
	claimed := decimal.Zero
	for _, inst := range kept {
		claimed = claimed.Add(inst.Amount)
	}
	toSpread := remaining.Sub(claimed)

	var share decimal.Decimal
	if free > 0 {
		share = toSpread.Div(decimal.NewFromInt(int64(free))).Round(2)
		if share.IsNegative() {
			// Edits already claim the whole balance; generated rows floor
			// at zero and the mismatch is reported, not corrected.
			share = decimal.Zero
		}
	}

	plan := make([]Installment, in.Count)
	allocated := decimal.Zero
	lastFree := -1
	for i := in.Count - 1; i >= 0; i-- {
		if _, ok := kept[i+1]; !ok {
			lastFree = i
			break
		}
	}
	for i := 0; i < in.Count; i++ {
		if inst, ok := kept[i+1]; ok {
			plan[i] = inst
			continue
		}
		amount := share
		if i == lastFree {
			amount = toSpread.Sub(allocated)
			if amount.IsNegative() {
				amount = decimal.Zero
			}
		}
		allocated = allocated.Add(amount)
		plan[i] = Installment{
			Sequence: i + 1,
			DueDate:  AddMonthsClamped(in.IssueDate, i+1),
			Amount:   amount,
			Origin:   OriginGenerated,
		}
	}
	return plan, nil
}

// CheckBalance verifies the sum invariant over a possibly hand-edited plan:
// down payment plus all installment amounts must equal the total within one
// cent. Manual edits that break it are intentional user input, so the
// mismatch is reported to the caller rather than auto-corrected.
func CheckBalance(in Input, plan []Installment) error {
	sum := in.DownPayment
	for _, inst := range plan {
		if inst.Amount.IsNegative() {
			return errValidation("installment amount must not be negative")
		}
		sum = sum.Add(inst.Amount)
	}
	if diff := sum.Sub(in.Total).Abs(); diff.GreaterThan(Tolerance) {
		return &BalanceMismatchError{Expected: in.Total, Actual: sum}
	}
	return nil
}

// AddMonthsClamped advances t by the given number of calendar months,
// clamping a day-of-month overflow to the last valid day of the target month
// (Jan 31 + 1 month is Feb 28 or 29, not Mar 2/3 as time.AddDate would
// normalize it).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
