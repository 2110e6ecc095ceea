package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSplitExactDivision(t *testing.T) {
	plan, err := Split(Input{
		Total:     dec("300.00"),
		Count:     3,
		IssueDate: date(2024, time.January, 15),
	})
	require.NoError(t, err)
	require.Len(t, plan, 3)

	wantDates := []time.Time{
		date(2024, time.February, 15),
		date(2024, time.March, 15),
		date(2024, time.April, 15),
	}
	for i, inst := range plan {
		require.Equal(t, i+1, inst.Sequence)
		require.True(t, inst.Amount.Equal(dec("100.00")), "installment %d = %s", i+1, inst.Amount)
		require.Equal(t, wantDates[i], inst.DueDate)
		require.Equal(t, OriginGenerated, inst.Origin)
	}
}

func TestSplitRoundingRemainder(t *testing.T) {
	plan, err := Split(Input{Total: dec("100.00"), Count: 3, IssueDate: date(2024, time.June, 1)})
	require.NoError(t, err)
	require.Len(t, plan, 3)
	require.True(t, plan[0].Amount.Equal(dec("33.33")))
	require.True(t, plan[1].Amount.Equal(dec("33.33")))
	require.True(t, plan[2].Amount.Equal(dec("33.34")), "last absorbs the remainder, got %s", plan[2].Amount)

	sum := decimal.Zero
	for _, inst := range plan {
		sum = sum.Add(inst.Amount)
	}
	require.True(t, sum.Equal(dec("100.00")))
}

func TestSplitSumInvariant(t *testing.T) {
	cases := []struct {
		total string
		down  string
		count int
	}{
		{"100.00", "0", 3},
		{"999.99", "100.00", 7},
		{"1.00", "0", 3},
		{"2500.75", "500.25", 12},
		{"0.05", "0", 4},
	}
	for _, tc := range cases {
		in := Input{
			Total:       dec(tc.total),
			DownPayment: dec(tc.down),
			Count:       tc.count,
			IssueDate:   date(2024, time.March, 10),
		}
		plan, err := Split(in)
		require.NoError(t, err)
		require.Len(t, plan, tc.count)

		sum := in.DownPayment
		for _, inst := range plan {
			sum = sum.Add(inst.Amount)
		}
		require.True(t, sum.Equal(in.Total),
			"total=%s down=%s count=%d: sum %s", tc.total, tc.down, tc.count, sum)
		require.NoError(t, CheckBalance(in, plan))
	}
}

func TestSplitMonthOverflowClamp(t *testing.T) {
	plan, err := Split(Input{Total: dec("200.00"), Count: 2, IssueDate: date(2024, time.January, 31)})
	require.NoError(t, err)
	// 2024 is a leap year.
	require.Equal(t, date(2024, time.February, 29), plan[0].DueDate)
	require.Equal(t, date(2024, time.March, 31), plan[1].DueDate)
}

func TestSplitMonotonicDueDates(t *testing.T) {
	plan, err := Split(Input{Total: dec("1200.00"), Count: 14, IssueDate: date(2023, time.December, 31)})
	require.NoError(t, err)
	for i := 0; i < len(plan)-1; i++ {
		require.True(t, plan[i].DueDate.Before(plan[i+1].DueDate),
			"due date %d (%s) not before %d (%s)", i, plan[i].DueDate, i+1, plan[i+1].DueDate)
	}
}

func TestSplitFullDownPayment(t *testing.T) {
	plan, err := Split(Input{Total: dec("100.00"), DownPayment: dec("100.00"), Count: 0, IssueDate: date(2024, time.May, 2)})
	require.NoError(t, err)
	require.Empty(t, plan)
}

func TestSplitDownPaymentOvershootWithinTolerance(t *testing.T) {
	issue := date(2024, time.May, 2)

	plan, err := Split(Input{Total: dec("100.00"), DownPayment: dec("100.005"), Count: 1, IssueDate: issue})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.False(t, plan[0].Amount.IsNegative(), "amount = %s", plan[0].Amount)
	require.True(t, plan[0].Amount.IsZero())

	plan, err = Split(Input{Total: dec("100.00"), DownPayment: dec("100.005"), Count: 0, IssueDate: issue})
	require.NoError(t, err)
	require.Empty(t, plan)
}

func TestSplitInvalidInput(t *testing.T) {
	issue := date(2024, time.May, 2)
	cases := []struct {
		name string
		in   Input
	}{
		{"negative total", Input{Total: dec("-1"), Count: 1, IssueDate: issue}},
		{"negative down payment", Input{Total: dec("10"), DownPayment: dec("-1"), Count: 1, IssueDate: issue}},
		{"down payment exceeds total", Input{Total: dec("100"), DownPayment: dec("150"), Count: 1, IssueDate: issue}},
		{"negative count", Input{Total: dec("100"), Count: -1, IssueDate: issue}},
		{"zero count with open balance", Input{Total: dec("100"), Count: 0, IssueDate: issue}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Split(tc.in)
			require.ErrorIs(t, err, ErrValidation)
			require.Nil(t, plan)
		})
	}
}

func TestRebuildPreservesUserEdits(t *testing.T) {
	in := Input{Total: dec("300.00"), Count: 3, IssueDate: date(2024, time.January, 15)}
	plan, err := Split(in)
	require.NoError(t, err)

	// User bumps the second installment and pins its date.
	plan[1].Amount = dec("150.00")
	plan[1].DueDate = date(2024, time.March, 20)
	plan[1].Origin = OriginUserEdited

	rebuilt, err := Rebuild(in, plan)
	require.NoError(t, err)
	require.Len(t, rebuilt, 3)

	require.True(t, rebuilt[1].Amount.Equal(dec("150.00")))
	require.Equal(t, date(2024, time.March, 20), rebuilt[1].DueDate)
	require.Equal(t, OriginUserEdited, rebuilt[1].Origin)

	// The generated rows split what the edit left over: 150 across two rows.
	require.True(t, rebuilt[0].Amount.Equal(dec("75.00")))
	require.True(t, rebuilt[2].Amount.Equal(dec("75.00")))
	require.NoError(t, CheckBalance(in, rebuilt))
}

func TestRebuildDropsOutOfRangeEdits(t *testing.T) {
	in := Input{Total: dec("300.00"), Count: 3, IssueDate: date(2024, time.January, 15)}
	plan, err := Split(in)
	require.NoError(t, err)
	plan[2].Amount = dec("120.00")
	plan[2].Origin = OriginUserEdited

	// Shrinking the plan below the edited sequence discards that edit.
	in.Count = 2
	rebuilt, err := Rebuild(in, plan)
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)
	for _, inst := range rebuilt {
		require.Equal(t, OriginGenerated, inst.Origin)
		require.True(t, inst.Amount.Equal(dec("150.00")))
	}
}

func TestRebuildOverclaimedEditsFloorAtZero(t *testing.T) {
	in := Input{Total: dec("100.00"), Count: 2, IssueDate: date(2024, time.January, 15)}
	plan, err := Split(in)
	require.NoError(t, err)
	plan[0].Amount = dec("500.00")
	plan[0].Origin = OriginUserEdited

	rebuilt, err := Rebuild(in, plan)
	require.NoError(t, err)
	require.True(t, rebuilt[1].Amount.IsZero(), "generated row floors at zero, got %s", rebuilt[1].Amount)

	// The resulting mismatch is reported, not silently corrected.
	var mismatch *BalanceMismatchError
	err = CheckBalance(in, rebuilt)
	require.ErrorAs(t, err, &mismatch)
	require.True(t, mismatch.Difference().Equal(dec("400.00")))
}

func TestCheckBalanceSurfacesManualMismatch(t *testing.T) {
	in := Input{Total: dec("300.00"), Count: 3, IssueDate: date(2024, time.January, 15)}
	plan, err := Split(in)
	require.NoError(t, err)

	plan[0].Amount = dec("120.00")
	plan[0].Origin = OriginUserEdited

	var mismatch *BalanceMismatchError
	err = CheckBalance(in, plan)
	require.ErrorAs(t, err, &mismatch)
	require.True(t, mismatch.Difference().Equal(dec("20.00")))
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		start  time.Time
		months int
		want   time.Time
	}{
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{date(2024, time.January, 31), 2, date(2024, time.March, 31)},
		{date(2024, time.August, 31), 1, date(2024, time.September, 30)},
		{date(2024, time.November, 15), 2, date(2025, time.January, 15)},
		{date(2024, time.December, 31), 2, date(2025, time.February, 28)},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, AddMonthsClamped(tc.start, tc.months),
			"%s + %d months", tc.start.Format("2006-01-02"), tc.months)
	}
}
