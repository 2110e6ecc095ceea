package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcileCount(t *testing.T) {
	cases := []struct {
		name    string
		total   string
		down    string
		current int
		want    int
	}{
		{"paid in full forces zero", "100.00", "100.00", 3, 0},
		{"within tolerance counts as full", "100.00", "99.995", 3, 0},
		{"open balance suggests one", "100.00", "40.00", 0, 1},
		{"open balance with negative count suggests one", "100.00", "40.00", -2, 1},
		{"explicit count preserved", "100.00", "40.00", 6, 6},
		{"no down payment preserved", "100.00", "0", 4, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReconcileCount(dec(tc.total), dec(tc.down), tc.current)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestReconcileCountIdempotent(t *testing.T) {
	cases := []struct {
		total   string
		down    string
		current int
	}{
		{"100.00", "100.00", 5},
		{"100.00", "30.00", 0},
		{"100.00", "30.00", 8},
		{"0", "0", 2},
	}
	for _, tc := range cases {
		once := ReconcileCount(dec(tc.total), dec(tc.down), tc.current)
		twice := ReconcileCount(dec(tc.total), dec(tc.down), once)
		require.Equal(t, once, twice, "total=%s down=%s current=%d", tc.total, tc.down, tc.current)
	}
}

// Editing the down payment back below the total does not restore the count
// the form had before it was forced to zero. That asymmetry follows the
// original form behavior and is intentional.
func TestReconcileCountAsymmetry(t *testing.T) {
	count := 6
	count = ReconcileCount(dec("100.00"), dec("100.00"), count)
	require.Equal(t, 0, count)

	count = ReconcileCount(dec("100.00"), dec("60.00"), count)
	require.Equal(t, 1, count, "only bumps zero to one, never restores the old count")
}
