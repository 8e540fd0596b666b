package money

import "testing"

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{-0.5, -1},
		{499.99999999, 500},
	}
	for _, tc := range cases {
		if got := Round(tc.in); got != tc.want {
			t.Fatalf("Round(%f): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestUnitsIsDisplayScale(t *testing.T) {
	if got := New(1850, "EUR").Units(); got != 18.5 {
		t.Fatalf("expected 18.5, got %f", got)
	}
}

func TestLessThanComparesAmounts(t *testing.T) {
	if !New(999, "EUR").LessThan(New(1000, "EUR")) {
		t.Fatal("999 should be less than 1000")
	}
	if New(1000, "EUR").LessThan(New(1000, "EUR")) {
		t.Fatal("equal amounts are not less than")
	}
	if !New(0, "EUR").IsZero() {
		t.Fatal("zero amount should report IsZero")
	}
}
