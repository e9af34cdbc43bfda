package amm

import (
	"errors"
	"math"
	"testing"
)

func linearPool(spot, delta uint64) *Pool {
	return &Pool{SpotPrice: spot, CurveType: CurveLinear, CurveDelta: delta}
}

func expPool(spot, delta uint64) *Pool {
	return &Pool{SpotPrice: spot, CurveType: CurveExponential, CurveDelta: delta}
}

func TestLinearQuoteAbsorbing(t *testing.T) {
	cases := []struct {
		name      string
		spot      uint64
		delta     uint64
		amount    uint64
		wantTotal uint64
		wantNext  uint64
	}{
		{name: "single unit flat", spot: 1_000_000, delta: 0, amount: 1, wantTotal: 1_000_000, wantNext: 1_000_000},
		{name: "single unit stepped", spot: 1_000_000, delta: 50_000, amount: 1, wantTotal: 1_000_000, wantNext: 950_000},
		{name: "three units walk down", spot: 1_000_000, delta: 50_000, amount: 3, wantTotal: 2_850_000, wantNext: 850_000},
		{name: "exhausts to zero", spot: 100, delta: 50, amount: 2, wantTotal: 150, wantNext: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, next, err := TotalPriceAndNextPrice(linearPool(tc.spot, tc.delta), tc.amount, true)
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if total != tc.wantTotal {
				t.Fatalf("total: got %d, want %d", total, tc.wantTotal)
			}
			if next != tc.wantNext {
				t.Fatalf("next: got %d, want %d", next, tc.wantNext)
			}
		})
	}
}

func TestLinearQuoteAbsorbingUnderflow(t *testing.T) {
	// The second unit would price below zero; the quote fails rather than
	// clamping.
	if _, _, err := TotalPriceAndNextPrice(linearPool(100, 60), 2, true); !errors.Is(err, ErrNumericOverflow) {
		t.Fatalf("expected ErrNumericOverflow, got %v", err)
	}
}

func TestLinearQuoteReleasing(t *testing.T) {
	// Releasing quotes start one step above spot: 1_050_000 + 1_100_000.
	total, next, err := TotalPriceAndNextPrice(linearPool(1_000_000, 50_000), 2, false)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 2_150_000 {
		t.Fatalf("total: got %d, want 2150000", total)
	}
	if next != 1_100_000 {
		t.Fatalf("next: got %d, want 1100000", next)
	}
}

func TestExponentialQuoteAbsorbing(t *testing.T) {
	// 10% per unit: 1_000_000 + 909_090 with truncating division.
	total, next, err := TotalPriceAndNextPrice(expPool(1_000_000, 1_000), 2, true)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 1_909_090 {
		t.Fatalf("total: got %d, want 1909090", total)
	}
	if next != 826_445 {
		t.Fatalf("next: got %d, want 826445", next)
	}
}

func TestExponentialQuoteReleasing(t *testing.T) {
	// 10% per unit scaling up before each charge: 1_100_000 + 1_210_000.
	total, next, err := TotalPriceAndNextPrice(expPool(1_000_000, 1_000), 2, false)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 2_310_000 {
		t.Fatalf("total: got %d, want 2310000", total)
	}
	if next != 1_210_000 {
		t.Fatalf("next: got %d, want 1210000", next)
	}
}

func TestExponentialQuoteZeroDelta(t *testing.T) {
	total, next, err := TotalPriceAndNextPrice(expPool(500, 0), 4, true)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 2_000 || next != 500 {
		t.Fatalf("got total=%d next=%d, want 2000/500", total, next)
	}
}

func TestExponentialQuoteDecaysToZero(t *testing.T) {
	// A tiny price with a huge delta decays to zero; further units charge
	// nothing instead of erroring.
	total, next, err := TotalPriceAndNextPrice(expPool(1, 10_000), 5, true)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 1 {
		t.Fatalf("total: got %d, want 1", total)
	}
	if next != 0 {
		t.Fatalf("next: got %d, want 0", next)
	}
}

func TestQuoteZeroAmount(t *testing.T) {
	if _, _, err := TotalPriceAndNextPrice(linearPool(1_000_000, 0), 0, true); !errors.Is(err, ErrInvalidRequestedPrice) {
		t.Fatalf("expected ErrInvalidRequestedPrice, got %v", err)
	}
}

func TestQuoteOverflow(t *testing.T) {
	if _, _, err := TotalPriceAndNextPrice(linearPool(math.MaxUint64, 0), 2, true); !errors.Is(err, ErrNumericOverflow) {
		t.Fatalf("expected ErrNumericOverflow, got %v", err)
	}
	if _, _, err := TotalPriceAndNextPrice(linearPool(math.MaxUint64, 1), 1, false); !errors.Is(err, ErrNumericOverflow) {
		t.Fatalf("expected ErrNumericOverflow on releasing step, got %v", err)
	}
}
