package amm

import "math/bits"

// Fixed-point helpers over uint64 smallest-unit amounts. Every operation
// reports overflow instead of saturating; callers are expected to abort the
// fulfillment on ErrNumericOverflow.

const basisPointsDenom = 10_000

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrNumericOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrNumericOverflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrNumericOverflow
	}
	return lo, nil
}

// mulDiv computes a*b/den with a 128-bit intermediate, truncating the
// quotient. den must be non-zero.
func mulDiv(a, b, den uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrNumericOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// bpShare returns amount*bps/10_000, truncating.
func bpShare(amount uint64, bps uint32) (uint64, error) {
	return mulDiv(amount, uint64(bps), basisPointsDenom)
}
