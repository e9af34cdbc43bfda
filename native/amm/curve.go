package amm

import "fmt"

// TotalPriceAndNextPrice evaluates the pool's pricing curve for a trade of
// amount units starting at the current spot price. absorbing prices a trade
// that adds to sellside inventory, walking the quote down; the complementary
// direction walks it up. The function is pure: the caller persists the
// returned next spot price.
//
// Absorbing quotes start at the spot price itself; releasing quotes start one
// curve step above it.
func TotalPriceAndNextPrice(pool *Pool, amount uint64, absorbing bool) (uint64, uint64, error) {
	if pool == nil {
		return 0, 0, fmt.Errorf("amm: nil pool")
	}
	if amount == 0 {
		return 0, 0, ErrInvalidRequestedPrice
	}
	switch pool.CurveType {
	case CurveLinear:
		return linearQuote(pool.SpotPrice, pool.CurveDelta, amount, absorbing)
	case CurveExponential:
		return expQuote(pool.SpotPrice, pool.CurveDelta, amount, absorbing)
	default:
		return 0, 0, fmt.Errorf("amm: unsupported curve type %d", pool.CurveType)
	}
}

// triangle returns n*(n+1)/2 with overflow detection.
func triangle(n uint64) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n%2 == 0 {
		return checkedMul(n/2, n+1)
	}
	return checkedMul((n+1)/2, n)
}

func linearQuote(spot, delta, n uint64, absorbing bool) (uint64, uint64, error) {
	step, err := checkedMul(delta, n)
	if err != nil {
		return 0, 0, err
	}
	gross, err := checkedMul(n, spot)
	if err != nil {
		return 0, 0, err
	}
	if absorbing {
		next, err := checkedSub(spot, step)
		if err != nil {
			return 0, 0, err
		}
		tri, err := triangle(n - 1)
		if err != nil {
			return 0, 0, err
		}
		discount, err := checkedMul(delta, tri)
		if err != nil {
			return 0, 0, err
		}
		total, err := checkedSub(gross, discount)
		if err != nil {
			return 0, 0, err
		}
		return total, next, nil
	}
	next, err := checkedAdd(spot, step)
	if err != nil {
		return 0, 0, err
	}
	tri, err := triangle(n)
	if err != nil {
		return 0, 0, err
	}
	premium, err := checkedMul(delta, tri)
	if err != nil {
		return 0, 0, err
	}
	total, err := checkedAdd(gross, premium)
	if err != nil {
		return 0, 0, err
	}
	return total, next, nil
}

func expQuote(spot, delta, n uint64, absorbing bool) (uint64, uint64, error) {
	if delta == 0 {
		total, err := checkedMul(spot, n)
		if err != nil {
			return 0, 0, err
		}
		return total, spot, nil
	}
	den, err := checkedAdd(basisPointsDenom, delta)
	if err != nil {
		return 0, 0, err
	}
	var total uint64
	curr := spot
	for i := uint64(0); i < n; i++ {
		if absorbing {
			total, err = checkedAdd(total, curr)
			if err != nil {
				return 0, 0, err
			}
			curr, err = mulDiv(curr, basisPointsDenom, den)
			if err != nil {
				return 0, 0, err
			}
			if curr == 0 {
				break
			}
		} else {
			curr, err = mulDiv(curr, den, basisPointsDenom)
			if err != nil {
				return 0, 0, err
			}
			total, err = checkedAdd(total, curr)
			if err != nil {
				return 0, 0, err
			}
		}
	}
	return total, curr, nil
}
