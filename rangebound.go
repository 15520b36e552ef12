package kvtx

import "cmp"

// Bound describes the lower/upper edges of a range-scan query against a
// RangeIndex. Constructor names spell out both edges: O means open
// (unbounded), I means inclusive, E means exclusive; the first letter is
// the lower bound, the second the upper bound.
type Bound[S cmp.Ordered] struct {
	hasLower, hasUpper bool
	lower, upper       S
	lowerInc, upperInc bool
}

func BoundOO[S cmp.Ordered]() Bound[S] { return Bound[S]{} }

func BoundIO[S cmp.Ordered](lo S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: true}
}

func BoundEO[S cmp.Ordered](lo S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: false}
}

func BoundOI[S cmp.Ordered](hi S) Bound[S] {
	return Bound[S]{hasUpper: true, upper: hi, upperInc: true}
}

func BoundOE[S cmp.Ordered](hi S) Bound[S] {
	return Bound[S]{hasUpper: true, upper: hi, upperInc: false}
}

func BoundII[S cmp.Ordered](lo, hi S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: true, hasUpper: true, upper: hi, upperInc: true}
}

func BoundIE[S cmp.Ordered](lo, hi S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: true, hasUpper: true, upper: hi, upperInc: false}
}

func BoundEI[S cmp.Ordered](lo, hi S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: false, hasUpper: true, upper: hi, upperInc: true}
}

func BoundEE[S cmp.Ordered](lo, hi S) Bound[S] {
	return Bound[S]{hasLower: true, lower: lo, lowerInc: false, hasUpper: true, upper: hi, upperInc: false}
}

// match reports whether s falls within the bound.
func (b Bound[S]) match(s S) bool {
	if b.hasLower {
		c := cmp.Compare(s, b.lower)
		if c < 0 || (c == 0 && !b.lowerInc) {
			return false
		}
	}
	if b.hasUpper {
		c := cmp.Compare(s, b.upper)
		if c > 0 || (c == 0 && !b.upperInc) {
			return false
		}
	}
	return true
}
