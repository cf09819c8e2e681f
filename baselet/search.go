package baselet

import "cmp"

// findIndex runs a binary search for target over items[start:end], which
// must be sorted ascending by key.
//
// When several items share target, findLast selects the last occurrence
// instead of the first one. When target is missing, found is false and index
// is the insertion point that keeps items sorted.
func findIndex[T any, K cmp.Ordered](
	items []T,
	target K,
	key func(T) K,
	start, end int,
	findLast bool,
) (found bool, index int) {
	lo, hi := start, end
	match := -1
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch c := cmp.Compare(key(items[mid]), target); {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			match = mid
			if findLast {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
	}
	if match >= 0 {
		return true, match
	}
	return false, lo
}
