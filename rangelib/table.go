package rangelib

import "sort"

// RangeTable is an immutable sequence of ranges sorted by Start where
// no two ranges overlap. Use BuildTable to get one. A nil or empty
// table is valid: it never matches anything.
//
// RangeTable is safe for concurrent use.
type RangeTable struct {
	ranges []IPRange
}

// Len returns a number of ranges in the table.
func (t *RangeTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.ranges)
}

// Locate finds a range which contains given ip.
//
// This is a binary search with 3-way comparator: go left if ip is
// before a range start, go right if ip is after a range end, stop
// otherwise. It relies on table invariants only, nothing is verified
// here.
func (t *RangeTable) Locate(ip uint32) (IPRange, bool) {
	if t == nil {
		return IPRange{}, false
	}

	left, right := 0, len(t.ranges)

	for left < right {
		middle := int(uint(left+right) >> 1)
		current := &t.ranges[middle]

		switch {
		case ip < current.Start:
			right = middle
		case ip > current.End:
			left = middle + 1
		default:
			return *current, true
		}
	}

	return IPRange{}, false
}

// Ranges returns a copy of all ranges in the table.
func (t *RangeTable) Ranges() []IPRange {
	if t == nil {
		return []IPRange{}
	}

	rv := make([]IPRange, len(t.ranges))
	copy(rv, t.ranges)

	return rv
}

// Countries returns a sorted list of distinct country values found in
// the table.
func (t *RangeTable) Countries() []string {
	seen := map[string]struct{}{}

	if t != nil {
		for i := range t.ranges {
			seen[t.ranges[i].Country] = struct{}{}
		}
	}

	rv := make([]string, 0, len(seen))

	for k := range seen {
		rv = append(rv, k)
	}

	sort.Strings(rv)

	return rv
}
