package domain

import (
	"strconv"
	"strings"
)

// Delta is the signed per-symbol change between two multisets.
type Delta [NumSymbols]int64

// Diff computes new - old for every symbol. Counts above math.MaxInt64 are
// clamped, which only matters for runs that are about to overflow anyway.
func Diff(old, new Multiset) Delta {
	var d Delta
	for i := range d {
		d[i] = clamp(new[i]) - clamp(old[i])
	}
	return d
}

// IsZero reports whether nothing changed.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// String renders the changed symbols, e.g. "a-2 b+1". Unchanged symbols are
// omitted; an empty delta renders as "".
func (d Delta) String() string {
	var parts []string
	for i, n := range d {
		if n == 0 {
			continue
		}
		sign := "+"
		if n < 0 {
			sign = ""
		}
		parts = append(parts, Symbol(i).String()+sign+strconv.FormatInt(n, 10))
	}
	return strings.Join(parts, " ")
}

func clamp(n uint64) int64 {
	const max = 1<<63 - 1
	if n > max {
		return max
	}
	return int64(n)
}
