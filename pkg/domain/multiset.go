package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Multiset maps every Symbol to a non-negative count.
// It is a value type: all operations return a new Multiset and never
// modify the receiver.
type Multiset [NumSymbols]uint64

// NewMultiset counts the alphabet letters of s, ignoring case and any other
// character. It is mostly a convenience for tests and literals.
func NewMultiset(s string) Multiset {
	var m Multiset
	for _, r := range s {
		if sym, _, ok := ParseSymbol(r); ok {
			m[sym]++
		}
	}
	return m
}

// Count returns the multiplicity of s.
func (m Multiset) Count(s Symbol) uint64 {
	return m[s]
}

// Size returns the total number of symbols, saturating at math.MaxUint64.
func (m Multiset) Size() uint64 {
	var total uint64
	for _, n := range m {
		sum, carry := bits.Add64(total, n, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// IsEmpty reports whether every count is zero.
func (m Multiset) IsEmpty() bool {
	return m == Multiset{}
}

// Equal reports whether m and o hold the same counts.
func (m Multiset) Equal(o Multiset) bool {
	return m == o
}

// Contains reports whether m[s] >= o[s] for every symbol.
// It is reflexive, and every multiset contains the empty one.
func (m Multiset) Contains(o Multiset) bool {
	for i := range m {
		if m[i] < o[i] {
			return false
		}
	}
	return true
}

// Sub returns m - o. The caller must ensure m.Contains(o).
func (m Multiset) Sub(o Multiset) Multiset {
	for i := range m {
		m[i] -= o[i]
	}
	return m
}

// Add returns m + o. Counts wrap on overflow; use AddChecked where
// the operands are not known to be small.
func (m Multiset) Add(o Multiset) Multiset {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

// AddChecked returns m + o, with ok false if any count overflows.
func (m Multiset) AddChecked(o Multiset) (Multiset, bool) {
	for i := range m {
		sum, carry := bits.Add64(m[i], o[i], 0)
		if carry != 0 {
			return m, false
		}
		m[i] = sum
	}
	return m, true
}

// Scale returns n·m, with ok false if any count overflows.
func (m Multiset) Scale(n uint64) (Multiset, bool) {
	for i := range m {
		hi, lo := bits.Mul64(m[i], n)
		if hi != 0 {
			return m, false
		}
		m[i] = lo
	}
	return m, true
}

// Fits returns the largest n such that m contains n·o.
// An empty o fits zero times.
func (m Multiset) Fits(o Multiset) uint64 {
	if o.IsEmpty() {
		return 0
	}
	n := uint64(math.MaxUint64)
	for i := range m {
		if o[i] == 0 {
			continue
		}
		if q := m[i] / o[i]; q < n {
			n = q
		}
	}
	return n
}

// String renders m as its elements, in alphabetical order, each symbol
// repeated by its count.
func (m Multiset) String() string {
	var b strings.Builder
	for i, n := range m {
		for ; n > 0; n-- {
			b.WriteByte(Alphabet[i])
		}
	}
	return b.String()
}

// Counts returns the non-zero counts keyed by lowercase letter.
func (m Multiset) Counts() map[string]uint64 {
	out := make(map[string]uint64, NumSymbols)
	for i, n := range m {
		if n > 0 {
			out[Symbol(i).String()] = n
		}
	}
	return out
}

// MarshalJSON encodes m as an object of its non-zero counts.
func (m Multiset) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Counts())
}

// UnmarshalJSON decodes the object form produced by MarshalJSON.
func (m *Multiset) UnmarshalJSON(data []byte) error {
	var counts map[string]uint64
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	*m = Multiset{}
	for key, n := range counts {
		r := []rune(key)
		if len(r) != 1 {
			return fmt.Errorf("invalid symbol %q", key)
		}
		sym, _, ok := ParseSymbol(r[0])
		if !ok {
			return fmt.Errorf("invalid symbol %q", key)
		}
		m[sym] = n
	}
	return nil
}
