package domain

// Symbol is one of the five objects a membrane can hold.
type Symbol uint8

const (
	SymbolA Symbol = iota
	SymbolB
	SymbolC
	SymbolD
	SymbolE
)

// NumSymbols is the size of the alphabet.
const NumSymbols = 5

// Alphabet lists the symbols in canonical (output) order.
const Alphabet = "abcde"

// Direction tells whether a letter in a rule token is consumed or produced.
type Direction uint8

const (
	Outgoing Direction = iota // lowercase letter
	Incoming                  // uppercase letter
)

// ParseSymbol maps a letter of the alphabet (either case) to its Symbol.
// The returned Direction reflects the letter's case. ok is false for any
// other rune.
func ParseSymbol(r rune) (s Symbol, dir Direction, ok bool) {
	switch {
	case r >= 'a' && r <= 'e':
		return Symbol(r - 'a'), Outgoing, true
	case r >= 'A' && r <= 'E':
		return Symbol(r - 'A'), Incoming, true
	}
	return 0, Outgoing, false
}

// Rune returns the lowercase letter for s.
func (s Symbol) Rune() rune {
	return rune(Alphabet[s])
}

// String implements fmt.Stringer.
func (s Symbol) String() string {
	return string(s.Rune())
}
