package entity

import "strings"

type Symbol string

const (
	SymbolStone   Symbol = "stone"
	SymbolPaper   Symbol = "paper"
	SymbolScissor Symbol = "scissor"
)

// DefaultSymbol is played for a missing or unrecognised choice.
const DefaultSymbol = SymbolStone

// beats maps every symbol to the one it defeats.
var beats = map[Symbol]Symbol{
	SymbolStone:   SymbolScissor,
	SymbolScissor: SymbolPaper,
	SymbolPaper:   SymbolStone,
}

type Verdict int

const (
	VerdictDraw Verdict = iota
	VerdictFirst
	VerdictSecond
)

// ParseSymbol - normalizes a raw choice. Nil, empty and unknown values fall back to DefaultSymbol.
func ParseSymbol(raw *string) Symbol {
	if raw == nil {
		return DefaultSymbol
	}

	symbol := Symbol(strings.ToLower(strings.TrimSpace(*raw)))
	if !symbol.IsValid() {
		return DefaultSymbol
	}

	return symbol
}

func (that Symbol) IsValid() bool {
	_, ok := beats[that]
	return ok
}

func (that Symbol) Beats(other Symbol) bool {
	defeated, ok := beats[that]
	return ok && defeated == other
}

// Resolve - decides a single throw between two symbols.
func Resolve(first, second Symbol) Verdict {
	switch {
	case first == second:
		return VerdictDraw
	case first.Beats(second):
		return VerdictFirst
	default:
		return VerdictSecond
	}
}
