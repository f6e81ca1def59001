// Package grammar decodes a connectivity matrix by rewriting a start symbol
// with a 2x2 matrix grammar.
package grammar

import (
	"fmt"

	"morphogen/internal/genome"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

// Symbol is a grammar symbol. 0..15 are terminals, 16 and up nonterminals;
// negative values are markers that rewrite to themselves.
type Symbol int

const (
	Void       Symbol = -1
	FinalZero  Symbol = -2
	FinalOne   Symbol = -3
	Unresolved Symbol = -4
)

const (
	// Terminals is the number of terminal symbols.
	Terminals = 16
	// Start is the first nonterminal and the axiom.
	Start Symbol = Terminals
)

func (s Symbol) Terminal() bool    { return s >= 0 && s < Terminals }
func (s Symbol) NonTerminal() bool { return s >= Terminals }
func (s Symbol) Marker() bool      { return s < 0 }

// Rules maps every symbol to its 2x2 expansion, listed in sub-position
// order (2i,2j), (2i+1,2j), (2i,2j+1), (2i+1,2j+1).
type Rules struct {
	rhs [][4]Symbol
}

// NewRules builds a rule set with nonTerminals undefined nonterminals. Each
// terminal t expands to the bits of t as final markers; undefined
// nonterminals expand to Void.
func NewRules(nonTerminals int) *Rules {
	r := &Rules{rhs: make([][4]Symbol, Terminals+nonTerminals)}
	for t := 0; t < Terminals; t++ {
		for j := 0; j < 4; j++ {
			if t&(1<<j) != 0 {
				r.rhs[t][j] = FinalOne
			} else {
				r.rhs[t][j] = FinalZero
			}
		}
	}
	for n := Terminals; n < len(r.rhs); n++ {
		r.rhs[n] = [4]Symbol{Void, Void, Void, Void}
	}
	return r
}

func (r *Rules) NonTerminals() int {
	return len(r.rhs) - Terminals
}

// Set defines the production of nonterminal lhs, replacing any earlier one.
func (r *Rules) Set(lhs Symbol, rhs [4]Symbol) error {
	if !lhs.NonTerminal() || int(lhs) >= len(r.rhs) {
		return fmt.Errorf("grammar: %d is not a nonterminal", lhs)
	}
	for _, s := range rhs {
		if s < 0 || int(s) >= len(r.rhs) {
			return fmt.Errorf("grammar: right-hand symbol %d out of range", s)
		}
	}
	r.rhs[lhs] = rhs
	return nil
}

// Expansion returns the 2x2 block that s rewrites to.
func (r *Rules) Expansion(s Symbol) [4]Symbol {
	if s.Marker() {
		return [4]Symbol{s, s, s, s}
	}
	if int(s) >= len(r.rhs) {
		network.Invariant("grammar.Expansion", "symbol %d has no rule", s)
	}
	return r.rhs[s]
}

// Layout returns the genome layout of a grammar genome: p.Rules production
// records with a left-hand nonterminal and four right-hand symbols.
func Layout(p params.Params) *genome.Layout {
	fields := []genome.FieldSpec{genome.Int(genome.FieldLHS, int(Start), int(Start)+p.NonTerminals-1)}
	for i := 0; i < 4; i++ {
		fields = append(fields, genome.Int(genome.RHS(i), 0, Terminals+p.NonTerminals-1))
	}
	return genome.MustLayout(genome.BlockSpec{Block: genome.BlockProductions, Records: p.Rules, Fields: fields})
}

// DecodeRules reads the production records of g in order. The first
// record always defines the start symbol; a later record with the same
// left-hand side overrides an earlier one.
func DecodeRules(g *genome.Genome, nonTerminals int) *Rules {
	r := NewRules(nonTerminals)
	n := g.Layout().Records(genome.BlockProductions)
	for i := 0; i < n; i++ {
		lhs := Symbol(g.Int(genome.BlockProductions, i, genome.FieldLHS))
		if i == 0 {
			lhs = Start
		}
		var rhs [4]Symbol
		for j := range rhs {
			rhs[j] = Symbol(g.Int(genome.BlockProductions, i, genome.RHS(j)))
		}
		if err := r.Set(lhs, rhs); err != nil {
			network.Invariant("grammar.DecodeRules", "record %d: %v", i, err)
		}
	}
	return r
}
