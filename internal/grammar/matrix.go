package grammar

import (
	"strings"

	"morphogen/internal/network"
)

// Matrix is a square symbol matrix.
type Matrix struct {
	N     int
	cells []Symbol
}

// NewMatrix returns an n x n matrix of zeros.
func NewMatrix(n int) Matrix {
	return Matrix{N: n, cells: make([]Symbol, n*n)}
}

// Axiom is the 1x1 matrix holding the start symbol.
func Axiom() Matrix {
	m := NewMatrix(1)
	m.cells[0] = Start
	return m
}

func (m Matrix) At(i, j int) Symbol {
	return m.cells[i*m.N+j]
}

// Set stores s at (i, j). Matrices share storage with their copies by value;
// use Clone before writing to one that is still in use.
func (m Matrix) Set(i, j int, s Symbol) {
	m.cells[i*m.N+j] = s
}

func (m Matrix) Clone() Matrix {
	return Matrix{N: m.N, cells: append([]Symbol(nil), m.cells...)}
}

// Expand rewrites m depth times and resolves the final markers. Every level
// allocates a fresh matrix of twice the dimension; m is never modified.
func Expand(m Matrix, r *Rules, depth int) Matrix {
	if depth <= 0 {
		return resolve(m)
	}
	next := NewMatrix(m.N * 2)
	for i := 0; i < m.N; i++ {
		for j := 0; j < m.N; j++ {
			sub := r.Expansion(m.At(i, j))
			next.Set(2*i, 2*j, sub[0])
			next.Set(2*i+1, 2*j, sub[1])
			next.Set(2*i, 2*j+1, sub[2])
			next.Set(2*i+1, 2*j+1, sub[3])
		}
	}
	return Expand(next, r, depth-1)
}

// resolve maps final markers to 0 and 1, keeps Void and turns anything else
// into Unresolved.
func resolve(m Matrix) Matrix {
	out := NewMatrix(m.N)
	for i, s := range m.cells {
		switch s {
		case FinalOne:
			out.cells[i] = 1
		case FinalZero:
			out.cells[i] = 0
		case Void:
			out.cells[i] = Void
		default:
			out.cells[i] = Unresolved
		}
	}
	return out
}

// Decode expands the axiom iterations times.
func Decode(r *Rules, iterations int) Matrix {
	return Expand(Axiom(), r, iterations)
}

// Density is the share of ones over the candidate connections: rows before
// the outputs, columns after the row and never into an input.
func Density(m Matrix, inputs, outputs int) float64 {
	conns, total := 0, 0
	for i := 0; i < m.N-outputs; i++ {
		start := inputs
		if i >= inputs {
			start = i + 1
		}
		for j := start; j < m.N; j++ {
			total++
			if m.At(i, j) == 1 {
				conns++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(conns) / float64(total)
}

// ForceOutputs returns a copy of m whose trailing outputs diagonal entries
// are 1.
func ForceOutputs(m Matrix, outputs int) Matrix {
	out := m.Clone()
	for i := m.N - outputs; i < m.N; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// Assemble builds the network a resolved matrix describes. The diagonal
// says whether a unit exists; any unit without a 1 there, inputs included,
// is disabled.
// Edge i->j exists for i<j, j past the inputs, both diagonals 1 and
// m[i][j] == 1. Hidden and output nodes are laid out left to right.
func Assemble(m Matrix, inputs, outputs int) *network.Network {
	hiddens := m.N - inputs - outputs
	if hiddens < 0 {
		network.Invariant("grammar.Assemble", "matrix %d too small for %d+%d units", m.N, inputs, outputs)
	}
	net := network.New(inputs, hiddens, outputs)
	alive := func(i int) bool { return m.At(i, i) == 1 }
	for i := 0; i < m.N; i++ {
		if i >= inputs {
			span := float64(hiddens)
			if span == 0 {
				span = 1
			}
			net.Nodes[i].X = float64(i-inputs)/span*10 + 5
		}
		if !alive(i) {
			net.Enable(i, false)
		}
	}
	for i := 0; i < m.N; i++ {
		if !alive(i) {
			continue
		}
		for j := max(inputs, i+1); j < m.N; j++ {
			if alive(j) && m.At(i, j) == 1 {
				if err := net.Connect(i, j, network.DefaultWeight); err != nil {
					network.Invariant("grammar.Assemble", "%v", err)
				}
			}
		}
	}
	return net
}

// String draws the matrix one row per line: 0, 1, ' ' for void and 'x' for
// unresolved.
func (m Matrix) String() string {
	var b strings.Builder
	b.Grow(m.N * (m.N + 1))
	for i := 0; i < m.N; i++ {
		for j := 0; j < m.N; j++ {
			switch m.At(i, j) {
			case 0:
				b.WriteByte('0')
			case 1:
				b.WriteByte('1')
			case Void:
				b.WriteByte(' ')
			case Unresolved:
				b.WriteByte('x')
			default:
				b.WriteByte('?')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Rows returns the matrix as nested slices, for serialisation.
func (m Matrix) Rows() [][]int {
	rows := make([][]int, m.N)
	for i := range rows {
		rows[i] = make([]int, m.N)
		for j := range rows[i] {
			rows[i][j] = int(m.At(i, j))
		}
	}
	return rows
}
