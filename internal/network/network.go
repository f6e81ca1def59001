package network

import (
	"errors"
	"fmt"
)

var (
	ErrSelfLoop      = errors.New("self loop")
	ErrDuplicateEdge = errors.New("duplicate edge")
	ErrDisabledNode  = errors.New("edge touches a disabled node")
	ErrNodeRange     = errors.New("node index out of range")
)

// DefaultWeight is the weight of edges whose genome carries no weight gene.
const DefaultWeight = 0.5

type Kind uint8

const (
	KindInput Kind = iota
	KindHidden
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindHidden:
		return "hidden"
	case KindOutput:
		return "output"
	}
	return fmt.Sprintf("kind(%d)", k)
}

type Node struct {
	Kind    Kind    `json:"kind"`
	Enabled bool    `json:"enabled"`
	Bias    float64 `json:"bias"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Network is a decoded graph. Node indices are contiguous: inputs first, then
// hiddens, then outputs. Edges keep insertion order.
type Network struct {
	Inputs  int    `json:"inputs"`
	Hiddens int    `json:"hiddens"`
	Outputs int    `json:"outputs"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`

	index map[[2]int]int
}

// New allocates a network with every node enabled.
func New(inputs, hiddens, outputs int) *Network {
	n := &Network{
		Inputs:  inputs,
		Hiddens: hiddens,
		Outputs: outputs,
		Nodes:   make([]Node, inputs+hiddens+outputs),
		index:   make(map[[2]int]int),
	}
	for i := range n.Nodes {
		n.Nodes[i] = Node{Kind: n.KindOf(i), Enabled: true}
	}
	return n
}

func (n *Network) Size() int {
	return len(n.Nodes)
}

func (n *Network) KindOf(i int) Kind {
	switch {
	case i < n.Inputs:
		return KindInput
	case i < n.Inputs+n.Hiddens:
		return KindHidden
	}
	return KindOutput
}

// OutputStart is the index of the first output node.
func (n *Network) OutputStart() int {
	return n.Inputs + n.Hiddens
}

func (n *Network) Enable(i int, enabled bool) {
	n.Nodes[i].Enabled = enabled
}

// Connect appends the edge from->to. Self loops, repeated ordered pairs and
// edges touching disabled nodes are rejected.
func (n *Network) Connect(from, to int, weight float64) error {
	if from < 0 || from >= len(n.Nodes) || to < 0 || to >= len(n.Nodes) {
		return fmt.Errorf("%w: %d->%d with %d nodes", ErrNodeRange, from, to, len(n.Nodes))
	}
	if from == to {
		return fmt.Errorf("%w: node %d", ErrSelfLoop, from)
	}
	if !n.Nodes[from].Enabled || !n.Nodes[to].Enabled {
		return fmt.Errorf("%w: %d->%d", ErrDisabledNode, from, to)
	}
	n.ensureIndex()
	key := [2]int{from, to}
	if _, ok := n.index[key]; ok {
		return fmt.Errorf("%w: %d->%d", ErrDuplicateEdge, from, to)
	}
	n.index[key] = len(n.Edges)
	n.Edges = append(n.Edges, Edge{From: from, To: to, Weight: weight})
	return nil
}

func (n *Network) Connected(from, to int) bool {
	n.ensureIndex()
	_, ok := n.index[[2]int{from, to}]
	return ok
}

// EnabledCount counts enabled nodes of one kind.
func (n *Network) EnabledCount(k Kind) int {
	count := 0
	for i, node := range n.Nodes {
		if node.Enabled && n.KindOf(i) == k {
			count++
		}
	}
	return count
}

// Incoming counts edges ending at node i.
func (n *Network) Incoming(i int) int {
	count := 0
	for _, e := range n.Edges {
		if e.To == i {
			count++
		}
	}
	return count
}

// OutputFanIn counts edges that end in an output node.
func (n *Network) OutputFanIn() int {
	count := 0
	start := n.OutputStart()
	for _, e := range n.Edges {
		if e.To >= start {
			count++
		}
	}
	return count
}

// Validate checks the structural contract every decoder must honour.
func (n *Network) Validate() error {
	if n.Inputs < 0 || n.Hiddens < 0 || n.Outputs < 0 {
		return fmt.Errorf("negative node counts %d/%d/%d", n.Inputs, n.Hiddens, n.Outputs)
	}
	if len(n.Nodes) != n.Inputs+n.Hiddens+n.Outputs {
		return fmt.Errorf("node count %d does not match %d+%d+%d", len(n.Nodes), n.Inputs, n.Hiddens, n.Outputs)
	}
	for i, node := range n.Nodes {
		if node.Kind != n.KindOf(i) {
			return fmt.Errorf("node %d is %s, expected %s", i, node.Kind, n.KindOf(i))
		}
	}
	seen := make(map[[2]int]struct{}, len(n.Edges))
	for _, e := range n.Edges {
		if e.From < 0 || e.From >= len(n.Nodes) || e.To < 0 || e.To >= len(n.Nodes) {
			return fmt.Errorf("%w: %d->%d", ErrNodeRange, e.From, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: node %d", ErrSelfLoop, e.From)
		}
		if !n.Nodes[e.From].Enabled || !n.Nodes[e.To].Enabled {
			return fmt.Errorf("%w: %d->%d", ErrDisabledNode, e.From, e.To)
		}
		key := [2]int{e.From, e.To}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %d->%d", ErrDuplicateEdge, e.From, e.To)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy.
func (n *Network) Clone() *Network {
	out := &Network{
		Inputs:  n.Inputs,
		Hiddens: n.Hiddens,
		Outputs: n.Outputs,
		Nodes:   append([]Node(nil), n.Nodes...),
		Edges:   append([]Edge(nil), n.Edges...),
	}
	out.reindex()
	return out
}

func (n *Network) ensureIndex() {
	if n.index == nil || len(n.index) != len(n.Edges) {
		n.reindex()
	}
}

func (n *Network) reindex() {
	n.index = make(map[[2]int]int, len(n.Edges))
	for i, e := range n.Edges {
		n.index[[2]int{e.From, e.To}] = i
	}
}
