// Package neatnet hands decoded networks to goNEAT, so NEAT-based
// evaluators and evolvers can run and further mutate them.
package neatnet

import (
	"errors"
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	neatnetwork "github.com/yaricom/goNEAT/v4/neat/network"

	"morphogen/internal/network"
)

var ErrUnsupportedActivation = errors.New("activation has no goNEAT counterpart")

var activations = map[string]neatmath.NodeActivationType{
	"identity": neatmath.LinearActivation,
	"sigmoid":  neatmath.SigmoidPlainActivation,
	"tanh":     neatmath.TanhActivation,
	"step":     neatmath.StepActivation,
}

// Genome converts net into a goNEAT genome. Input and output nodes are
// always kept so the sensor and output vectors line up with net; disabled
// hidden nodes are dropped. Every kept hidden and output node gets a link
// from one bias neuron carrying its bias, zero included, so each neuron has
// an active source. Link innovation numbers follow edge order, starting at 1.
func Genome(id int, net *network.Network, activation string) (*genetics.Genome, error) {
	act, ok := activations[activation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedActivation, activation)
	}

	nodes := make([]*neatnetwork.NNode, 0, len(net.Nodes)+1)
	byIndex := make([]*neatnetwork.NNode, len(net.Nodes))
	for i, n := range net.Nodes {
		var node *neatnetwork.NNode
		switch net.KindOf(i) {
		case network.KindInput:
			node = neatnetwork.NewNNode(i+1, neatnetwork.InputNeuron)
			node.ActivationType = neatmath.LinearActivation
		case network.KindHidden:
			if !n.Enabled {
				continue
			}
			node = neatnetwork.NewNNode(i+1, neatnetwork.HiddenNeuron)
			node.ActivationType = act
		default:
			node = neatnetwork.NewNNode(i+1, neatnetwork.OutputNeuron)
			node.ActivationType = act
		}
		byIndex[i] = node
		nodes = append(nodes, node)
	}

	recurrent := recurrence(net)
	genes := make([]*genetics.Gene, 0, len(net.Edges)+len(net.Nodes))
	innovation := int64(1)
	for _, e := range net.Edges {
		from, to := byIndex[e.From], byIndex[e.To]
		if from == nil || to == nil {
			continue
		}
		genes = append(genes, genetics.NewGeneWithTrait(nil, e.Weight, from, to, recurrent(e), innovation, 0))
		innovation++
	}

	if biased(net) {
		bias := neatnetwork.NewNNode(len(net.Nodes)+1, neatnetwork.BiasNeuron)
		bias.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, bias)
		for i := net.Inputs; i < len(net.Nodes); i++ {
			if byIndex[i] == nil {
				continue
			}
			genes = append(genes, genetics.NewGeneWithTrait(nil, net.Nodes[i].Bias, bias, byIndex[i], false, innovation, 0))
			innovation++
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes), nil
}

// biased reports whether Genome adds a bias neuron: any output, or any
// enabled hidden, needs one.
func biased(net *network.Network) bool {
	if net.Outputs > 0 {
		return true
	}
	for i := net.Inputs; i < net.OutputStart(); i++ {
		if net.Nodes[i].Enabled {
			return true
		}
	}
	return false
}

// recurrence marks the links that close a cycle. An acyclic network has none;
// otherwise index order stands in for topological order.
func recurrence(net *network.Network) func(network.Edge) bool {
	order, err := net.Order()
	if err != nil {
		return func(e network.Edge) bool { return e.To <= e.From }
	}
	pos := make(map[int]int, len(order))
	for p, i := range order {
		pos[i] = p
	}
	return func(e network.Edge) bool { return pos[e.To] <= pos[e.From] }
}

// Phenotype builds the runnable goNEAT network for net.
func Phenotype(id int, net *network.Network, activation string) (*neatnetwork.Network, error) {
	g, err := Genome(id, net, activation)
	if err != nil {
		return nil, err
	}
	phenotype, err := g.Genesis(id)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return phenotype, nil
}

// Activate runs net once on inputs through goNEAT, stepping as deep as the
// network is, and returns the output values.
func Activate(net *network.Network, inputs []float64, activation string) ([]float64, error) {
	if len(inputs) != net.Inputs {
		return nil, fmt.Errorf("activate: got %d inputs, network has %d", len(inputs), net.Inputs)
	}

	phenotype, err := Phenotype(1, net, activation)
	if err != nil {
		return nil, err
	}
	sensors := append([]float64(nil), inputs...)
	if biased(net) {
		sensors = append(sensors, 1)
	}
	if err := phenotype.LoadSensors(sensors); err != nil {
		return nil, fmt.Errorf("load sensors: %w", err)
	}

	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = net.Size()
	}
	for i := 0; i < depth; i++ {
		if _, err := phenotype.Activate(); err != nil {
			return nil, fmt.Errorf("activation step %d: %w", i, err)
		}
	}
	outputs := append([]float64(nil), phenotype.ReadOutputs()...)
	if _, err := phenotype.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return outputs, nil
}
