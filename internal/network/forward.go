package network

import (
	"errors"
	"fmt"
)

var ErrNotFeedForward = errors.New("network is not feed-forward")

// Forward evaluates an acyclic network in topological order. Input nodes take
// their values unchanged; every other enabled node applies activation to
// bias plus weighted inputs. Disabled nodes stay at zero. It returns the
// output node values.
func Forward(n *Network, inputs []float64, activation string) ([]float64, error) {
	if len(inputs) != n.Inputs {
		return nil, fmt.Errorf("forward: got %d inputs, network has %d", len(inputs), n.Inputs)
	}
	fn, err := Activation(activation)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	order, err := n.Order()
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}

	incoming := make([][]Edge, len(n.Nodes))
	for _, e := range n.Edges {
		incoming[e.To] = append(incoming[e.To], e)
	}

	values := make([]float64, len(n.Nodes))
	for _, i := range order {
		if i < n.Inputs {
			values[i] = inputs[i]
			continue
		}
		total := n.Nodes[i].Bias
		for _, e := range incoming[i] {
			total += values[e.From] * e.Weight
		}
		values[i] = fn(total)
	}
	return append([]float64(nil), values[n.OutputStart():]...), nil
}
