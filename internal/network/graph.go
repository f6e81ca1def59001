package network

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// rootID names the virtual vertex that links to every traversal seed. It
// never parses as a node index.
const rootID = "root"

func vertexID(i int) string {
	return strconv.Itoa(i)
}

// graph mirrors the enabled nodes and the edges between them as a directed,
// unweighted lvlath graph. With reversed set every edge points back to its
// source.
func (n *Network) graph(reversed bool) (*core.Graph, error) {
	g := core.NewGraph(core.WithDirected(true))
	for i, node := range n.Nodes {
		if !node.Enabled {
			continue
		}
		if err := g.AddVertex(vertexID(i)); err != nil {
			return nil, fmt.Errorf("graph vertex %d: %w", i, err)
		}
	}
	for _, e := range n.Edges {
		if e.From < 0 || e.From >= len(n.Nodes) || e.To < 0 || e.To >= len(n.Nodes) {
			return nil, fmt.Errorf("%w: %d->%d", ErrNodeRange, e.From, e.To)
		}
		if !n.Nodes[e.From].Enabled || !n.Nodes[e.To].Enabled {
			continue
		}
		from, to := e.From, e.To
		if reversed {
			from, to = to, from
		}
		if _, err := g.AddEdge(vertexID(from), vertexID(to), 0); err != nil {
			return nil, fmt.Errorf("graph edge %d->%d: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// reachable marks the nodes reachable from enabled inputs (forward) or, along
// reversed edges, from enabled outputs.
func (n *Network) reachable(forward bool) ([]bool, error) {
	g, err := n.graph(!forward)
	if err != nil {
		return nil, err
	}
	if err := g.AddVertex(rootID); err != nil {
		return nil, err
	}
	for i, node := range n.Nodes {
		if !node.Enabled {
			continue
		}
		if (forward && i < n.Inputs) || (!forward && i >= n.OutputStart()) {
			if _, err := g.AddEdge(rootID, vertexID(i), 0); err != nil {
				return nil, fmt.Errorf("seed %d: %w", i, err)
			}
		}
	}

	res, err := bfs.BFS(g, rootID)
	if err != nil {
		return nil, fmt.Errorf("reachability: %w", err)
	}
	seen := make([]bool, len(n.Nodes))
	for _, id := range res.Order {
		if id == rootID {
			continue
		}
		i, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("reachability: vertex %q: %w", id, err)
		}
		seen[i] = true
	}
	return seen, nil
}

// Order returns the enabled nodes in an order where every edge runs from an
// earlier node to a later one. A cycle yields ErrNotFeedForward.
func (n *Network) Order() ([]int, error) {
	g, err := n.graph(false)
	if err != nil {
		return nil, err
	}
	ids, err := dfs.TopologicalSort(g)
	if errors.Is(err, dfs.ErrCycleDetected) {
		return nil, fmt.Errorf("%w: %v", ErrNotFeedForward, err)
	}
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	order := make([]int, 0, len(ids))
	for _, id := range ids {
		i, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("order: vertex %q: %w", id, err)
		}
		order = append(order, i)
	}
	return order, nil
}

// FeedForward reports whether the enabled part of the network is acyclic.
func (n *Network) FeedForward() bool {
	_, err := n.Order()
	return err == nil
}
