package network

import "fmt"

// CleanupStats reports what Cleanup removed.
type CleanupStats struct {
	DeadHiddens   int `json:"dead_hiddens"`
	Passthroughs  int `json:"passthroughs"`
	EdgesRemoved  int `json:"edges_removed"`
	EdgesBypassed int `json:"edges_bypassed"`
}

// Cleanup disables hidden nodes that lie on no input-to-output path and drops
// their edges. With passthroughs set, a hidden node with exactly one incoming
// and one outgoing edge is replaced by a direct edge carrying the product of
// both weights, unless that direct edge already exists.
func Cleanup(n *Network, passthroughs bool) (CleanupStats, error) {
	var stats CleanupStats
	forward, err := n.reachable(true)
	if err != nil {
		return stats, fmt.Errorf("cleanup: %w", err)
	}
	backward, err := n.reachable(false)
	if err != nil {
		return stats, fmt.Errorf("cleanup: %w", err)
	}
	for i := n.Inputs; i < n.OutputStart(); i++ {
		if n.Nodes[i].Enabled && !(forward[i] && backward[i]) {
			n.Nodes[i].Enabled = false
			stats.DeadHiddens++
		}
	}
	stats.EdgesRemoved += n.dropDisabledEdges()

	if passthroughs {
		for h := n.Inputs; h < n.OutputStart(); h++ {
			if !n.Nodes[h].Enabled {
				continue
			}
			in, out := -1, -1
			nin, nout := 0, 0
			for i, e := range n.Edges {
				if e.To == h {
					in = i
					nin++
				}
				if e.From == h {
					out = i
					nout++
				}
			}
			if nin != 1 || nout != 1 {
				continue
			}
			from, to := n.Edges[in].From, n.Edges[out].To
			if from == to || n.Connected(from, to) {
				continue
			}
			weight := n.Edges[in].Weight * n.Edges[out].Weight
			n.Nodes[h].Enabled = false
			stats.EdgesRemoved += n.dropDisabledEdges()
			// Endpoints are enabled and distinct, so Connect cannot fail.
			_ = n.Connect(from, to, weight)
			stats.Passthroughs++
			stats.EdgesBypassed++
		}
	}
	return stats, nil
}

func (n *Network) dropDisabledEdges() int {
	kept := n.Edges[:0]
	removed := 0
	for _, e := range n.Edges {
		if n.Nodes[e.From].Enabled && n.Nodes[e.To].Enabled {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	n.Edges = kept
	n.reindex()
	return removed
}
