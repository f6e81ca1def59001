// Package render draws decode results: axon geometry and networks as SVG,
// connection matrices as text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"morphogen/internal/cellspace"
	"morphogen/internal/grammar"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

// Frame is the square drawing area of a cell space in wiring coordinates.
type Frame struct {
	Size         float64
	InputBorder  float64
	OutputBorder float64
}

// FrameFor returns the frame of the spatial encodings configured by p.
func FrameFor(p params.Params) Frame {
	return Frame{Size: float64(p.YSize), InputBorder: p.InputBorder, OutputBorder: p.OutputBorder}
}

const (
	margin     = 1.0
	bodyRadius = 0.3
)

var classColors = map[string]string{
	"input":  "#2b7bb9",
	"hidden": "#4d4d4d",
	"output": "#c0392b",
	"none":   "#aaaaaa",
}

// Cells writes one SVG document with the zone borders, every cell body, its
// axon tree and the reach of its tips.
func Cells(w io.Writer, frame Frame, cells []cellspace.CellGeometry) error {
	bw := bufio.NewWriter(w)
	lo, hi := -margin, frame.Size+2*margin
	header(bw, lo, hi)
	for _, border := range []float64{frame.InputBorder, frame.OutputBorder} {
		x := border * frame.Size
		fmt.Fprintf(bw, `<line class="border" x1="%s" y1="0" x2="%s" y2="%s" stroke="#dddddd" stroke-dasharray="0.4"/>`+"\n",
			num(x), num(x), num(frame.Size))
	}
	fmt.Fprintf(bw, `<rect x="0" y="0" width="%s" height="%s" fill="none" stroke="#999999"/>`+"\n", num(frame.Size), num(frame.Size))
	for _, c := range cells {
		color := classColors[c.Class]
		if color == "" {
			color = classColors["none"]
		}
		fmt.Fprintf(bw, `<g class="cell" data-cell="%d" data-index="%d">`+"\n", c.Cell, c.Index)
		for _, s := range c.Segments {
			fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
				num(s.From.X), num(s.From.Y), num(s.To.X), num(s.To.Y), color)
		}
		for _, tip := range c.Tips {
			fmt.Fprintf(bw, `<circle class="tip" cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-opacity="0.2"/>`+"\n",
				num(tip.X), num(tip.Y), num(c.Radius), color)
		}
		fmt.Fprintf(bw, `<circle class="body" cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
			num(c.Body.X), num(c.Body.Y), num(bodyRadius), color)
		fmt.Fprintf(bw, "</g>\n")
	}
	fmt.Fprintf(bw, "</svg>\n")
	return bw.Flush()
}

// Network writes an SVG document with one circle per node at its decoded
// position and one line per edge. Disabled nodes are drawn hollow; negative
// weights are dashed.
func Network(w io.Writer, net *network.Network) error {
	bw := bufio.NewWriter(w)
	maxX, maxY := 1.0, 1.0
	for _, n := range net.Nodes {
		maxX = math.Max(maxX, n.X)
		maxY = math.Max(maxY, n.Y)
	}
	header(bw, -margin, math.Max(maxX, maxY)+2*margin)
	for _, e := range net.Edges {
		from, to := net.Nodes[e.From], net.Nodes[e.To]
		dash := ""
		if e.Weight < 0 {
			dash = ` stroke-dasharray="0.3"`
		}
		fmt.Fprintf(bw, `<line class="edge" data-from="%d" data-to="%d" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#333333" stroke-width="%s"%s/>`+"\n",
			e.From, e.To, num(from.X), num(from.Y), num(to.X), num(to.Y), num(0.05+0.15*math.Min(math.Abs(e.Weight), 1)), dash)
	}
	for i, n := range net.Nodes {
		color := classColors[n.Kind.String()]
		fill := color
		if !n.Enabled {
			fill = "none"
		}
		fmt.Fprintf(bw, `<circle class="node" data-index="%d" cx="%s" cy="%s" r="%s" fill="%s" stroke="%s"/>`+"\n",
			i, num(n.X), num(n.Y), num(bodyRadius), fill, color)
	}
	fmt.Fprintf(bw, "</svg>\n")
	return bw.Flush()
}

// Matrix writes the text picture of a connection matrix.
func Matrix(w io.Writer, m grammar.Matrix) error {
	_, err := io.WriteString(w, m.String())
	return err
}

func header(w io.Writer, lo, size float64) {
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" stroke-width="0.05">`+"\n",
		num(lo), num(lo), num(size), num(size))
}

func num(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
