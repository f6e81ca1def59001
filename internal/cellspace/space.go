package cellspace

import (
	"math"

	"morphogen/internal/network"
	"morphogen/internal/params"
)

// Space owns a set of cells and the geometry they are classified against.
type Space struct {
	Cells        []Cell
	XSize        float64
	YSize        float64
	InputBorder  float64
	OutputBorder float64
	AxonScale    float64

	scaled bool
}

// New copies cells into a space configured from p.
func New(p params.Params, cells []Cell) *Space {
	own := append([]Cell(nil), cells...)
	for i := range own {
		own[i].Class = ClassNone
		own[i].Index = Unindexed
	}
	return &Space{
		Cells:        own,
		XSize:        float64(p.XSize),
		YSize:        float64(p.YSize),
		InputBorder:  p.InputBorder,
		OutputBorder: p.OutputBorder,
		AxonScale:    p.AxonScale,
	}
}

// Counts holds per-class cell counts.
type Counts struct {
	Inputs  int `json:"inputs"`
	Hiddens int `json:"hiddens"`
	Outputs int `json:"outputs"`
}

// Classify assigns a class to every expressed cell by its x position and
// returns the class counts. Cells outside the valid part of a zone keep
// ClassNone; a hidden candidate outside [0,1] in y cannot be produced by any
// decoder and panics.
func (s *Space) Classify() Counts {
	var c Counts
	for i := range s.Cells {
		cell := &s.Cells[i]
		cell.Class = ClassNone
		cell.Index = Unindexed
		if !cell.Expressed {
			continue
		}
		inY := cell.Y >= 0 && cell.Y <= 1
		switch {
		case cell.X < s.InputBorder:
			if cell.X >= 0 && inY {
				cell.Class = ClassInput
				c.Inputs++
			}
		case cell.X > s.OutputBorder:
			if cell.X <= 1 && inY {
				cell.Class = ClassOutput
				c.Outputs++
			}
		default:
			if !inY {
				network.Invariant("cellspace.Classify", "hidden candidate %d has y=%g", i, cell.Y)
			}
			cell.Class = ClassHidden
			c.Hiddens++
		}
	}
	return c
}

// Index classifies the cells and gives each a final network index: inputs
// by y slot, hiddens by ascending x (at most maxHidden of them), outputs by
// y slot after the hiddens. A later cell that lands on an index already in
// use is stripped. The returned counts are the network's node ranges.
func (s *Space) Index(inputs, outputs, maxHidden int) (Counts, *network.Failure) {
	c := s.Classify()
	if f := checkCounts(c, outputs); f != nil {
		return c, f
	}

	for i := range s.Cells {
		if s.Cells[i].Class == ClassInput {
			s.Cells[i].Index = slot(s.Cells[i].Y, inputs)
		}
	}

	hiddens := c.Hiddens
	if hiddens > maxHidden {
		hiddens = maxHidden
	}
	for k := 0; k < hiddens; k++ {
		// Linear scan with <=: among equal x the last cell scanned wins.
		minX := math.Inf(1)
		minCell := -1
		for j := range s.Cells {
			cell := &s.Cells[j]
			if cell.Class == ClassHidden && cell.Index == Unindexed && cell.X <= minX {
				minX = cell.X
				minCell = j
			}
		}
		s.Cells[minCell].Index = inputs + k
	}

	for i := range s.Cells {
		if s.Cells[i].Class == ClassOutput {
			s.Cells[i].Index = inputs + hiddens + slot(s.Cells[i].Y, outputs)
		}
	}

	effective := Counts{Inputs: c.Inputs, Hiddens: hiddens, Outputs: c.Outputs}
	for i := range s.Cells {
		if s.Cells[i].Index == Unindexed {
			continue
		}
		for j := i + 1; j < len(s.Cells); j++ {
			if s.Cells[j].Index != s.Cells[i].Index {
				continue
			}
			s.Cells[j].Index = Unindexed
			switch s.Cells[i].Class {
			case ClassOutput:
				effective.Outputs--
			case ClassInput:
				effective.Inputs--
			case ClassHidden:
				network.Invariant("cellspace.Index", "hidden index %d assigned twice", s.Cells[i].Index)
			}
		}
	}
	if effective.Outputs < outputs {
		return effective, network.NoNetwork(network.ReasonTooFewOutputs,
			"%d distinct output cells for %d outputs", effective.Outputs, outputs)
	}
	return Counts{Inputs: inputs, Hiddens: hiddens, Outputs: outputs}, nil
}

func checkCounts(c Counts, outputs int) *network.Failure {
	switch {
	case c.Inputs == 0:
		return network.NoNetwork(network.ReasonNoInputs, "no cell in the input zone")
	case c.Hiddens == 0:
		return network.NoNetwork(network.ReasonNoHiddens, "no cell in the hidden zone")
	case c.Outputs == 0:
		return network.NoNetwork(network.ReasonNoOutputs, "no cell in the output zone")
	case c.Outputs < outputs:
		return network.NoNetwork(network.ReasonTooFewOutputs, "%d output cells for %d outputs", c.Outputs, outputs)
	}
	return nil
}

// slot maps y in [0,1] to the nearest of n evenly spaced slots.
func slot(y float64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(y * float64(n-1)))
}

// Scale moves the space from unit coordinates to wiring coordinates: both
// axes scale by YSize and segment lengths by a tenth of it. Repeated calls
// are no-ops.
func (s *Space) Scale() {
	if s.scaled {
		return
	}
	for i := range s.Cells {
		s.Cells[i].X *= s.YSize
		s.Cells[i].Y *= s.YSize
		s.Cells[i].SegLength *= 0.1 * s.YSize
	}
	s.scaled = true
}

// Scaled reports whether Scale has run.
func (s *Space) Scaled() bool {
	return s.scaled
}
