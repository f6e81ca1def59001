package params

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var ErrInvalidConfig = errors.New("invalid decode configuration")

type Encoding string

const (
	EncodingNolfi     Encoding = "nolfi"
	EncodingCangelosi Encoding = "cangelosi"
	EncodingKitano    Encoding = "kitano"
	EncodingDirect    Encoding = "direct"
	EncodingMiller    Encoding = "miller"
)

// Encodings lists the supported encodings in a stable order.
func Encodings() []Encoding {
	return []Encoding{EncodingNolfi, EncodingCangelosi, EncodingKitano, EncodingDirect, EncodingMiller}
}

func ParseEncoding(s string) (Encoding, error) {
	for _, e := range Encodings() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: unknown encoding %q", ErrInvalidConfig, s)
}

// Params configures every decoder. Fields that an encoding does not use are
// ignored by it.
type Params struct {
	Encoding  Encoding `yaml:"encoding" json:"encoding"`
	Inputs    int      `yaml:"inputs" json:"inputs"`
	Outputs   int      `yaml:"outputs" json:"outputs"`
	MaxHidden int      `yaml:"max_hidden" json:"max_hidden"`

	XSize        int       `yaml:"x_size" json:"x_size"`
	YSize        int       `yaml:"y_size" json:"y_size"`
	InputBorder  float64   `yaml:"input_border" json:"input_border"`
	OutputBorder float64   `yaml:"output_border" json:"output_border"`
	TipRadius    TipRadius `yaml:"tip_radius" json:"tip_radius"`
	AxonScale    float64   `yaml:"axon_scale" json:"axon_scale"`
	Types        int       `yaml:"types" json:"types"`

	ExistenceGene bool       `yaml:"existence_gene" json:"existence_gene"`
	FaceGene      bool       `yaml:"face_gene" json:"face_gene"`
	SegLenRange   [2]float64 `yaml:"seg_len_range" json:"seg_len_range"`
	Cycles        int        `yaml:"cycles" json:"cycles"`

	Iterations   int `yaml:"iterations" json:"iterations"`
	NonTerminals int `yaml:"non_terminals" json:"non_terminals"`
	Rules        int `yaml:"rules" json:"rules"`

	PruneInputs   bool `yaml:"prune_inputs" json:"prune_inputs"`
	PruneWeights  bool `yaml:"prune_weights" json:"prune_weights"`
	EncodeWeights bool `yaml:"encode_weights" json:"encode_weights"`

	Prune             bool `yaml:"prune" json:"prune"`
	PrunePassthroughs bool `yaml:"prune_passthroughs" json:"prune_passthroughs"`
}

// Defaults returns the parameters used when nothing overrides them.
func Defaults() Params {
	return Params{
		Encoding:     EncodingNolfi,
		Inputs:       1,
		Outputs:      1,
		MaxHidden:    8,
		XSize:        9,
		YSize:        22,
		InputBorder:  0.3,
		OutputBorder: 0.7,
		TipRadius:    Fixed(0.5),
		AxonScale:    0.5,
		Types:        16,
		SegLenRange:  [2]float64{-1, 1},
		Iterations:   5,
		NonTerminals: 26,
		Rules:        64,
		PruneInputs:  true,
	}
}

// Cells is the number of cell records a Nolfi genome carries: one per
// potential neuron.
func (p Params) Cells() int {
	return p.MaxHidden
}

// EffectiveCycles resolves Cycles == 0 to the smallest rewrite count whose
// cell population covers MaxHidden.
func (p Params) EffectiveCycles() int {
	if p.Cycles > 0 {
		return p.Cycles
	}
	return DefaultCycles(p.MaxHidden)
}

func DefaultCycles(maxHidden int) int {
	if maxHidden <= 1 {
		return 0
	}
	c := int(math.Ceil(math.Log2(float64(maxHidden)))) - 1
	if c < 0 {
		return 0
	}
	return c
}

// Validate returns the first inconsistency, wrapped in ErrInvalidConfig.
func (p Params) Validate() error {
	if _, err := ParseEncoding(string(p.Encoding)); err != nil {
		return err
	}
	if p.Inputs <= 0 || p.Inputs >= 1000 {
		return invalid("inputs must be in (0,1000), got %d", p.Inputs)
	}
	if p.Outputs <= 0 || p.Outputs >= 1000 {
		return invalid("outputs must be in (0,1000), got %d", p.Outputs)
	}
	if p.MaxHidden < 0 || p.MaxHidden >= 100000 {
		return invalid("max_hidden must be in [0,100000), got %d", p.MaxHidden)
	}
	if p.PrunePassthroughs && !p.Prune {
		return invalid("prune_passthroughs requires prune")
	}
	switch p.Encoding {
	case EncodingNolfi:
		if err := p.validateSpatial(); err != nil {
			return err
		}
		if p.MaxHidden == 0 {
			return invalid("max_hidden must be > 0 for %s", p.Encoding)
		}
		if p.XSize <= 0 || p.YSize <= 0 {
			return invalid("x_size and y_size must be > 0, got %dx%d", p.XSize, p.YSize)
		}
		if p.Types <= 0 || bits.OnesCount(uint(p.Types)) != 1 || p.Types > 256 {
			return invalid("types must be a power of two in [1,256], got %d", p.Types)
		}
	case EncodingCangelosi:
		if err := p.validateSpatial(); err != nil {
			return err
		}
		lo, hi := p.SegLenRange[0], p.SegLenRange[1]
		if lo < -2 || lo > 1 {
			return invalid("seg_len_range min must be in [-2,1], got %g", lo)
		}
		if hi <= 0 || hi > 5 {
			return invalid("seg_len_range max must be in (0,5], got %g", hi)
		}
		if lo >= hi {
			return invalid("seg_len_range min %g must be below max %g", lo, hi)
		}
		if p.Cycles < 0 || p.Cycles > 16 {
			return invalid("cycles must be in [0,16], got %d", p.Cycles)
		}
	case EncodingKitano:
		if p.Iterations <= 0 || p.Iterations >= 10 {
			return invalid("iterations must be in (0,10), got %d", p.Iterations)
		}
		if p.NonTerminals <= 0 || p.NonTerminals >= 100 {
			return invalid("non_terminals must be in (0,100), got %d", p.NonTerminals)
		}
		if p.Rules < 16 || p.Rules > 1000 {
			return invalid("rules must be in [16,1000], got %d", p.Rules)
		}
		if dim := 1 << p.Iterations; dim <= p.Inputs+p.Outputs {
			return invalid("matrix dimension %d must exceed inputs+outputs=%d", dim, p.Inputs+p.Outputs)
		}
	}
	return nil
}

func (p Params) validateSpatial() error {
	if p.InputBorder < 0 || p.OutputBorder > 1 || p.InputBorder >= p.OutputBorder {
		return invalid("borders must satisfy 0 <= input_border < output_border <= 1, got %g/%g", p.InputBorder, p.OutputBorder)
	}
	if p.AxonScale <= 0 {
		return invalid("axon_scale must be > 0, got %g", p.AxonScale)
	}
	if p.YSize <= 0 {
		return invalid("y_size must be > 0, got %d", p.YSize)
	}
	if p.TipRadius.Mode == TipFixed && p.TipRadius.Value < 0.5 {
		return invalid("tip_radius must be >= 0.5, got %g", p.TipRadius.Value)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
