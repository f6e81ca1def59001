package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"morphogen/internal/params"
	"morphogen/internal/storage"
)

// paramFlags are the decode parameters settable on the command line. Values
// given explicitly override the --config file.
type paramFlags struct {
	config *string

	encoding      *string
	inputs        *int
	outputs       *int
	maxHidden     *int
	xSize         *int
	ySize         *int
	inputBorder   *float64
	outputBorder  *float64
	tipRadius     params.TipRadius
	axonScale     *float64
	types         *int
	existenceGene *bool
	faceGene      *bool
	cycles        *int
	iterations    *int
	nonTerminals  *int
	rules         *int
	pruneInputs   *bool
	pruneWeights  *bool
	encodeWeights *bool
	prune         *bool
	passthroughs  *bool
}

func registerParamFlags(fs *flag.FlagSet) *paramFlags {
	d := params.Defaults()
	pf := &paramFlags{
		config:        fs.String("config", "", "optional decode parameter file (YAML or JSON)"),
		encoding:      fs.String("encoding", string(d.Encoding), "genome encoding: nolfi|cangelosi|kitano|direct|miller"),
		inputs:        fs.Int("inputs", d.Inputs, "input unit count"),
		outputs:       fs.Int("outputs", d.Outputs, "output unit count"),
		maxHidden:     fs.Int("max-hidden", d.MaxHidden, "maximum hidden unit count"),
		xSize:         fs.Int("x-size", d.XSize, "cell space width"),
		ySize:         fs.Int("y-size", d.YSize, "cell space height"),
		inputBorder:   fs.Float64("input-border", d.InputBorder, "input zone border as a fraction of the height"),
		outputBorder:  fs.Float64("output-border", d.OutputBorder, "output zone border as a fraction of the height"),
		tipRadius:     d.TipRadius,
		axonScale:     fs.Float64("axon-scale", d.AxonScale, "axon segment length scale"),
		types:         fs.Int("types", d.Types, "cell type count"),
		existenceGene: fs.Bool("existence-gene", d.ExistenceGene, "decode an existence gene per cell"),
		faceGene:      fs.Bool("face-gene", d.FaceGene, "decode a facing gene per cell"),
		cycles:        fs.Int("cycles", d.Cycles, "cell rewrite cycles (0 derives from max-hidden)"),
		iterations:    fs.Int("iterations", d.Iterations, "grammar rewrite iterations"),
		nonTerminals:  fs.Int("non-terminals", d.NonTerminals, "grammar non-terminal count"),
		rules:         fs.Int("rules", d.Rules, "grammar production count"),
		pruneInputs:   fs.Bool("prune-inputs", d.PruneInputs, "give input units an existence gene"),
		pruneWeights:  fs.Bool("prune-weights", d.PruneWeights, "give every link an existence gene"),
		encodeWeights: fs.Bool("encode-weights", d.EncodeWeights, "give every link a weight gene"),
		prune:         fs.Bool("prune", d.Prune, "remove hidden units that cannot reach an output"),
		passthroughs:  fs.Bool("prune-passthroughs", d.PrunePassthroughs, "bypass single-in single-out hidden units (requires --prune)"),
	}
	fs.Var(&pf.tipRadius, "tip-radius", "connection radius: number|auto-network|auto-cell")
	return pf
}

// resolve loads the config file, if any, and applies every flag the user
// set explicitly.
func (pf *paramFlags) resolve(fs *flag.FlagSet) (params.Params, error) {
	p := params.Defaults()
	if *pf.config != "" {
		loaded, err := params.LoadFile(*pf.config)
		if err != nil {
			return params.Params{}, err
		}
		p = loaded
	}

	var overrideErr error
	fs.Visit(func(f *flag.Flag) {
		if overrideErr != nil {
			return
		}
		overrideErr = pf.override(&p, f.Name)
	})
	if overrideErr != nil {
		return params.Params{}, overrideErr
	}
	if err := p.Validate(); err != nil {
		return params.Params{}, err
	}
	return p, nil
}

func (pf *paramFlags) override(p *params.Params, name string) error {
	switch name {
	case "encoding":
		enc, err := params.ParseEncoding(*pf.encoding)
		if err != nil {
			return err
		}
		p.Encoding = enc
	case "inputs":
		p.Inputs = *pf.inputs
	case "outputs":
		p.Outputs = *pf.outputs
	case "max-hidden":
		p.MaxHidden = *pf.maxHidden
	case "x-size":
		p.XSize = *pf.xSize
	case "y-size":
		p.YSize = *pf.ySize
	case "input-border":
		p.InputBorder = *pf.inputBorder
	case "output-border":
		p.OutputBorder = *pf.outputBorder
	case "tip-radius":
		p.TipRadius = pf.tipRadius
	case "axon-scale":
		p.AxonScale = *pf.axonScale
	case "types":
		p.Types = *pf.types
	case "existence-gene":
		p.ExistenceGene = *pf.existenceGene
	case "face-gene":
		p.FaceGene = *pf.faceGene
	case "cycles":
		p.Cycles = *pf.cycles
	case "iterations":
		p.Iterations = *pf.iterations
	case "non-terminals":
		p.NonTerminals = *pf.nonTerminals
	case "rules":
		p.Rules = *pf.rules
	case "prune-inputs":
		p.PruneInputs = *pf.pruneInputs
	case "prune-weights":
		p.PruneWeights = *pf.pruneWeights
	case "encode-weights":
		p.EncodeWeights = *pf.encodeWeights
	case "prune":
		p.Prune = *pf.prune
	case "prune-passthroughs":
		p.PrunePassthroughs = *pf.passthroughs
	}
	return nil
}

type storeFlags struct {
	kind         *string
	dbPath       *string
	artifactsDir *string
}

func registerStoreFlags(fs *flag.FlagSet) *storeFlags {
	return &storeFlags{
		kind:         fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", "morphogen.db", "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", artifactsDir, "decode artifact directory"),
	}
}

func registerLogLevel(fs *flag.FlagSet) *string {
	return fs.String("log-level", "warn", "log level: debug|info|warn|error")
}

// newLogger writes progress lines to stderr so stdout stays parseable.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
