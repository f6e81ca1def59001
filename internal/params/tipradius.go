package params

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type TipMode uint8

const (
	TipFixed TipMode = iota
	// TipAutoNetwork reads one tip radius gene for the whole network.
	TipAutoNetwork
	// TipAutoCell gives every cell (or rewrite rule) its own tip radius gene.
	TipAutoCell
)

const (
	autoNetworkName = "auto-network"
	autoCellName    = "auto-cell"
)

// TipRadius is either a fixed connection radius or one of the evolved modes.
// It reads and writes as a number or as "auto-network" / "auto-cell".
type TipRadius struct {
	Mode  TipMode
	Value float64
}

func Fixed(v float64) TipRadius {
	return TipRadius{Mode: TipFixed, Value: v}
}

func (t TipRadius) String() string {
	switch t.Mode {
	case TipAutoNetwork:
		return autoNetworkName
	case TipAutoCell:
		return autoCellName
	}
	return strconv.FormatFloat(t.Value, 'g', -1, 64)
}

// Set implements flag.Value.
func (t *TipRadius) Set(s string) error {
	switch s {
	case autoNetworkName:
		*t = TipRadius{Mode: TipAutoNetwork}
		return nil
	case autoCellName:
		*t = TipRadius{Mode: TipAutoCell}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: tip_radius %q is neither a number nor %s/%s", ErrInvalidConfig, s, autoNetworkName, autoCellName)
	}
	*t = Fixed(v)
	return nil
}

func (t TipRadius) MarshalYAML() (any, error) {
	if t.Mode == TipFixed {
		return t.Value, nil
	}
	return t.String(), nil
}

func (t *TipRadius) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: tip_radius must be a scalar (line %d)", ErrInvalidConfig, node.Line)
	}
	return t.Set(node.Value)
}

func (t TipRadius) MarshalJSON() ([]byte, error) {
	if t.Mode == TipFixed {
		return json.Marshal(t.Value)
	}
	return json.Marshal(t.String())
}

func (t *TipRadius) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*t = Fixed(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: tip_radius: %v", ErrInvalidConfig, err)
	}
	return t.Set(s)
}
