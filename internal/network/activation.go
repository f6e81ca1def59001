package network

import (
	"errors"
	"fmt"
	"math"
)

var ErrActivationNotFound = errors.New("activation not found")

// activations is fixed at compile time; decoding and evaluation share no
// mutable state.
var activations = map[string]func(float64) float64{
	"identity": func(x float64) float64 { return x },
	"relu":     func(x float64) float64 { return math.Max(0, x) },
	"tanh":     math.Tanh,
	"sigmoid":  func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
	"step": func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	},
}

// Activation looks up a node activation by name.
func Activation(name string) (func(float64) float64, error) {
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return fn, nil
}
