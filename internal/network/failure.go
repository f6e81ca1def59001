package network

import (
	"errors"
	"fmt"
)

// ErrNoNetwork marks a genome that decodes to no usable network. It is an
// expected outcome, never a fault.
var ErrNoNetwork = errors.New("no network")

// Failure reasons reported by decoders.
const (
	ReasonNoInputs            = "no_inputs"
	ReasonNoHiddens           = "no_hiddens"
	ReasonNoOutputs           = "no_outputs"
	ReasonTooFewOutputs       = "too_few_outputs"
	ReasonNoConnections       = "no_connections"
	ReasonNoOutputConnections = "no_output_connections"
	ReasonMatrixTooSmall      = "matrix_too_small"
)

// Failure explains why a decode produced no network.
type Failure struct {
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// NoNetwork builds a Failure for reason with a formatted detail.
func NoNetwork(reason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrNoNetwork, f.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrNoNetwork, f.Reason, f.Detail)
}

func (f *Failure) Unwrap() error {
	return ErrNoNetwork
}

// InvariantError is the panic value for a broken decoder invariant.
type InvariantError struct {
	Where string
	What  string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("decode invariant violated in %s: %s", e.Where, e.What)
}

func (e InvariantError) String() string {
	return e.Error()
}

// Invariant panics with an InvariantError.
func Invariant(where, format string, args ...any) {
	panic(InvariantError{Where: where, What: fmt.Sprintf(format, args...)})
}
