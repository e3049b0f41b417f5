package layout

import "errors"

var (
	// ErrUnknownEngine is returned by [New] for an unregistered engine name.
	ErrUnknownEngine = errors.New("unknown layout engine")

	// ErrNilModel is returned when Layout is called without a model.
	ErrNilModel = errors.New("nil model")

	// ErrMissingPosition is returned when the engine output lacks a node.
	ErrMissingPosition = errors.New("layout output is missing a node position")
)
