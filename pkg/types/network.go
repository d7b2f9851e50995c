// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the transcriptutorial pipeline.
// Records flow forward through the stages: InteractionRecord (network fetch),
// Edge (filtered prior-knowledge network), ScoredList (formatted activities),
// SolverInput (solver invocation) and SolverResult (post-processed output).
package types

import (
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when a record references a node that is absent
// from the table it must be joined against.
var ErrUnknownNode = errors.New("unknown node")

// Sign is the polarity of a signed interaction.
type Sign int

const (
	Inhibition Sign = -1
	Activation Sign = 1
)

// Valid reports whether s is one of the two allowed polarities.
func (s Sign) Valid() bool {
	return s == Activation || s == Inhibition
}

func (s Sign) String() string {
	switch s {
	case Activation:
		return "1"
	case Inhibition:
		return "-1"
	}
	return fmt.Sprintf("invalid(%d)", int(s))
}

// InteractionRecord is one row of the interaction database query. The
// consensus flags aggregate direction and sign judgments across the curated
// resources that report the interaction.
type InteractionRecord struct {
	// Source is the gene symbol of the regulator.
	Source string `json:"source" yaml:"source"`

	// Target is the gene symbol of the regulated node.
	Target string `json:"target" yaml:"target"`

	// IsDirected is true when at least one resource reports a direction.
	IsDirected bool `json:"is_directed" yaml:"is_directed"`

	ConsensusDirection   bool `json:"consensus_direction" yaml:"consensus_direction"`
	ConsensusStimulation bool `json:"consensus_stimulation" yaml:"consensus_stimulation"`
	ConsensusInhibition  bool `json:"consensus_inhibition" yaml:"consensus_inhibition"`
}

// Edge is one row of the prior-knowledge network consumed by the solver
// (the SIF layout: source, interaction, target).
type Edge struct {
	Source      string `json:"source" yaml:"source"`
	Interaction Sign   `json:"interaction" yaml:"interaction"`
	Target      string `json:"target" yaml:"target"`
}
