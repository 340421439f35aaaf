package primitives

import (
	"errors"
	"fmt"
	"time"
)

// FlowStep is one step of a guided flow: a literal route or a typed destination.
type FlowStep struct {
	Route       string       `json:"route,omitempty" yaml:"route,omitempty" toml:"route"`
	Destination *Destination `json:"-" yaml:"-" toml:"-"`
	GraphID     string       `json:"graph,omitempty" yaml:"graph,omitempty" toml:"graph"`
	Params      Params       `json:"params,omitempty" yaml:"params,omitempty" toml:"params"`
}

// RouteStep creates a literal route step.
func RouteStep(route string, params Params) FlowStep {
	return FlowStep{Route: route, Params: params}
}

// DestinationStep creates a typed destination step.
func DestinationStep(d *Destination, params Params) FlowStep {
	return FlowStep{Destination: d, Params: params}
}

// Target converts the step into a navigation target.
func (s FlowStep) Target() Target {
	if s.Destination != nil {
		return DestinationTarget(s.Destination, s.GraphID)
	}
	if s.Route == "" && s.GraphID != "" {
		return GraphTarget(s.GraphID)
	}
	return PathTarget(s.Route)
}

// Name returns a printable identifier for the step.
func (s FlowStep) Name() string {
	return s.Target().String()
}

// ClearPolicy decides what happens to runtime flow modifications on completion.
type ClearPolicy string

const (
	// ClearNone keeps every runtime modification.
	ClearNone ClearPolicy = "none"
	// ClearAll drops runtime modifications of every flow.
	ClearAll ClearPolicy = "all"
	// ClearOwn drops only the completed flow's modifications.
	ClearOwn ClearPolicy = "own"
)

// CompletionRef references a completion handler: a registered string id, a
// func(context.Context, FlowResult) error, or a value implementing the
// extensibility handler interface. Nil means no handler.
type CompletionRef any

// FlowDefinition is a named, ordered sequence of steps.
// Definitions are copy-on-write; use Clone before changing anything.
type FlowDefinition struct {
	Steps       []FlowStep    `json:"steps" yaml:"steps" toml:"steps"`
	OnComplete  CompletionRef `json:"on_complete,omitempty" yaml:"on_complete,omitempty" toml:"on_complete"`
	ClearPolicy ClearPolicy   `json:"clear_policy,omitempty" yaml:"clear_policy,omitempty" toml:"clear_policy"`
}

// Clone returns a copy whose step slice and step params can be changed freely.
func (d FlowDefinition) Clone() FlowDefinition {
	out := d
	out.Steps = make([]FlowStep, len(d.Steps))
	for i, s := range d.Steps {
		s.Params = s.Params.Clone()
		out.Steps[i] = s
	}
	return out
}

// Policy returns the clear policy, defaulting to ClearOwn.
func (d FlowDefinition) Policy() ClearPolicy {
	if d.ClearPolicy == "" {
		return ClearOwn
	}
	return d.ClearPolicy
}

// Validate checks the definition shape.
func (d FlowDefinition) Validate() error {
	if len(d.Steps) == 0 {
		return errors.New("flow requires at least one step")
	}
	for i, s := range d.Steps {
		if s.Target().IsZero() {
			return fmt.Errorf("flow step %d has no route", i)
		}
	}
	switch d.ClearPolicy {
	case "", ClearNone, ClearAll, ClearOwn:
	default:
		return fmt.Errorf("invalid clear policy %q", d.ClearPolicy)
	}
	return nil
}

// FlowState tracks the active guided flow.
type FlowState struct {
	Route       string        `json:"route" yaml:"route"`
	RunID       string        `json:"run_id" yaml:"run_id"`
	StepIndex   int           `json:"step_index" yaml:"step_index"`
	StepCount   int           `json:"step_count" yaml:"step_count"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Completed   bool          `json:"completed,omitempty" yaml:"completed,omitempty"`
	Duration    time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// IsOnFinalStep reports whether the flow is positioned on its last step.
func (s *FlowState) IsOnFinalStep() bool {
	return s != nil && s.StepCount > 0 && s.StepIndex == s.StepCount-1
}

// FlowResult is handed to completion handlers.
type FlowResult struct {
	Route       string        `json:"route"`
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Params      Params        `json:"params,omitempty"`
}
