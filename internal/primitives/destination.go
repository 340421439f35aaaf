package primitives

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes full screens from modal overlays.
type Kind string

const (
	Screen Kind = "screen"
	Modal  Kind = "modal"
)

// Layer is the render layer a destination is painted on.
type Layer string

const (
	LayerContent       Layer = "content"
	LayerGlobalOverlay Layer = "global_overlay"
	LayerSystem        Layer = "system"
)

// layerBase offsets z-indices so that every overlay layer sits above all content.
var layerBase = map[Layer]int{
	LayerContent:       0,
	LayerGlobalOverlay: 10_000,
	LayerSystem:        20_000,
}

// Transition describes an enter or exit animation. The engine only reads Duration.
type Transition struct {
	Name     string        `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty" toml:"duration"`
}

// Destination is a screen or modal node in the declaration tree.
type Destination struct {
	Route         string      `json:"route" yaml:"route" toml:"route"`
	Kind          Kind        `json:"kind" yaml:"kind" toml:"kind"`
	Layer         Layer       `json:"layer,omitempty" yaml:"layer,omitempty" toml:"layer"`
	Elevation     int         `json:"elevation,omitempty" yaml:"elevation,omitempty" toml:"elevation"`
	Title         string      `json:"title,omitempty" yaml:"title,omitempty" toml:"title"`
	DimBackground bool        `json:"dim_background,omitempty" yaml:"dim_background,omitempty" toml:"dim_background"`
	Enter         Transition  `json:"enter,omitempty" yaml:"enter,omitempty" toml:"enter"`
	Exit          Transition  `json:"exit,omitempty" yaml:"exit,omitempty" toml:"exit"`
	PopEnter      *Transition `json:"pop_enter,omitempty" yaml:"pop_enter,omitempty" toml:"pop_enter"`
	PopExit       *Transition `json:"pop_exit,omitempty" yaml:"pop_exit,omitempty" toml:"pop_exit"`
}

// NewScreen creates a content-layer screen destination.
func NewScreen(route string) *Destination {
	return &Destination{Route: route, Kind: Screen, Layer: LayerContent}
}

// NewModal creates a modal destination on the global overlay layer.
func NewModal(route string) *Destination {
	return &Destination{Route: route, Kind: Modal, Layer: LayerGlobalOverlay, Elevation: 1}
}

// WithElevation sets the ordering among overlays.
func (d *Destination) WithElevation(elevation int) *Destination {
	d.Elevation = elevation
	return d
}

// WithLayer sets the render layer.
func (d *Destination) WithLayer(layer Layer) *Destination {
	d.Layer = layer
	return d
}

// WithTitle sets the human readable title used for breadcrumbs.
func (d *Destination) WithTitle(title string) *Destination {
	d.Title = title
	return d
}

// WithDim requests that the screen under this modal is dimmed.
func (d *Destination) WithDim() *Destination {
	d.DimBackground = true
	return d
}

// WithTransitions sets enter and exit transitions.
func (d *Destination) WithTransitions(enter, exit Transition) *Destination {
	d.Enter = enter
	d.Exit = exit
	return d
}

// WithPopTransitions overrides the transitions used when popping back.
func (d *Destination) WithPopTransitions(enter, exit Transition) *Destination {
	d.PopEnter = &enter
	d.PopExit = &exit
	return d
}

// IsModal reports whether the destination is a modal overlay.
func (d *Destination) IsModal() bool {
	return d != nil && d.Kind == Modal
}

// EnterFor returns the enter transition, honouring pop overrides.
func (d *Destination) EnterFor(pop bool) Transition {
	if pop && d.PopEnter != nil {
		return *d.PopEnter
	}
	return d.Enter
}

// ExitFor returns the exit transition, honouring pop overrides.
func (d *Destination) ExitFor(pop bool) Transition {
	if pop && d.PopExit != nil {
		return *d.PopExit
	}
	return d.Exit
}

// RenderLayer returns the declared layer, defaulting by kind when unset.
func (d *Destination) RenderLayer() Layer {
	if d.Layer != "" {
		return d.Layer
	}
	if d.Kind == Modal {
		return LayerGlobalOverlay
	}
	return LayerContent
}

// ZIndex derives the paint order of an entry of this destination at position.
func (d *Destination) ZIndex(position int) int {
	return layerBase[d.RenderLayer()] + d.Elevation*100 + position
}

// HasPlaceholders reports whether the route contains {name} segments.
func (d *Destination) HasPlaceholders() bool {
	return strings.Contains(d.Route, "{")
}

// Validate checks a single destination declaration.
func (d *Destination) Validate() error {
	if strings.TrimSpace(d.Route) == "" {
		return fmt.Errorf("destination route is required")
	}
	if strings.HasPrefix(d.Route, "/") || strings.HasSuffix(d.Route, "/") {
		return fmt.Errorf("destination %q: route must not start or end with '/'", d.Route)
	}
	switch d.Kind {
	case Screen, Modal, "":
	default:
		return fmt.Errorf("destination %q: invalid kind %q", d.Route, d.Kind)
	}
	if _, ok := layerBase[d.Layer]; !ok && d.Layer != "" {
		return fmt.Errorf("destination %q: invalid layer %q", d.Route, d.Layer)
	}
	for _, seg := range strings.Split(d.Route, "/") {
		if seg == "" {
			return fmt.Errorf("destination %q: empty path segment", d.Route)
		}
		if strings.ContainsAny(seg, "{}") && !IsPlaceholder(seg) {
			return fmt.Errorf("destination %q: malformed placeholder %q", d.Route, seg)
		}
	}
	return nil
}

// IsPlaceholder reports whether a path segment has the form {name}.
func IsPlaceholder(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' && !strings.ContainsAny(seg[1:len(seg)-1], "{}")
}
