// Package testutil holds the declaration tree shared by the package tests and
// test logging setup.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/logging"
	"github.com/comalice/navigatorx/internal/primitives"
)

// SlideDuration is the enter/exit transition declared on animated fixture screens.
const SlideDuration = 300 * time.Millisecond

// Tree returns a fresh declaration tree:
//
//	root (start home)
//	  home, settings*, welcome, profile-setup, done, a, b, c, d
//	  confirm (modal, dims), picker (modal, elevation 2), toast (modal, system layer)
//	  account (start overview)
//	    overview, user/{id}/profile, edit, sheet (modal)
//	  shop (start -> graph catalog)
//	    cart
//	    catalog (start list)
//	      list, item/{sku}
//
// settings is the only destination with transitions.
func Tree() *primitives.Graph {
	slide := primitives.Transition{Name: "slide", Duration: SlideDuration}

	root := primitives.NewGraph("root").WithStart("home")
	root.Screen("home").WithTitle("Home")
	root.Screen("settings").WithTitle("Settings").WithTransitions(slide, slide)
	root.Screen("welcome").WithTitle("Welcome")
	root.Screen("profile-setup").WithTitle("Profile setup")
	root.Screen("done")
	for _, r := range []string{"a", "b", "c", "d"} {
		root.Screen(r)
	}
	root.Modal("confirm").WithDim()
	root.Modal("picker").WithElevation(2)
	root.Modal("toast").WithLayer(primitives.LayerSystem)

	account := root.Graph("account").WithStart("overview").WithLayout("tabs")
	account.Screen("overview").WithTitle("Account")
	account.Screen("user/{id}/profile").WithTitle("Profile")
	account.Screen("edit")
	account.Modal("sheet").WithDim()

	shop := root.Graph("shop").WithStartGraph("catalog")
	shop.Screen("cart")
	catalog := shop.Graph("catalog").WithStart("list")
	catalog.Screen("list")
	catalog.Screen("item/{sku}")

	return root
}

// Completions counts completion handler invocations per flow.
type Completions struct {
	mu     sync.Mutex
	counts map[string]int
	last   primitives.FlowResult
}

// Handler returns a completion func recording each call.
func (c *Completions) Handler() func(context.Context, primitives.FlowResult) error {
	return func(_ context.Context, r primitives.FlowResult) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.counts == nil {
			c.counts = make(map[string]int)
		}
		c.counts[r.Route]++
		c.last = r
		return nil
	}
}

// Count returns how often route completed.
func (c *Completions) Count(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[route]
}

// Last returns the most recent completion result.
func (c *Completions) Last() primitives.FlowResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Onboarding returns the two-step onboarding flow declaration.
func Onboarding(onComplete primitives.CompletionRef) primitives.FlowDefinition {
	return primitives.FlowDefinition{
		Steps: []primitives.FlowStep{
			primitives.RouteStep("welcome", nil),
			primitives.RouteStep("profile-setup", nil),
		},
		OnComplete: onComplete,
	}
}

// StartLog configures test logging and returns a logger tagged with the test name.
func StartLog(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	logger := logging.For("test").With().Str("test", t.Name()).Logger()
	logger.Debug().Msg("test started")
	return logger
}
