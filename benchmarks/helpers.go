// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/navigatorx/internal/primitives"
)

// GenFlatTree creates a root graph with n screens s0..s(n-1) and one modal.
func GenFlatTree(n int) *primitives.Graph {
	if n < 1 {
		n = 1
	}
	root := primitives.NewGraph("root").WithStart("s0")
	for i := 0; i < n; i++ {
		root.Screen(fmt.Sprintf("s%d", i))
	}
	root.Modal("dialog").WithDim()
	return root
}

// GenDeepTree nests depth graphs g1..gN, each holding one leaf screen it
// starts at. The deepest leaf is reachable by its full path.
func GenDeepTree(depth int) (*primitives.Graph, string) {
	if depth < 1 {
		depth = 1
	}
	root := primitives.NewGraph("root").WithStart("home")
	root.Screen("home")
	parent := root
	var path []string
	for i := 1; i <= depth; i++ {
		id := fmt.Sprintf("g%d", i)
		leaf := fmt.Sprintf("leaf%d", i)
		g := parent.Graph(id).WithStart(leaf)
		g.Screen(leaf)
		path = append(path, id)
		parent = g
	}
	return root, strings.Join(append(path, fmt.Sprintf("leaf%d", depth)), "/")
}

// GenFlow returns a flow visiting the first n screens of a flat tree.
func GenFlow(n int) primitives.FlowDefinition {
	def := primitives.FlowDefinition{}
	for i := 0; i < n; i++ {
		def.Steps = append(def.Steps, primitives.RouteStep(fmt.Sprintf("s%d", i), nil))
	}
	return def
}

// TreeYAML marshals a tree file the way declaration files are written.
func TreeYAML(root *primitives.Graph) []byte {
	data, err := yaml.Marshal(&primitives.TreeFile{Version: "bench", Root: root})
	if err != nil {
		panic(err)
	}
	return data
}

// Navigate returns a single navigate step.
func Navigate(path string) primitives.Step {
	return primitives.Step{Op: primitives.OpNavigate, Target: primitives.PathTarget(path)}
}

// Back returns a single back step.
func Back() primitives.Step {
	return primitives.Step{Op: primitives.OpBack}
}
