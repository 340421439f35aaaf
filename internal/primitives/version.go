// Package primitives provides versioning utilities for declaration trees.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// ComputeVersion computes a deterministic version for a declaration tree.
// Priority: user-provided tree.Version, else SHA256(tree JSON)[:8].
// Snapshots record it so that restoring against a different tree can be detected.
func ComputeVersion(tree *TreeFile) string {
	if tree.Version != "" {
		return tree.Version
	}

	data, err := json.Marshal(struct {
		Root  *Graph   `json:"root"`
		Flows []string `json:"flows"`
	}{Root: tree.Root, Flows: flowNames(tree.Flows)})
	if err != nil {
		return "invalid"
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}

func flowNames(flows map[string]FlowDefinition) []string {
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
