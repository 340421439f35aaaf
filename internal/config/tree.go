package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/comalice/navigatorx/internal/primitives"
)

// Format names a declaration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported tree file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// LoadTree reads and validates a declaration tree file.
func LoadTree(path string) (*primitives.TreeFile, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree file: %w", err)
	}
	tree, err := DecodeTree(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// DecodeTree decodes and validates a declaration in the given format.
func DecodeTree(data []byte, format Format) (*primitives.TreeFile, error) {
	var tree primitives.TreeFile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &tree)
		if err != nil {
			return nil, fmt.Errorf("toml unmarshal: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("toml unmarshal: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported tree format %q", format)
	}

	if tree.Root == nil {
		return nil, fmt.Errorf("%w: root graph is required", primitives.ErrInvalidConfig)
	}
	normalize(tree.Root)
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// normalize fills in the screen kind for destinations declared without one.
func normalize(root *primitives.Graph) {
	_ = root.Walk(func(g *primitives.Graph, _ []*primitives.Graph) error {
		for _, d := range g.Destinations {
			if d != nil && d.Kind == "" {
				d.Kind = primitives.Screen
			}
		}
		return nil
	})
}
