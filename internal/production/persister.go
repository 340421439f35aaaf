// Package production provides production integrations: the observable store,
// snapshot persistence, visualization, metrics and breadcrumb localisation.

package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/comalice/navigatorx/internal/core"
)

// NewPersister returns a file persister for format "json" or "yaml".
func NewPersister(format, dir string) (core.Persister, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONPersister(dir)
	case "yaml", "yml":
		return NewYAMLPersister(dir)
	}
	return nil, fmt.Errorf("unknown persist format %q", format)
}

// JSONPersister stores one JSON file per session.
type JSONPersister struct {
	files snapshotFiles
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{files: newSnapshotFiles(dir, ".json")}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return p.files.write(snapshot.SessionID, snapshot.Version, data)
}

func (p *JSONPersister) Load(ctx context.Context, sessionID string) (core.Snapshot, error) {
	data, err := p.files.read(sessionID)
	if err != nil {
		return core.Snapshot{}, err
	}
	var snapshot core.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return loaded(sessionID, snapshot)
}

// YAMLPersister stores one YAML file per session.
type YAMLPersister struct {
	files snapshotFiles
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{files: newSnapshotFiles(dir, ".yaml")}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.Snapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return p.files.write(snapshot.SessionID, snapshot.Version, data)
}

func (p *YAMLPersister) Load(ctx context.Context, sessionID string) (core.Snapshot, error) {
	data, err := p.files.read(sessionID)
	if err != nil {
		return core.Snapshot{}, err
	}
	var snapshot core.Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.Snapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return loaded(sessionID, snapshot)
}

// loaded stamps the session on a decoded snapshot and rejects one without entries.
func loaded(sessionID string, snapshot core.Snapshot) (core.Snapshot, error) {
	snapshot.SessionID = sessionID
	if len(snapshot.BackStack) == 0 {
		return core.Snapshot{}, fmt.Errorf("session %q: snapshot has an empty back stack", sessionID)
	}
	return snapshot, nil
}

// snapshotFiles maps sessions to files in dir. Saves arrive from concurrent
// goroutines, so a save older than the last written version is skipped.
type snapshotFiles struct {
	dir      string
	ext      string
	mu       *sync.Mutex
	versions map[string]uint64
}

func newSnapshotFiles(dir, ext string) snapshotFiles {
	return snapshotFiles{dir: dir, ext: ext, mu: &sync.Mutex{}, versions: make(map[string]uint64)}
}

func (f snapshotFiles) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(f.dir, sessionID+f.ext), nil
}

// write replaces the session file through a temp file so readers never see a
// torn snapshot.
func (f snapshotFiles) write(sessionID string, version uint64, data []byte) error {
	fn, err := f.path(sessionID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if last, ok := f.versions[sessionID]; ok && version != 0 && version < last {
		return nil
	}

	tmp, err := os.CreateTemp(f.dir, sessionID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", f.dir, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), fn); err != nil {
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	f.versions[sessionID] = version
	return nil
}

func (f snapshotFiles) read(sessionID string) ([]byte, error) {
	fn, err := f.path(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
