package evidence

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"assetledger/pkg/domain"
)

// DirIndex scans an evidence directory tree for files following the
// ASSETID_STAGE_SEQ_TIMESTAMP.jpg convention, for example
// CAB-20250107-0001_destroyed_01_20250107_143022.jpg. Technicians drop
// camera exports into the tree; the index only reads it.
type DirIndex struct {
	root string
}

// NewDirIndex points the index at an evidence directory.
func NewDirIndex(root string) *DirIndex {
	return &DirIndex{root: root}
}

func (d *DirIndex) Refs(ctx context.Context, assetID domain.AssetID, stage domain.Stage) ([]string, error) {
	prefix := fmt.Sprintf("%s_%s_", assetID, stage)

	var refs []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			rel, rerr := filepath.Rel(d.root, path)
			if rerr != nil {
				rel = path
			}
			refs = append(refs, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan evidence directory: %w", err)
	}
	return refs, nil
}

// InMemoryIndex is a fixture index for tests.
type InMemoryIndex struct {
	refs map[string][]string
}

// NewInMemoryIndex constructs an empty fixture index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{refs: make(map[string][]string)}
}

// Add registers an evidence reference.
func (m *InMemoryIndex) Add(assetID domain.AssetID, stage domain.Stage, ref string) {
	key := string(assetID) + "|" + string(stage)
	m.refs[key] = append(m.refs[key], ref)
}

func (m *InMemoryIndex) Refs(_ context.Context, assetID domain.AssetID, stage domain.Stage) ([]string, error) {
	return m.refs[string(assetID)+"|"+string(stage)], nil
}
