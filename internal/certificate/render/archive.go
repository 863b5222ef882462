package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirArchive writes rendered documents into a certificates directory and
// returns the stored path. Filenames come from the gate, which derives them
// from the artifact number.
type DirArchive struct {
	root string
}

// NewDirArchive points the archive at a directory, creating it if needed.
func NewDirArchive(root string) (*DirArchive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &DirArchive{root: root}, nil
}

// Store writes one document and returns its path.
func (a *DirArchive) Store(_ context.Context, filename string, doc []byte) (string, error) {
	path := filepath.Join(a.root, filename)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write document %s: %w", filename, err)
	}
	return path, nil
}

// InMemoryArchive collects documents in a map for tests.
type InMemoryArchive struct {
	Docs map[string][]byte
}

// NewInMemoryArchive constructs an empty archive.
func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{Docs: make(map[string][]byte)}
}

func (a *InMemoryArchive) Store(_ context.Context, filename string, doc []byte) (string, error) {
	a.Docs[filename] = append([]byte(nil), doc...)
	return filename, nil
}
