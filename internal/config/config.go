// internal/config/config.go
//
// This package knows where things live. Every project verified by storydod
// keeps its sprint tracking under docs/implementation-artifacts/: the sprint
// status YAML plus one markdown record per story.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// ArtifactsDir is the project-relative directory holding sprint artifacts.
	ArtifactsDir = "docs/implementation-artifacts"

	// StatusFile is the sprint status document inside ArtifactsDir.
	StatusFile = "sprint-status.yaml"

	// RecordExt is appended to a story key to form its record file name.
	RecordExt = ".md"
)

// Layout resolves the fixed artifact paths for one project root.
type Layout struct {
	// Root is the project directory the paths are anchored to.
	Root string
}

// NewLayout builds a layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// Discover walks up from start until it finds a directory containing the
// sprint status document. When no ancestor has one, start itself is used
// so the caller reports the missing status file against the working tree.
func Discover(start string) (Layout, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return Layout{}, fmt.Errorf("config: resolve %s: %w", start, err)
	}
	dir := abs
	for {
		candidate := NewLayout(dir)
		info, statErr := os.Stat(candidate.StatusPath())
		switch {
		case statErr == nil && !info.IsDir():
			return candidate, nil
		case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
			return Layout{}, fmt.Errorf("config: inspect %s: %w", candidate.StatusPath(), statErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return NewLayout(abs), nil
		}
		dir = parent
	}
}

// ArtifactsDir returns the directory holding the status document and records.
func (l Layout) ArtifactsDir() string {
	return filepath.Join(l.Root, filepath.FromSlash(ArtifactsDir))
}

// StatusPath returns the path to sprint-status.yaml.
func (l Layout) StatusPath() string {
	return filepath.Join(l.ArtifactsDir(), StatusFile)
}

// RecordsDir returns the directory story records are read from.
func (l Layout) RecordsDir() string {
	return l.ArtifactsDir()
}

// RecordPath returns the record file for a story key.
func (l Layout) RecordPath(key string) string {
	return filepath.Join(l.RecordsDir(), key+RecordExt)
}
