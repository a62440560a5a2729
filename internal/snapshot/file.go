// Package snapshot keeps each company's job listings between runs so the
// next run can diff against them.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jonathan/hiring-signal/internal/types"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStore keeps one JSON file per company under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the last saved snapshot for businessID, or nil if none exists.
func (s *FileStore) Load(_ context.Context, businessID string) (*types.Snapshot, error) {
	data, err := os.ReadFile(s.path(businessID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", businessID, err)
	}
	return &snap, nil
}

// Save replaces the snapshot for snap.BusinessID. The file is written to a
// temporary name and renamed so readers never see a partial snapshot.
func (s *FileStore) Save(_ context.Context, snap types.Snapshot) error {
	if snap.BusinessID == "" {
		return fmt.Errorf("snapshot has no business id")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(snap.BusinessID)); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

func (s *FileStore) path(businessID string) string {
	return filepath.Join(s.dir, unsafeName.ReplaceAllString(businessID, "_")+".json")
}

// ReadFile loads a snapshot from an arbitrary JSON file.
func ReadFile(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file %s: %w", path, err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}
	return &snap, nil
}
