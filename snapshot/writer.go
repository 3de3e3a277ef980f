package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/skisnap/models"
)

// Write persists snap to path as indented JSON. The document is written to
// a temporary file in the same directory, synced and renamed over path, so
// a crash mid-write leaves the previous snapshot intact. Missing parent
// directories are created. Every failure is a PERSIST_FAILED error.
func Write(path string, snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "marshal snapshot", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, fmt.Sprintf("create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "sync temp file", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "chmod temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, "close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return models.NewPipelineError(models.ErrCodePersist, fmt.Sprintf("rename to %s", path), err)
	}
	committed = true
	return nil
}

// Read loads a snapshot previously written by Write.
func Read(path string) (models.Snapshot, error) {
	var snap models.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}
