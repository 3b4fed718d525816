package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest is the small JSON sidecar every partition carries:
// highwater sequence, a monotonically increasing revision bumped on
// every write, and (once closed) the time it was sealed.
type Manifest struct {
	HighwaterSequence uint64     `json:"highwater_sequence"`
	ManifestRevision  uint64     `json:"manifest_revision"`
	SealedAt          *time.Time `json:"sealed_at,omitempty"`
}

func manifestPath(partitionDir string) string {
	return filepath.Join(partitionDir, "manifest.json")
}

func readManifest(partitionDir string) (Manifest, error) {
	path := manifestPath(partitionDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest %s: %w", path, err)
	}
	return m, nil
}

// writeManifestAtomic writes the manifest via temp-file-then-rename so
// a crash mid-write never leaves a partially written manifest behind.
func writeManifestAtomic(partitionDir string, m Manifest) error {
	path := manifestPath(partitionDir)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
