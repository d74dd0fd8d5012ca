package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists catalogue results as pretty-printed JSON files under
// <baseDir>/<runID>/<name>.json, one file per query, for offline
// comparison of runs.
type Writer struct {
	baseDir string
	runID   string
}

func NewWriter(baseDir, runID string) *Writer {
	return &Writer{baseDir: baseDir, runID: runID}
}

func (w *Writer) Write(name string, payload any) error {
	dir := filepath.Join(w.baseDir, w.runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	file := filepath.Join(dir, name+".json")
	out, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
