package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"chatbridge/internal/model"
	"chatbridge/internal/transcode"
)

type fileModelWriter struct {
	dir string
}

// NewFileModelWriter returns a ModelWriter that writes into dir, creating it
// if needed.
func NewFileModelWriter(dir string) (ModelWriter, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &fileModelWriter{dir: dir}, nil
}

// WriteModel writes rec as a single-element array to Model-<title>.json. A file
// left by an earlier preset with the same sanitized title is overwritten.
func (w *fileModelWriter) WriteModel(rec model.ModelRecord) (string, error) {
	name := transcode.ModelFileName(rec.Name)
	if err := w.writeJSON(name, []model.ModelRecord{rec}); err != nil {
		return "", err
	}
	return name, nil
}

func (w *fileModelWriter) WriteCombined(recs []model.ModelRecord) error {
	if recs == nil {
		recs = []model.ModelRecord{}
	}
	return w.writeJSON(transcode.CombinedModelsFile, recs)
}

// writeJSON replaces name atomically so an interrupted run never leaves a
// truncated file behind.
func (w *fileModelWriter) writeJSON(name string, v any) error {
	data, err := encodeJSON(v, true)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file for %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("could not set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("could not move %s into place: %w", name, err)
	}
	return nil
}
