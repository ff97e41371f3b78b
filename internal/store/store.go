// Package store writes the per-run screenshot artifacts: the raw capture and
// the copy with the grid overlay. Both files are overwritten on every run.
package store

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/internal/config"
)

// Store persists run artifacts under a single directory.
type Store struct {
	dir        string
	screenshot string
	overlay    string
	log        *zap.Logger
}

// New expands cfg.Dir (including a leading ~) and creates it if needed.
func New(cfg config.ArtifactsConfig, logger *zap.Logger) (*Store, error) {
	dir, err := homedir.Expand(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand artifacts dir %q: %w", cfg.Dir, err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	return &Store{
		dir:        dir,
		screenshot: cfg.Screenshot,
		overlay:    cfg.Overlay,
		log:        logger.Named("store"),
	}, nil
}

// Dir returns the expanded artifacts directory.
func (s *Store) Dir() string { return s.dir }

// SaveScreenshot writes the raw capture and returns its path.
func (s *Store) SaveScreenshot(img image.Image) (string, error) {
	path := filepath.Join(s.dir, s.screenshot)
	_, err := s.write(path, img)
	return path, err
}

// SaveOverlay writes the annotated image and returns its path together with
// the PNG bytes, which are what the vision model receives.
func (s *Store) SaveOverlay(img image.Image) (string, []byte, error) {
	path := filepath.Join(s.dir, s.overlay)
	data, err := s.write(path, img)
	return path, data, err
}

func (s *Store) write(path string, img image.Image) ([]byte, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.log.Debug("Artifact written", zap.String("path", path), zap.Int("bytes", len(data)))
	return data, nil
}

// EncodePNG encodes img with default compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
