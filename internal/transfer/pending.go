package transfer

import (
	"fmt"
	"os"
	"path/filepath"
)

// PendingUpload is a file chosen for sending but not sent yet.
type PendingUpload struct {
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Size    int64   `json:"size"`
	Kind    Kind    `json:"kind"`
	Preview Preview `json:"preview"`
}

// Stage prepares path for upload.
func Stage(path string) (*PendingUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stage %s: is a directory", path)
	}
	preview, err := NewPreview(path)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", path, err)
	}
	return &PendingUpload{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Kind:    preview.Kind,
		Preview: preview,
	}, nil
}

// Open opens the staged file for reading.
func (p *PendingUpload) Open() (*os.File, error) {
	return os.Open(p.Path)
}
