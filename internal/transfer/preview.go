package transfer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const thumbSize = 120

// Preview is what a client shows for a staged attachment.
type Preview struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	MIME    string `json:"mime,omitempty"`
	DataURL string `json:"dataUrl,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Label is the name plus human-readable size.
func (p Preview) Label() string {
	return fmt.Sprintf("%s (%s)", p.Name, HumanSize(p.Size))
}

// NewPreview builds the preview for the file at path: an inline thumbnail
// for images, a file URL for video and pdf, and name plus size otherwise.
func NewPreview(path string) (Preview, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{
		Kind: Classify(path),
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		p.MIME = mt.String()
	}

	switch p.Kind {
	case KindImage:
		if dataURL, err := thumbnail(path); err == nil {
			p.DataURL = dataURL
		} else {
			p.URL = fileURL(path)
		}
	case KindVideo, KindPDF:
		p.URL = fileURL(path)
	}
	return p, nil
}

func thumbnail(path string) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumb := imaging.Thumbnail(img, thumbSize, thumbSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// HumanSize formats n bytes as B, KB, MB or GB.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}
