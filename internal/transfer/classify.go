// Package transfer implements the attachment side of the chat: filename
// classification, previews for staged files and the chunked upload encoding.
package transfer

import (
	"path/filepath"
	"strings"
)

// Kind is the attachment category used to pick a preview.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindPDF   Kind = "pdf"
	KindOther Kind = "other"
)

var extKinds = map[string]Kind{
	"jpg": KindImage, "jpeg": KindImage, "png": KindImage, "gif": KindImage, "svg": KindImage, "webp": KindImage,
	"mp4": KindVideo, "avi": KindVideo, "mov": KindVideo, "wmv": KindVideo, "mkv": KindVideo,
	"pdf": KindPDF,
}

// Classify maps a filename to its Kind by extension, ignoring case.
// Names without a known extension are KindOther.
func Classify(name string) Kind {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if k, ok := extKinds[strings.ToLower(ext)]; ok {
		return k
	}
	return KindOther
}
