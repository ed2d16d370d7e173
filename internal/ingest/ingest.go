// Package ingest turns local files into documents ready for a batch run.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// Selection messages shown when documents are picked.
const (
	MsgSomeSkipped = "Some files were skipped. Only PDF files are allowed."
	MsgNoValidPDF  = "Please select valid PDF files"
)

// LoadResult is the per-file load outcome.
type LoadResult struct {
	SourcePath string
	Document   entity.Document
	Duplicate  bool
	Err        string
}

// DirStats summarizes a directory load.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Loaded     uint32
	Duplicates uint32
	Failed     uint32
}

// FilterPDF keeps the PDF documents and returns the message the selection
// should surface ("" when nothing was dropped and something was selected).
func FilterPDF(docs []entity.Document) ([]entity.Document, string) {
	kept := make([]entity.Document, 0, len(docs))
	for _, d := range docs {
		if constants.IsPDF(d.Name, d.ContentType) {
			kept = append(kept, d)
		}
	}
	switch {
	case len(kept) != len(docs):
		return kept, MsgSomeSkipped
	case len(kept) == 0:
		return kept, MsgNoValidPDF
	default:
		return kept, ""
	}
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
