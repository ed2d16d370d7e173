package constants

import (
	"path/filepath"
	"strings"
)

// PDFContentType is the only document type the extraction service accepts.
const PDFContentType = "application/pdf"

// AllowedExtensions holds the document extensions accepted for upload.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether a document looks like a PDF by content type or file name.
func IsPDF(name, contentType string) bool {
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != "" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
		return ct == PDFContentType
	}
	_, ok := AllowedExtensions[NormalizeExt(filepath.Ext(name))]
	return ok
}
