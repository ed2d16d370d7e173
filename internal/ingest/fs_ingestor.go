package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// FSLoader reads documents from the local filesystem. A file reached twice
// through overlapping paths is loaded once; files that only share content
// are separate documents unless SkipIdenticalContent is set.
type FSLoader struct {
	SkipIdenticalContent bool

	logger *slog.Logger
}

func NewFSLoader(logger *slog.Logger) *FSLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLoader{logger: logger}
}

// LoadPath reads one file. Non-PDF files are rejected.
func (l *FSLoader) LoadPath(ctx context.Context, path string) (entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return entity.Document{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return entity.Document{}, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		l.logger.Warn("ingest.read_failed", "path", abs, "error", err)
		return entity.Document{}, err
	}
	doc := NewDocument(filepath.Base(abs), constants.PDFContentType, data)
	doc.SourcePath = abs
	return doc, nil
}

// NewDocument wraps uploaded bytes under a fresh handle.
func NewDocument(name, contentType string, data []byte) entity.Document {
	sum := sha256.Sum256(data)
	return entity.Document{
		Name:        name,
		ContentType: contentType,
		Handle:      uuid.NewString(),
		Checksum:    hex.EncodeToString(sum[:]),
		Size:        int64(len(data)),
		Data:        data,
	}
}

// LoadPaths loads files and directories in argument order. Directories are
// walked in lexical order.
func (l *FSLoader) LoadPaths(ctx context.Context, paths []string, skipHidden bool) ([]LoadResult, DirStats, error) {
	var (
		results []LoadResult
		stats   DirStats
	)
	seenPath := map[string]struct{}{}
	seenSum := map[string]struct{}{}
	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			if _, ok := seenPath[abs]; ok {
				return
			}
			seenPath[abs] = struct{}{}
		}
		stats.Matched++
		doc, err := l.LoadPath(ctx, path)
		if err != nil {
			results = append(results, LoadResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return
		}
		_, dup := seenSum[doc.Checksum]
		dup = dup && l.SkipIdenticalContent
		seenSum[doc.Checksum] = struct{}{}
		results = append(results, LoadResult{SourcePath: doc.SourcePath, Document: doc, Duplicate: dup})
		if dup {
			stats.Duplicates++
			return
		}
		stats.Loaded++
	}

	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return results, stats, errors.New("empty path")
		}
		info, err := os.Stat(p)
		if err != nil {
			stats.Scanned++
			results = append(results, LoadResult{SourcePath: p, Err: err.Error()})
			stats.Failed++
			continue
		}
		if !info.IsDir() {
			stats.Scanned++
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			stats.Scanned++
			if walkErr != nil {
				results = append(results, LoadResult{SourcePath: path, Err: walkErr.Error()})
				stats.Failed++
				return nil
			}
			if skipHidden && path != p && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return results, stats, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	l.logger.Info("ingest.load.done",
		"scanned", stats.Scanned,
		"loaded", stats.Loaded,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// Documents returns the loaded documents of results in order, minus skipped
// duplicates.
func Documents(results []LoadResult) []entity.Document {
	var out []entity.Document
	for _, r := range results {
		if r.Err == "" && !r.Duplicate {
			out = append(out, r.Document)
		}
	}
	return out
}
