package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFilterPDF(t *testing.T) {
	pdf := entity.Document{Name: "a.pdf", ContentType: constants.PDFContentType}
	png := entity.Document{Name: "b.png", ContentType: "image/png"}
	byExt := entity.Document{Name: "c.PDF"}

	kept, msg := FilterPDF([]entity.Document{pdf, png, byExt})
	assert.Equal(t, []entity.Document{pdf, byExt}, kept)
	assert.Equal(t, MsgSomeSkipped, msg)

	kept, msg = FilterPDF([]entity.Document{pdf})
	assert.Len(t, kept, 1)
	assert.Empty(t, msg)

	kept, msg = FilterPDF(nil)
	assert.Empty(t, kept)
	assert.Equal(t, MsgNoValidPDF, msg)

	kept, msg = FilterPDF([]entity.Document{png})
	assert.Empty(t, kept)
	assert.Equal(t, MsgSomeSkipped, msg)
}

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "order.pdf", "%PDF-1.7 body")

	doc, err := NewFSLoader(nil).LoadPath(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, "order.pdf", doc.Name)
	assert.Equal(t, constants.PDFContentType, doc.ContentType)
	assert.NotEmpty(t, doc.Handle)
	assert.Len(t, doc.Checksum, 64)
	assert.Equal(t, int64(len("%PDF-1.7 body")), doc.Size)
	assert.Equal(t, []byte("%PDF-1.7 body"), doc.Data)
}

func TestLoadPath_RejectsNonPDF(t *testing.T) {
	p := writeFile(t, t.TempDir(), "notes.txt", "x")
	_, err := NewFSLoader(nil).LoadPath(context.Background(), p)
	require.Error(t, err)
}

func TestLoadPaths_WalksKeepingSameContentFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "two")
	a := writeFile(t, dir, "a.pdf", "one")
	writeFile(t, dir, "sub/c.pdf", "one")
	writeFile(t, dir, "skip.txt", "x")
	writeFile(t, dir, ".hidden/d.pdf", "three")

	results, stats, err := NewFSLoader(nil).LoadPaths(context.Background(), []string{dir, a}, true)

	require.NoError(t, err)
	docs := Documents(results)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.pdf", docs[0].Name)
	assert.Equal(t, "b.pdf", docs[1].Name)
	assert.Equal(t, "c.pdf", docs[2].Name)
	assert.Equal(t, docs[0].Checksum, docs[2].Checksum)
	assert.NotEqual(t, docs[0].Handle, docs[2].Handle)
	assert.EqualValues(t, 3, stats.Matched, "a.pdf named twice is read once")
	assert.EqualValues(t, 3, stats.Loaded)
	assert.Zero(t, stats.Duplicates)
	assert.Zero(t, stats.Failed)
}

func TestLoadPaths_SkipIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "one")
	writeFile(t, dir, "b.pdf", "one")
	loader := NewFSLoader(nil)
	loader.SkipIdenticalContent = true

	results, stats, err := loader.LoadPaths(context.Background(), []string{dir}, false)

	require.NoError(t, err)
	docs := Documents(results)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].Name)
	assert.EqualValues(t, 1, stats.Duplicates)
}

func TestLoadPaths_MissingFileRecorded(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "a.pdf", "one")

	results, stats, err := NewFSLoader(nil).LoadPaths(context.Background(), []string{filepath.Join(dir, "nope.pdf"), ok}, false)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Err)
	assert.EqualValues(t, 1, stats.Failed)
	assert.Len(t, Documents(results), 1)
}

func TestStartWatcher_InitialScanBurst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "two")
	writeFile(t, dir, "a.pdf", "one")
	writeFile(t, dir, "x.txt", "no")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bursts, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Settle: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case burst := <-bursts:
		assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}, burst)
	case <-time.After(2 * time.Second):
		t.Fatal("no burst emitted")
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	require.Error(t, err)
}
