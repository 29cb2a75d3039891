// Package archive reads style documents packed into zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/h2non/filetype"
)

// MaxEntrySize limits size of a single archive entry read into memory.
const MaxEntrySize = 16 << 20

// WalkFunc is called for each matching entry visited by Walk with the entry
// name inside the archive and its content. If an error is returned,
// processing stops.
type WalkFunc func(name string, data []byte) error

// headerSize is enough for filetype matchers to recognize any archive kind.
const headerSize = 262

// IsArchive reports whether file at path is a zip archive.
func IsArchive(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// Walk visits regular entries of the archive located under prefix whose
// extension is one of exts (any extension when exts is empty), in archive
// order. Entries with path traversal components ("..") or absolute paths
// make Walk fail.
func Walk(archive, prefix string, exts []string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	prefix = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(prefix, `\`, "/")), "/")
	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(path.Ext(name))) {
			continue
		}
		if f.UncompressedSize64 > MaxEntrySize {
			return fmt.Errorf("zip entry %q: too large (%d bytes)", name, f.UncompressedSize64)
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		if err := walkFn(name, data); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxEntrySize))
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
