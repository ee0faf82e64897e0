// Package assets lists candidate scene/environment files on disk for
// a picker UI: scan a directory, filter by extension, and hand each
// match an opaque identity. Identities are minted fresh on every scan;
// the same path gets a different Handle from a later Search call.
package assets

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/solstice-rt/solstice/internal/rterr"
)

// Handle is an opaque identity for one search result, unique within
// and across Search calls. It is not carried over between scans: a
// re-scan gives every entry, including unchanged files, a new Handle.
type Handle string

func newHandle() Handle { return Handle(uuid.NewString()) }

// Entry is one file found by Search.
type Entry struct {
	Handle Handle
	Path   string
}

// Search lists every file directly inside dir whose extension matches
// ext (given without a leading dot, e.g. "gltf"), sorted
// lexicographically by path. Subdirectories are skipped. Any error
// from reading the directory fails the whole scan with an AssetIO
// error; no partial listing is returned.
func Search(dir, ext string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rterr.Wrap(rterr.AssetIO, "reading asset directory "+dir, err)
	}

	var paths []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(dir, de.Name())
		if filepath.Ext(path) == "."+ext {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	entries := make([]Entry, len(paths))
	for i, p := range paths {
		entries[i] = Entry{Handle: newHandle(), Path: p}
	}
	return entries, nil
}
