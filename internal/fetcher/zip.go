package fetcher

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

var zipMagic = []byte("PK\x03\x04")

// IsZIP reports whether the file at path starts with the ZIP local-file
// signature.
func IsZIP(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, eris.Wrap(err, "zip: open file")
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, eris.Wrap(err, "zip: read header")
	}
	return bytes.Equal(head[:n], zipMagic), nil
}

// WalkZIP streams every regular file in the archive whose name satisfies
// match to fn, in archive order. Entries are read in place, never extracted
// to disk. A nil match visits every file.
func WalkZIP(zipPath string, match func(name string) bool, fn func(name string, r io.Reader) error) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	visited := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if match != nil && !match(f.Name) {
			continue
		}
		if err := walkEntry(f, fn); err != nil {
			return visited, err
		}
		visited++
	}
	return visited, nil
}

func walkEntry(f *zip.File, fn func(name string, r io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	if err := fn(f.Name, rc); err != nil {
		return eris.Wrapf(err, "zip: process entry %s", f.Name)
	}
	return nil
}
