// Package archive bundles a set of input files into a single blob and
// restores them later. The container is a ZIP file whose entries are stored
// uncompressed (archive/zip's Stored method); each entry's bytes are
// themselves an XZ/LZMA2 stream, so the ZIP's directory stays
// human-recognizable while the actual compression lives one layer down.
package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"pecover/internal/errs"
	"pecover/internal/util"
)

var errEscapesDestDir = errors.New("entry escapes destination directory")

// xzDictCap mirrors the dictionary capacity XZ's preset level 6 uses for
// LZMA2 (8 MiB); ulikunitz/xz has no numeric preset knob, so this is set
// explicitly to match.
const xzDictCap = 8 << 20

// Create writes a ZIP container at blobPath containing one entry per path in
// inputPaths. Each entry is pre-compressed with XZ before being stored; its
// name is the input path normalized to a relative, non-escaping form (see
// entryName) so every entry Create writes is one Extract can later accept.
func Create(blobPath string, inputPaths []string) (err error) {
	out, err := os.Create(blobPath)
	if err != nil {
		return errs.NewArchiveError("create", blobPath, err)
	}
	defer func() {
		closeErr := out.Close()
		if err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(out)
	defer func() {
		closeErr := zw.Close()
		if err == nil {
			err = closeErr
		}
	}()

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	for _, path := range inputPaths {
		if err := addFile(zw, path, buf); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, path string, buf []byte) error {
	in, err := os.Open(path)
	if err != nil {
		return errs.NewArchiveError("create", path, err)
	}
	defer in.Close()

	header := &zip.FileHeader{Name: entryName(path), Method: zip.Store}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return errs.NewArchiveError("create", path, err)
	}

	xw, err := (xz.WriterConfig{DictCap: xzDictCap}).NewWriter(entry)
	if err != nil {
		return errs.NewArchiveError("create", path, err)
	}

	if _, err := io.CopyBuffer(xw, in, buf); err != nil {
		return errs.NewArchiveError("create", path, err)
	}
	return xw.Close()
}

// Extract reads the ZIP container at blobPath and writes each entry,
// decompressed, under destDir, creating destDir if it does not exist. Entry
// names that would resolve outside destDir are rejected rather than
// sanitized; extraction stops at the first such entry, leaving any files
// already written in place.
func Extract(blobPath, destDir string) error {
	zr, err := zip.OpenReader(blobPath)
	if err != nil {
		return errs.NewArchiveError("extract", blobPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errs.NewArchiveError("extract", destDir, err)
	}

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	for _, f := range zr.File {
		outPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			return errs.PathTraversal(f.Name)
		}

		if err := extractEntry(f, outPath, buf); err != nil {
			return err
		}
	}
	return nil
}

// entryName turns path, however it was supplied on the command line, into a
// ZIP entry name that is always relative and never escapes the extraction
// root: a leading volume/root is dropped and any leading ".." segments are
// stripped, so an absolute input path (e.g. "/home/u/secret.txt") round-trips
// through hide/unhide instead of being permanently unextractable once
// safeJoin rejects it as traversal.
func entryName(path string) string {
	name := filepath.ToSlash(filepath.Clean(path))
	name = strings.TrimPrefix(name, "/")
	if len(name) >= 2 && name[1] == ':' {
		// Windows volume, e.g. "C:/Users/...".
		name = name[2:]
		name = strings.TrimPrefix(name, "/")
	}
	for name == ".." || strings.HasPrefix(name, "../") {
		name = strings.TrimPrefix(strings.TrimPrefix(name, ".."), "/")
	}
	return name
}

// safeJoin joins destDir and name, rejecting absolute names and any result
// that would escape destDir.
func safeJoin(destDir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errEscapesDestDir
	}
	joined := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errEscapesDestDir
	}
	return joined, nil
}

func extractEntry(f *zip.File, outPath string, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return errs.NewArchiveError("extract", outPath, err)
	}

	rc, err := f.Open()
	if err != nil {
		return errs.NewArchiveError("extract", f.Name, err)
	}
	defer rc.Close()

	xr, err := xz.NewReader(rc)
	if err != nil {
		return errs.NewArchiveError("extract", f.Name, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errs.NewArchiveError("extract", outPath, err)
	}
	defer out.Close()

	if _, err := io.CopyBuffer(out, xr, buf); err != nil {
		return errs.NewArchiveError("extract", f.Name, err)
	}
	return nil
}
