package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"pecover/internal/errs"
)

func TestCreateExtractRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	fileA := filepath.Join("src", "a.txt")
	fileB := filepath.Join("src", "b.txt")
	contentA := []byte("contents of file a, repeated a bit for compression to matter aaaaaaaaaaaaaaaaaaaaaaaa")
	contentB := []byte("contents of file b")
	if err := os.MkdirAll("src", 0o755); err != nil {
		t.Fatalf("creating fixture dir: %v", err)
	}
	if err := os.WriteFile(fileA, contentA, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(fileB, contentB, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := Create("blob.zip", []string{fileA, fileB}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := Extract("blob.zip", "out"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	gotA, err := os.ReadFile(filepath.Join("out", fileA))
	if err != nil {
		t.Fatalf("reading extracted a.txt: %v", err)
	}
	if !bytes.Equal(gotA, contentA) {
		t.Fatalf("extracted a.txt = %q, want %q", gotA, contentA)
	}

	gotB, err := os.ReadFile(filepath.Join("out", fileB))
	if err != nil {
		t.Fatalf("reading extracted b.txt: %v", err)
	}
	if !bytes.Equal(gotB, contentB) {
		t.Fatalf("extracted b.txt = %q, want %q", gotB, contentB)
	}
}

// TestCreateExtractAbsoluteInputPath pins down that an input supplied by
// absolute path - the common case, since cobra.Args are whatever the caller
// typed - still round-trips: Create must not store the literal absolute
// name, since Extract's safeJoin rejects any absolute entry as traversal.
func TestCreateExtractAbsoluteInputPath(t *testing.T) {
	srcDir := t.TempDir()
	absFile := filepath.Join(srcDir, "secret.txt")
	content := []byte("hidden by absolute path")
	if err := os.WriteFile(absFile, content, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	t.Chdir(t.TempDir())

	if err := Create("blob.zip", []string{absFile}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := Extract("blob.zip", "out"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join("out", entryName(absFile)))
	if err != nil {
		t.Fatalf("reading extracted file at %q: %v", entryName(absFile), err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("extracted content = %q, want %q", got, content)
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	blob := filepath.Join(t.TempDir(), "evil.zip")

	out, err := os.Create(blob)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(out)
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: "../../etc/passwd", Method: zip.Store})
	if err != nil {
		t.Fatalf("creating malicious entry: %v", err)
	}
	xw, err := xz.NewWriter(entry)
	if err != nil {
		t.Fatalf("creating xz writer: %v", err)
	}
	if _, err := xw.Write([]byte("pwned")); err != nil {
		t.Fatalf("writing entry contents: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("closing xz writer: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("closing blob: %v", err)
	}

	destDir := t.TempDir()
	err = Extract(blob, destDir)
	if err == nil {
		t.Fatal("expected Extract() to reject a path-traversal entry")
	}
	var archiveErr *errs.ArchiveError
	if !errs.As(err, &archiveErr) {
		t.Fatalf("expected *errs.ArchiveError, got %T", err)
	}
}
