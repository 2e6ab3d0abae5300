package orchestrator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pecover/internal/errs"
)

// makeFakeCovers creates n cover-like files directly in the current
// directory (relative names). The tests work in a temp working directory
// with relative names throughout, so each input is extracted back at
// out/<input path>; the archive drops the root of an absolute input name.
func makeFakeCovers(t *testing.T, n int) []string {
	t.Helper()
	covers := make([]string, n)
	for i := 0; i < n; i++ {
		name := string(rune('A'+i)) + ".exe"
		content := append([]byte("MZ"), bytes.Repeat([]byte{0x90}, 64)...)
		if err := os.WriteFile(name, content, 0o600); err != nil {
			t.Fatalf("writing fake cover %s: %v", name, err)
		}
		covers[i] = name
	}
	return covers
}

func makeInputFiles(t *testing.T) []string {
	t.Helper()
	if err := os.WriteFile("doc1.txt", []byte("the first hidden document, long enough to split decently"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile("doc2.txt", []byte("a shorter second document"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return []string{"doc1.txt", "doc2.txt"}
}

func TestHideUnhideRoundTripUnencrypted(t *testing.T) {
	t.Chdir(t.TempDir())
	inputs := makeInputFiles(t)
	covers := makeFakeCovers(t, 3)

	if err := Hide(HideRequest{InputPaths: inputs, CoverPaths: covers}); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}

	if err := Unhide(UnhideRequest{CoverPaths: covers, OutputDir: "out"}); err != nil {
		t.Fatalf("Unhide() error = %v", err)
	}

	for _, in := range inputs {
		want, err := os.ReadFile(in)
		if err != nil {
			t.Fatalf("reading original input: %v", err)
		}
		got, err := os.ReadFile(filepath.Join("out", in))
		if err != nil {
			t.Fatalf("reading extracted output for %s: %v", in, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("round trip mismatch for %s: got %q, want %q", in, got, want)
		}
	}
}

func TestHideUnhideRoundTripEncrypted(t *testing.T) {
	t.Chdir(t.TempDir())
	inputs := makeInputFiles(t)
	covers := makeFakeCovers(t, 2)

	if err := Hide(HideRequest{InputPaths: inputs, CoverPaths: covers, Password: "correct horse battery staple"}); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}

	if err := Unhide(UnhideRequest{CoverPaths: covers, OutputDir: "out", Password: "correct horse battery staple"}); err != nil {
		t.Fatalf("Unhide() error = %v", err)
	}

	for _, in := range inputs {
		want, err := os.ReadFile(in)
		if err != nil {
			t.Fatalf("reading original input: %v", err)
		}
		got, err := os.ReadFile(filepath.Join("out", in))
		if err != nil {
			t.Fatalf("reading extracted output for %s: %v", in, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("round trip mismatch for %s: got %q, want %q", in, got, want)
		}
	}
}

func TestUnhideEncryptedWithoutPasswordFails(t *testing.T) {
	t.Chdir(t.TempDir())
	inputs := makeInputFiles(t)
	covers := makeFakeCovers(t, 2)

	if err := Hide(HideRequest{InputPaths: inputs, CoverPaths: covers, Password: "pw"}); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}

	err := Unhide(UnhideRequest{CoverPaths: covers, OutputDir: "out"})
	if !errs.Is(err, errs.ErrEncryptedPayloadNoPassword) {
		t.Fatalf("expected ErrEncryptedPayloadNoPassword, got %v", err)
	}
}

func TestUnhideWrongPasswordIsAmbiguous(t *testing.T) {
	t.Chdir(t.TempDir())
	inputs := makeInputFiles(t)
	covers := makeFakeCovers(t, 2)

	if err := Hide(HideRequest{InputPaths: inputs, CoverPaths: covers, Password: "right"}); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}

	err := Unhide(UnhideRequest{CoverPaths: covers, OutputDir: "out", Password: "wrong"})
	if err == nil {
		t.Fatal("expected decrypt failure with wrong password")
	}
}

func TestHideLeavesNoTempFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	inputs := makeInputFiles(t)

	before, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}

	// No cover files at all: Hide must fail before creating any temp file.
	err = Hide(HideRequest{InputPaths: inputs})
	if err == nil {
		t.Fatal("expected Hide() to fail with no cover files")
	}

	after, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("Hide() left extra entries in dir: before=%d after=%d", len(before), len(after))
	}
}
