package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func makeFakeCover(t *testing.T, name string) string {
	t.Helper()
	content := append([]byte("MZ"), bytes.Repeat([]byte{0x90}, 64)...)
	if err := os.WriteFile(name, content, 0o600); err != nil {
		t.Fatalf("writing fake cover: %v", err)
	}
	return name
}

func resetHideFlags() {
	hidePassword = ""
	hideStdin = false
	hideQuiet = true
	hideVerbose = false
}

func resetUnhideFlags() {
	unhidePassword = ""
	unhideStdin = false
	unhideOutput = "."
	unhideQuiet = true
	unhideVerbose = false
}

func TestHideUnhideRoundTripViaCLI(t *testing.T) {
	t.Chdir(t.TempDir())
	resetHideFlags()
	resetUnhideFlags()

	if err := os.WriteFile("secret.txt", []byte("hi\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cover := makeFakeCover(t, "a.exe")

	hidePassword = "correct horse battery staple"
	if err := runHideArgs([]string{"secret.txt"}, []string{cover}); err != nil {
		t.Fatalf("runHideArgs: %v", err)
	}

	unhideOutput = "out"
	unhidePassword = "correct horse battery staple"
	if err := runUnhide(unhideCmd, []string{cover}); err != nil {
		t.Fatalf("runUnhide: %v", err)
	}

	got, err := os.ReadFile(filepath.Join("out", "secret.txt"))
	if err != nil {
		t.Fatalf("reading recovered file: %v", err)
	}
	if string(got) != "hi\n" {
		t.Fatalf("recovered content = %q, want %q", got, "hi\n")
	}
}

func TestHideRequiresDashSeparator(t *testing.T) {
	t.Chdir(t.TempDir())
	resetHideFlags()

	if err := os.WriteFile("in.txt", []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	cover := makeFakeCover(t, "a.exe")

	err := runHide(hideCmd, []string{"in.txt", cover})
	if err == nil {
		t.Fatal("expected error when \"--\" separator is missing")
	}
}

func TestHideDashSeparatorViaExecute(t *testing.T) {
	t.Chdir(t.TempDir())
	resetHideFlags()
	resetUnhideFlags()

	if err := os.WriteFile("secret.txt", []byte("via execute\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cover := makeFakeCover(t, "a.exe")

	rootCmd.SetArgs([]string{"hide", "--quiet", "--password", "pw", "secret.txt", "--", cover})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("rootCmd.Execute() (hide): %v", err)
	}

	rootCmd.SetArgs([]string{"unhide", "--quiet", "--password", "pw", "--output", "out", cover})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("rootCmd.Execute() (unhide): %v", err)
	}

	got, err := os.ReadFile(filepath.Join("out", "secret.txt"))
	if err != nil {
		t.Fatalf("reading recovered file: %v", err)
	}
	if string(got) != "via execute\n" {
		t.Fatalf("recovered content = %q, want %q", got, "via execute\n")
	}
}

func TestUnhideMissingPartsReportsCleanError(t *testing.T) {
	t.Chdir(t.TempDir())
	resetHideFlags()
	resetUnhideFlags()

	if err := os.WriteFile("in.txt", []byte("hello world, split across covers"), 0o600); err != nil {
		t.Fatal(err)
	}
	covers := []string{makeFakeCover(t, "a.exe"), makeFakeCover(t, "b.exe"), makeFakeCover(t, "c.exe")}

	hidePassword = "pw"
	if err := runHideArgs([]string{"in.txt"}, covers); err != nil {
		t.Fatalf("runHideArgs: %v", err)
	}

	unhideOutput = "out"
	err := runUnhide(unhideCmd, covers[:2])
	if err == nil {
		t.Fatal("expected MissingParts error when a cover is omitted")
	}
}
