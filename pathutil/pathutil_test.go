package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Normalize("~", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(home) {
		t.Fatalf("expected %q, got %q", home, got)
	}
}

func TestNormalize_TildeSlash(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Normalize("~/projects/x", "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "projects", "x")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Absolute(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "tmp", "a", "..", "b")
	got, err := Normalize(abs, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Clean(abs)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if strings.Contains(got, "..") {
		t.Fatalf("expected no .. segments in %q", got)
	}
}

func TestNormalize_RelativeJoinsBase(t *testing.T) {
	got, err := Normalize("sub/dir", "/base")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Clean(filepath.Join("/base", "sub", "dir"))
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalize_EmptyUnchanged(t *testing.T) {
	for _, in := range []string{"", "   "} {
		got, err := Normalize(in, "")
		if err != nil {
			t.Fatal(err)
		}
		if got != in {
			t.Fatalf("expected unchanged %q, got %q", in, got)
		}
	}
}

func TestNormalize_NoAlternateSeparators(t *testing.T) {
	got, err := Normalize(`a\b\c`, "/base")
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsRune(got, '\\') && filepath.Separator != '\\' {
		t.Fatalf("expected no backslash separators on this platform, got %q", got)
	}
}

func TestNormalizeSeparators_EmptyUnchanged(t *testing.T) {
	if got := NormalizeSeparators(""); got != "" {
		t.Fatalf("expected empty to stay empty, got %q", got)
	}
}

func TestNormalizeSeparators_StaysRelative(t *testing.T) {
	got := NormalizeSeparators(`a\b`)
	if filepath.IsAbs(got) {
		t.Fatalf("expected relative path to stay relative, got %q", got)
	}
}
