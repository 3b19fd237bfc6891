package trust

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCheck_NeverSeenIsNew(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "pipeline.yml", "name: demo")
	store := Open(filepath.Join(dir, "store.json"))

	result, err := store.Check(target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != New {
		t.Fatalf("expected New, got %v", result.Status)
	}
	if len(result.CurrentHash) != 64 {
		t.Fatalf("expected a 64-char hex hash, got %q (%d chars)", result.CurrentHash, len(result.CurrentHash))
	}
}

func TestTrustThenCheck_SameBytesIsTrusted(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "pipeline.yml", "name: demo")
	store := Open(filepath.Join(dir, "store.json"))

	if err := store.Trust(target, ""); err != nil {
		t.Fatal(err)
	}
	result, err := store.Check(target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != Trusted {
		t.Fatalf("expected Trusted, got %v", result.Status)
	}
}

func TestTrustModifyCheck_IsModifiedWithDifferentHashes(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "pipeline.yml", "name: demo")
	store := Open(filepath.Join(dir, "store.json"))

	if err := store.Trust(target, ""); err != nil {
		t.Fatal(err)
	}
	writeTemp(t, dir, "pipeline.yml", "name: demo-modified")

	result, err := store.Check(target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != Modified {
		t.Fatalf("expected Modified, got %v", result.Status)
	}
	if result.PreviousHash == result.CurrentHash {
		t.Fatal("expected previous and current hashes to differ")
	}
}

func TestTrust_SurvivesFreshStoreInstance(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "pipeline.yml", "name: demo")
	storePath := filepath.Join(dir, "store.json")

	store1 := Open(storePath)
	if err := store1.Trust(target, ""); err != nil {
		t.Fatal(err)
	}

	store2 := Open(storePath)
	result, err := store2.Check(target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != Trusted {
		t.Fatalf("expected Trusted after reopening the store, got %v", result.Status)
	}
}

func TestCorruptStoreFile_TreatsEveryPathAsNew(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "pipeline.yml", "name: demo")
	storePath := writeTemp(t, dir, "store.json", "{ not valid json ")

	store := Open(storePath)
	result, err := store.Check(target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != New {
		t.Fatalf("expected New for a corrupt store, got %v", result.Status)
	}
}
