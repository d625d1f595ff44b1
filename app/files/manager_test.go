package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "base"))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestWriteReadRoundtrip(t *testing.T) {
	m := newTestManager(t)
	path, err := m.WriteFile("notes/hello.txt", "hi there")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, m.BasePath()) {
		t.Fatalf("written outside base: %s", path)
	}
	content, err := m.ReadFile("notes/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != "hi there" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestReadBinaryRejected(t *testing.T) {
	m := newTestManager(t)
	raw := []byte{0xff, 0xfe, 0x00, 0x81}
	if err := os.WriteFile(filepath.Join(m.BasePath(), "blob.bin"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadFile("blob.bin"); !errors.Is(err, ErrBinaryFile) {
		t.Fatalf("expected ErrBinaryFile, got %v", err)
	}
}

func TestPathConfinement(t *testing.T) {
	m := newTestManager(t)
	cases := []string{
		"../outside.txt",
		"../../etc/passwd",
		"a/../../outside.txt",
		filepath.Dir(m.BasePath()) + "/sibling.txt",
	}
	for _, p := range cases {
		if _, err := m.WriteFile(p, "x"); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("WriteFile(%q) should be denied, got %v", p, err)
		}
	}
}

func TestSiblingPrefixConfusionDenied(t *testing.T) {
	// /base vs /base-evil: a naive string-prefix check would allow this.
	parent := t.TempDir()
	m, err := NewManager(filepath.Join(parent, "base"))
	if err != nil {
		t.Fatal(err)
	}
	evil := filepath.Join(parent, "base-evil")
	if err := os.MkdirAll(evil, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := m.WriteFile(filepath.Join(evil, "file.txt"), "x"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("sibling prefix escape not denied: %v", err)
	}
}

func TestSymlinkEscapeDenied(t *testing.T) {
	parent := t.TempDir()
	m, err := NewManager(filepath.Join(parent, "base"))
	if err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(parent, "secret")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(m.BasePath(), "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := m.WriteFile("link/leak.txt", "x"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("symlink escape not denied: %v", err)
	}
}

func TestListDirectory(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.WriteFile("b.txt", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.WriteFile("a.txt", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateDirectory("sub"); err != nil {
		t.Fatal(err)
	}

	listing, err := m.ListDirectory(".")
	if err != nil {
		t.Fatal(err)
	}
	if len(listing.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(listing.Items))
	}
	// Sorted by name.
	if listing.Items[0].Name != "a.txt" || listing.Items[2].Name != "sub" {
		t.Fatalf("unexpected order: %+v", listing.Items)
	}
	if listing.Items[2].Type != "directory" {
		t.Fatalf("sub should be a directory: %+v", listing.Items[2])
	}
	if listing.Items[0].Extension != ".txt" {
		t.Fatalf("missing extension: %+v", listing.Items[0])
	}
}

func TestListDirectoryUpdatesSessionDir(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.CreateDirectory("sub"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ListDirectory("sub"); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(m.CurrentDirectory()) != "sub" {
		t.Fatalf("session dir not updated: %s", m.CurrentDirectory())
	}
	// Relative paths now resolve against sub/.
	if _, err := m.WriteFile("inner.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(m.BasePath(), "sub", "inner.txt")); err != nil {
		t.Fatalf("relative write did not land in session dir: %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.WriteFile("doomed.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DeleteItem("doomed.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DeleteItem("doomed.txt"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	if _, err := m.CreateDirectory("nested/deep"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.WriteFile("nested/deep/f.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DeleteItem("nested"); err != nil {
		t.Fatalf("recursive delete failed: %v", err)
	}

	if _, err := m.DeleteItem("."); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("deleting base dir should be denied, got %v", err)
	}
}

func TestChangeDirectory(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.CreateDirectory("sub"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ChangeDirectory("sub"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ChangeDirectory("nope"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, err := m.WriteFile("f.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ChangeDirectory("f.txt"); !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
	if _, err := m.ChangeDirectory("../.."); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestTree(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.WriteFile("sub/leaf.txt", "x"); err != nil {
		t.Fatal(err)
	}
	out, err := m.Tree(".")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "leaf.txt") {
		t.Fatalf("tree missing leaf: %s", out)
	}
}
