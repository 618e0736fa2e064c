package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestOSFilesystemManager_Link(t *testing.T) {
	dir := t.TempDir()
	m := NewOSFilesystemManager()

	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	writeFile(t, src, "payload")

	if err := m.Link(src, dst); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	info, err := m.Stat(dst)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Links != 2 {
		t.Errorf("Links = %d, want 2", info.Links)
	}

	if err := m.Remove(src); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	f, err := m.Open(dst)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if string(got) != "payload" {
		t.Errorf("content after removing source = %q, want %q", got, "payload")
	}

	info, err = m.Stat(dst)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Links != 1 {
		t.Errorf("Links after removing source = %d, want 1", info.Links)
	}
}

func TestOSFilesystemManager_Glob(t *testing.T) {
	dir := t.TempDir()
	m := NewOSFilesystemManager()

	for _, name := range []string{"x.2016-01-02.daily", "x.2016-01-01.daily", "x.2016-01-01.weekly"} {
		writeFile(t, filepath.Join(dir, name), "")
	}

	got, err := m.Glob(filepath.Join(dir, "x.*.daily"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "x.2016-01-01.daily"),
		filepath.Join(dir, "x.2016-01-02.daily"),
	}
	if len(got) != len(want) {
		t.Fatalf("Glob() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Glob()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOSFilesystemManager_ReadDir(t *testing.T) {
	dir := t.TempDir()
	m := NewOSFilesystemManager()

	writeFile(t, filepath.Join(dir, "b"), "")
	writeFile(t, filepath.Join(dir, "a"), "")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	got, err := m.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(got) != 2 || got[0] != filepath.Join(dir, "a") || got[1] != filepath.Join(dir, "b") {
		t.Errorf("ReadDir() = %v, want regular files a and b", got)
	}
}

func TestOSFilesystemManager_Exists(t *testing.T) {
	dir := t.TempDir()
	m := NewOSFilesystemManager()
	path := filepath.Join(dir, "f")

	exists, err := m.Exists(path)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before creation")
	}

	writeFile(t, path, "")
	exists, err = m.Exists(path)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after creation")
	}
}

func TestOSFilesystemManager_RenameReplacesLinkedEntry(t *testing.T) {
	dir := t.TempDir()
	m := NewOSFilesystemManager()

	daily := filepath.Join(dir, "daily")
	weekly := filepath.Join(dir, "weekly")
	partial := filepath.Join(dir, ".partial-daily")
	writeFile(t, daily, "old")
	if err := m.Link(daily, weekly); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	writeFile(t, partial, "new")
	if err := m.Rename(partial, daily); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	got, _ := os.ReadFile(weekly)
	if string(got) != "old" {
		t.Errorf("linked entry content = %q, want %q", got, "old")
	}
	got, _ = os.ReadFile(daily)
	if string(got) != "new" {
		t.Errorf("replaced entry content = %q, want %q", got, "new")
	}
}
