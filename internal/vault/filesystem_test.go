package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "vault")

	v, err := NewFileSystemVault("offsite", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("vault directory not created: %v", err)
	}
	if v.Name() != "offsite" {
		t.Errorf("Name() = %q, want %q", v.Name(), "offsite")
	}
	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestFileSystemVault_PutArtifact(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		data    string
		size    int64
		wantErr bool
	}{
		{name: "known size", entry: "a.daily.pg_dump_Fc", data: "hello world", size: 11},
		{name: "unknown size", entry: "b.daily.pg_dump_Fc.age", data: "ciphertext", size: -1},
		{name: "size mismatch", entry: "c", data: "hello", size: 10, wantErr: true},
		{name: "path traversal", entry: "../escape", data: "x", size: 1, wantErr: true},
		{name: "empty name", entry: "", data: "x", size: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}

			err = v.PutArtifact(tt.entry, strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PutArtifact() error = %v, wantErr %v", err, tt.wantErr)
			}

			names, _ := v.ListArtifacts()
			if tt.wantErr {
				if len(names) != 0 {
					t.Errorf("failed put left entries %v", names)
				}
				return
			}

			var buf bytes.Buffer
			if err := v.GetArtifact(tt.entry, &buf); err != nil {
				t.Fatalf("GetArtifact() error = %v", err)
			}
			if buf.String() != tt.data {
				t.Errorf("GetArtifact() = %q, want %q", buf.String(), tt.data)
			}
		})
	}
}

func TestFileSystemVault_ListAndDelete(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	for _, name := range []string{"b", "a", "c"} {
		if err := v.PutArtifact(name, strings.NewReader(name), 1); err != nil {
			t.Fatalf("PutArtifact(%s) error = %v", name, err)
		}
	}
	// In-progress writes and directories are not entries.
	if err := os.WriteFile(filepath.Join(root, tmpPrefix+"123"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := v.ListArtifacts()
	if err != nil {
		t.Fatalf("ListArtifacts() error = %v", err)
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("ListArtifacts() = %v, want [a b c]", names)
	}

	if err := v.DeleteArtifact("b"); err != nil {
		t.Fatalf("DeleteArtifact() error = %v", err)
	}
	if err := v.DeleteArtifact("b"); err == nil {
		t.Error("DeleteArtifact() of missing entry expected error")
	}
	names, _ = v.ListArtifacts()
	if strings.Join(names, ",") != "a,c" {
		t.Errorf("ListArtifacts() after delete = %v", names)
	}
}

func TestFileSystemVault_GetMissing(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	err = v.GetArtifact("missing", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "artifact not found") {
		t.Errorf("GetArtifact() error = %v, want not found", err)
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() after removing root expected error")
	}
}
