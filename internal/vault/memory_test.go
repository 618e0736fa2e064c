package vault

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestMemoryVault_PutAndGet(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	tests := []struct {
		name    string
		entry   string
		content string
		size    int64
		wantErr bool
	}{
		{name: "store and retrieve", entry: "abc", content: "hello world", size: 11},
		{name: "store empty content", entry: "empty", content: "", size: 0},
		{name: "unknown size", entry: "stream", content: strings.Repeat("x", 10000), size: -1},
		{name: "size mismatch", entry: "bad", content: "short", size: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vault.PutArtifact(tt.entry, strings.NewReader(tt.content), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PutArtifact() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			var buf bytes.Buffer
			if err := vault.GetArtifact(tt.entry, &buf); err != nil {
				t.Fatalf("GetArtifact() unexpected error: %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("GetArtifact() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryVault_ListAndDelete(t *testing.T) {
	vault := NewMemoryVault("test-vault")
	for _, name := range []string{"z", "a", "m"} {
		if err := vault.PutArtifact(name, strings.NewReader(name), 1); err != nil {
			t.Fatalf("PutArtifact() error = %v", err)
		}
	}

	names, _ := vault.ListArtifacts()
	if strings.Join(names, ",") != "a,m,z" {
		t.Errorf("ListArtifacts() = %v", names)
	}

	if err := vault.DeleteArtifact("m"); err != nil {
		t.Fatalf("DeleteArtifact() error = %v", err)
	}
	if err := vault.DeleteArtifact("m"); err == nil {
		t.Error("DeleteArtifact() of missing entry expected error")
	}
	if err := vault.GetArtifact("m", &bytes.Buffer{}); err == nil {
		t.Error("GetArtifact() of deleted entry expected error")
	}
}

func TestMemoryVault_ConcurrentAccess(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			if err := vault.PutArtifact(name, strings.NewReader(name), 1); err != nil {
				t.Errorf("PutArtifact() error = %v", err)
			}
			if _, err := vault.ListArtifacts(); err != nil {
				t.Errorf("ListArtifacts() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	names, _ := vault.ListArtifacts()
	if len(names) != 20 {
		t.Errorf("ListArtifacts() = %d entries, want 20", len(names))
	}
}
