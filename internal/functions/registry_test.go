package functions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "functions.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestManifestRegistry_Units(t *testing.T) {
	path := writeManifest(t, `{
  "functions": [
    {"name": "checkout"},
    {"name": "_shared", "internal": true},
    {"name": "webhooks"}
  ]
}`)

	units, err := NewManifestRegistry(path).Units()
	if err != nil {
		t.Fatalf("expected manifest to load, got %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if !units[1].Internal {
		t.Error("expected _shared to be internal")
	}
	if units[0].Name != "checkout" || units[2].Name != "webhooks" {
		t.Errorf("manifest order not preserved: %#v", units)
	}
}

func TestManifestRegistry_RejectsInvalidManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing functions key", `{"units": []}`},
		{"missing name", `{"functions": [{"internal": true}]}`},
		{"empty name", `{"functions": [{"name": ""}]}`},
		{"unknown field", `{"functions": [{"name": "a", "region": "us-east-1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			if _, err := NewManifestRegistry(path).Units(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestManifestRegistry_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := NewManifestRegistry(path).Units()
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "missing.json") {
		t.Errorf("expected path in error, got %v", err)
	}
}

func TestDirectoryRegistry_Units(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"webhooks", "_shared", "checkout"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	// Stray files are not units
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	units, err := NewDirectoryRegistry(dir).Units()
	if err != nil {
		t.Fatalf("expected directory scan to succeed, got %v", err)
	}

	want := []Unit{
		{Name: "_shared", Internal: true},
		{Name: "checkout"},
		{Name: "webhooks"},
	}
	if len(units) != len(want) {
		t.Fatalf("expected %d units, got %#v", len(want), units)
	}
	for i, u := range want {
		if units[i] != u {
			t.Errorf("unit %d: expected %+v, got %+v", i, u, units[i])
		}
	}
}
