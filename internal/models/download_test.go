package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadSkipsExistingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ggml-small.bin")
	if err := os.WriteFile(path, []byte("not a real model"), 0644); err != nil {
		t.Fatal(err)
	}

	// Must not hit the network when the file is already present.
	if err := Download(dir, "small"); err != nil {
		t.Fatalf("Download() = %v, want nil for existing model", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "not a real model" {
		t.Error("existing model file was overwritten")
	}
}

func TestDownloadCreatesModelsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "models")
	path := filepath.Join(dir, "ggml-tiny.bin")

	// Pre-create the file so Download returns before touching the network,
	// but the parent dir must still be created first.
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Download(dir, "tiny"); err != nil {
		t.Fatalf("Download() = %v", err)
	}
}
