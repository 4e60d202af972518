package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sober-pm/spm-update/fileutils"
)

func TestExists(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-file-*")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	tmpFilePath := tmpFile.Name()
	defer os.Remove(tmpFilePath)
	tmpFile.Close()

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "existing file",
			path:     tmpFilePath,
			expected: true,
		},
		{
			name:     "non-existent file",
			path:     "non-existent-file.txt",
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := fileutils.Exists(tc.path)
			if result != tc.expected {
				t.Errorf("Expected Exists(%q) = %v, got %v", tc.path, tc.expected, result)
			}
		})
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	if !fileutils.IsDir(dir) {
		t.Errorf("expected %q to be a directory", dir)
	}

	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if fileutils.IsDir(filePath) {
		t.Errorf("expected %q to not be a directory", filePath)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	if err := os.WriteFile(src, []byte("hello world"), 0640); err != nil {
		t.Fatal(err)
	}

	written, err := fileutils.CopyFile(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(len("hello world")) {
		t.Errorf("expected %d bytes written, got %d", len("hello world"), written)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected copied content %q, got %q", "hello world", string(data))
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("expected permissions 0640, got %v", info.Mode().Perm())
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := fileutils.CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Error("expected error")
	}
}

func TestCopyFile_NotRegular(t *testing.T) {
	dir := t.TempDir()
	_, err := fileutils.CopyFile(dir, filepath.Join(dir, "dst"))
	if err == nil {
		t.Error("expected error")
	}
}
