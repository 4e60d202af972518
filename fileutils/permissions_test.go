package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sober-pm/spm-update/fileutils"
)

func TestVerifyWritable(t *testing.T) {
	dir := t.TempDir()
	if err := fileutils.VerifyWritable(dir); err != nil {
		t.Errorf("expected %q to be writable, got %v", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover temp files, found %d", len(entries))
	}
}

func TestVerifyWritable_MissingDir(t *testing.T) {
	if err := fileutils.VerifyWritable(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error")
	}
}

func TestVerifyWritable_ReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	if err := fileutils.VerifyWritable(dir); err == nil {
		t.Error("expected error")
	}
}
