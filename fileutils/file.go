package fileutils

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// Exists reports whether path exists, regardless of type.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies a regular file to dst, preserving its permission bits.
// Returns the number of bytes copied.
func CopyFile(src string, dst string) (written int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() {
		closeErr := in.Close()
		err = errors.Join(err, closeErr)
	}()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, errors.New("not a regular file")
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	written, err = io.Copy(out, in)
	closeErr := out.Close()
	return written, errors.Join(err, closeErr)
}
