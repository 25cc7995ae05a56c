// Package sink writes artifacts all-or-nothing.
package sink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoParent is returned when the destination directory is missing and
// Options.CreateDirs is false.
var ErrNoParent = errors.New("destination directory does not exist")

// Options controls how an artifact is written.
type Options struct {
	CreateDirs bool        // create missing parent directories
	Perm       fs.FileMode // file mode of the artifact, 0644 when zero
	DirPerm    fs.FileMode // mode for created directories, 0755 when zero
}

// Write stores data at path. Either the complete data ends up at path or
// the previous file, if any, is left untouched.
func Write(path string, data []byte, opts Options) error {
	_, err := Copy(path, bytes.NewReader(data), opts)
	return err
}

// Copy streams r to path with the same guarantee as Write. It returns the
// number of bytes written.
func Copy(path string, r io.Reader, opts Options) (int64, error) {
	if opts.Perm == 0 {
		opts.Perm = 0o644
	}
	if opts.DirPerm == 0 {
		opts.DirPerm = 0o755
	}
	dir := filepath.Dir(path)
	if err := ensureDir(dir, opts); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(opts.Perm); err != nil {
		return n, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		committed = true
		return n, fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true
	return n, nil
}

func ensureDir(dir string, opts Options) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", dir, err)
	case !opts.CreateDirs:
		return fmt.Errorf("%w: %s", ErrNoParent, dir)
	}
	if err := os.MkdirAll(dir, opts.DirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
