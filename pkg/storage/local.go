package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local implements FileStore on top of the local filesystem. All paths
// are resolved relative to the configured root directory, so a corpus
// exported to "backups/corpus.jsonl" lands under the root rather than
// wherever the process happens to run.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir. The directory is
// created (with parents) if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// resolve turns a storage path into an absolute filesystem path. Paths
// that climb out of the root are rejected.
func (l *Local) resolve(path string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(path))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: path %q escapes the store root", path)
	}
	return full, nil
}

// Read opens the named file for reading.
func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Write opens the named file for writing, creating parent directories
// as needed. Data is staged in a temp file and renamed into place on
// Close, so an interrupted write leaves any previous file untouched.
func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return nil, err
	}
	return &stagedFile{f: tmp, dest: full}, nil
}

// Delete removes the named file. Deleting an absent file is not an
// error.
func (l *Local) Delete(_ context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	full, err := l.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

var _ FileStore = (*Local)(nil)

// stagedFile is a WriteCloser that moves its temp file to dest on a
// successful Close and removes it on failure.
type stagedFile struct {
	f    *os.File
	dest string
}

func (s *stagedFile) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *stagedFile) Close() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		os.Remove(s.f.Name())
		return err
	}
	if err := s.f.Close(); err != nil {
		os.Remove(s.f.Name())
		return err
	}
	return os.Rename(s.f.Name(), s.dest)
}

// Abort drops the staged data; dest is left as it was.
func (s *stagedFile) Abort() error {
	s.f.Close()
	return os.Remove(s.f.Name())
}
