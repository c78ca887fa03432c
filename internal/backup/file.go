package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink keeps archives in a local directory.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink rooted at dir. The directory is created on the
// first Put.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Location implements Sink.
func (s *FileSink) Location() string { return s.dir }

// Put implements Sink. Archives are never overwritten.
func (s *FileSink) Put(_ context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing archive: %w", err)
	}
	return f.Close()
}

// Get implements Sink.
func (s *FileSink) Get(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return data, nil
}

// List implements Sink. A missing directory holds no archives.
func (s *FileSink) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		created, ok := parseName(e.Name())
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: e.Name(), Size: fi.Size(), CreatedAt: created})
	}
	return infos, nil
}
