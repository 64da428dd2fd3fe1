package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// LocalStore keeps uploads in a directory on disk.
type LocalStore struct {
	root   string
	logger zerolog.Logger
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(root string, logger zerolog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		root:   root,
		logger: logger.With().Str("component", "uploads_local").Logger(),
	}, nil
}

// Save writes the file atomically via a temporary file in the same directory.
func (s *LocalStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	s.logger.Debug().Str("name", name).Int64("bytes", n).Msg("upload saved")
	return URL(name), nil
}

// Open opens a stored file for reading.
func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return f, nil
}
