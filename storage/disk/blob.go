package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/storage"
)

type blobStore struct {
	root    string
	baseURL string
	log     logger.ILogger
}

// New stores blobs under root; URL joins baseURL with the relative path.
func New(root, baseURL string, log logger.ILogger) (storage.IBlobStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		log.Error("failed to create storage root", logger.String("root", root), logger.Error(err))
		return nil, err
	}
	return &blobStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

func (s *blobStore) resolve(rel string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid blob path %q", rel)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *blobStore) Put(_ context.Context, rel string, r io.Reader) (int64, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		s.log.Error("failed to write blob", logger.String("path", rel), logger.Error(err))
		return 0, err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

func (s *blobStore) Open(_ context.Context, rel string) (io.ReadCloser, int64, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

func (s *blobStore) Exists(_ context.Context, rel string) bool {
	full, err := s.resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *blobStore) Delete(_ context.Context, rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		s.log.Error("failed to delete blob", logger.String("path", rel), logger.Error(err))
		return err
	}
	return nil
}

func (s *blobStore) URL(rel string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(rel), "/")
}
