package memory

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
)

type BlobStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{files: make(map[string][]byte)}
}

func (b *BlobStore) Put(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	b.files[path] = data
	b.mu.Unlock()
	return int64(len(data)), nil
}

func (b *BlobStore) Open(_ context.Context, path string) (io.ReadCloser, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[path]
	if !ok {
		return nil, 0, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (b *BlobStore) Exists(_ context.Context, path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[path]
	return ok
}

func (b *BlobStore) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(b.files, path)
	return nil
}

func (b *BlobStore) URL(path string) string {
	return "memory://" + path
}

// Paths lists stored keys.
func (b *BlobStore) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.files))
	for p := range b.files {
		out = append(out, p)
	}
	return out
}
