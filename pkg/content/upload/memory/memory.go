package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tendant/simple-model/pkg/content/upload"
)

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Store is an in-memory implementation of upload.FileStore, intended for
// tests and development.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory file store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{
		data:        data,
		contentType: contentType,
		updatedAt:   time.Now().UTC(),
	}
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, upload.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Meta(ctx context.Context, key string) (*upload.ObjectMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, upload.ErrObjectNotFound
	}
	return &upload.ObjectMeta{
		Key:         key,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return upload.ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *Store) DownloadURL(ctx context.Context, key, filename string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", upload.ErrObjectNotFound
	}
	return "memory://" + key, nil
}
