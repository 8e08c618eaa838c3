// Package fs implements upload.FileStore on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tendant/simple-model/pkg/content/upload"
)

// Config options for the filesystem backend.
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download URLs
}

// Store is a filesystem implementation of upload.FileStore.
type Store struct {
	baseDir   string
	urlPrefix string
}

// New creates a filesystem store rooted at the configured base directory,
// creating it when missing.
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: config.BaseDir, urlPrefix: config.URLPrefix}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *Store) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	filePath := s.path(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, upload.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *Store) Meta(ctx context.Context, key string) (*upload.ObjectMeta, error) {
	filePath := s.path(key)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, upload.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Content type is not stored separately; sniff it from the head of
	// the file.
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &upload.ObjectMeta{
		Key:         key,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	filePath := s.path(key)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return upload.ErrObjectNotFound
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

func (s *Store) DownloadURL(ctx context.Context, key, filename string) (string, error) {
	if s.urlPrefix == "" {
		return "", errors.New("direct download required for filesystem backend")
	}
	if filename != "" {
		return fmt.Sprintf("%s/download/%s?filename=%s", s.urlPrefix, key, url.QueryEscape(filename)), nil
	}
	return fmt.Sprintf("%s/download/%s", s.urlPrefix, key), nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir.
func (s *Store) cleanupEmptyDirectories(dir string) {
	if dir == s.baseDir {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			s.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
