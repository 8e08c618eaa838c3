// Package upload defines blob storage for file attachments decoded from
// multipart requests. Backends live in the memory, fs, and s3 subpackages.
package upload

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when no object exists under a key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectMeta describes a stored object.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// FileStore stores and retrieves file payloads by object key.
type FileStore interface {
	// Save writes the object, replacing any existing content under key.
	Save(ctx context.Context, key, contentType string, r io.Reader) error

	// Open returns a reader over the object's content. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Meta returns metadata for the object.
	Meta(ctx context.Context, key string) (*ObjectMeta, error)

	// Delete removes the object.
	Delete(ctx context.Context, key string) error

	// DownloadURL returns a URL clients can fetch the object from. The
	// filename, when non-empty, is suggested via content disposition.
	DownloadURL(ctx context.Context, key, filename string) (string, error)
}
