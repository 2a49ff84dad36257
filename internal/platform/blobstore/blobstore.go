// Package blobstore stores opaque documents by key. The in-memory driver
// serves development and tests; the s3 driver serves AWS S3 or MinIO.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrBlobExists         = errors.New("blob already exists")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// AllowedContentTypes lists the document types accepted for upload.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"text/plain":      true,
	"text/csv":        true,
}

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is a flat key/value object store.
type Store interface {
	// Put stores r under key. It fails with ErrBlobExists when key is taken.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get opens the object. The caller closes the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() string
}

// ValidateUpload checks a document before it is stored.
func ValidateUpload(fileName, contentType string, size, maxSize int64) error {
	if strings.TrimSpace(fileName) == "" {
		return ErrMissingFileName
	}
	if !AllowedContentTypes[NormalizeContentType(contentType)] {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}
	if maxSize > 0 && size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// NormalizeContentType strips parameters such as charset.
func NormalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// SafeFileName drops any directory part of a client-supplied name.
func SafeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Config selects and configures a driver.
type Config struct {
	Driver      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
