// Package storage publishes reports and tree bundles to a local directory or
// to Tencent Cloud COS.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/fardiff/pkg/config"
	apperrors "github.com/fardiff/pkg/errors"
)

// Storage is a flat key/object store. Keys use '/' separators.
type Storage interface {
	// Upload stores the reader's contents under key.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error

	// UploadFile stores a local file, inferring its content type.
	UploadFile(ctx context.Context, key string, localPath string) error

	Download(ctx context.Context, key string) (io.ReadCloser, error)
	DownloadFile(ctx context.Context, key string, localPath string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where key can be fetched from.
	GetURL(key string) string
}

// Type names a storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeCOS   Type = "cos"
)

// New creates the backend selected by cfg.
func New(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch Type(cfg.Type) {
	case TypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig checks the fields the selected backend needs.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	switch Type(cfg.Type) {
	case "", TypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	case TypeCOS:
		switch {
		case cfg.Bucket == "":
			return apperrors.New(apperrors.CodeConfigError, "COS bucket is required")
		case cfg.Region == "":
			return apperrors.New(apperrors.CodeConfigError, "COS region is required")
		case cfg.SecretID == "" || cfg.SecretKey == "":
			return apperrors.New(apperrors.CodeConfigError, "COS credentials are required")
		}
	default:
		return apperrors.Newf(apperrors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}
	return nil
}

// JoinKey joins key parts with '/' and drops empty parts.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}

// ContentType infers a MIME type from the key's extension.
func ContentType(key string) string {
	switch ext := strings.ToLower(path.Ext(key)); ext {
	case ".zst":
		return "application/zstd"
	case ".gz":
		return "application/gzip"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}

// checkKey rejects keys that are empty or would escape a base directory.
func checkKey(key string) error {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return apperrors.Newf(apperrors.CodeStorageError, "invalid storage key %q", key)
	}
	return nil
}

func storageErr(op, key string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("%s %s", op, key), err)
}
