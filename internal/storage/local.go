package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/fardiff/pkg/errors"
)

// LocalStorage stores objects as files under a base directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./reports"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, storageErr("create", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// BasePath returns the storage root.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Upload writes r to a temporary file and renames it into place.
func (s *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return storageErr("upload", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return storageErr("upload", key, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return storageErr("upload", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return storageErr("upload", key, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return storageErr("upload", key, err)
	}
	return nil
}

// UploadFile copies a local file into storage.
func (s *LocalStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return storageErr("open", localPath, err)
	}
	defer src.Close()
	return s.Upload(ctx, key, src, ContentType(key))
}

// Download opens the stored file.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "object not found: "+key, err)
		}
		return nil, storageErr("download", key, err)
	}
	return f, nil
}

// DownloadFile copies the stored file to localPath.
func (s *LocalStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	rc, err := s.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storageErr("download", key, err)
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return storageErr("download", key, err)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		return storageErr("download", key, err)
	}
	return dst.Close()
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return storageErr("delete", key, err)
	}
	return nil
}

// Exists reports whether the object exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storageErr("stat", key, err)
	}
	return true, nil
}

// GetURL returns the object's file path.
func (s *LocalStorage) GetURL(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return s.GetURL(key), nil
}
