package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tencentyun/cos-go-sdk-v5"

	apperrors "github.com/fardiff/pkg/errors"
)

// COSConfig holds COS-specific configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // default "myqcloud.com"
	Scheme    string // default "https"
}

// COSStorage stores objects in a Tencent Cloud COS bucket.
type COSStorage struct {
	client    *cos.Client
	bucketURL *url.URL
}

// NewCOSStorage creates a COS client for the configured bucket.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "bucket and region are required for COS storage")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "credentials are required for COS storage")
	}

	domain, scheme := cfg.Domain, cfg.Scheme
	if domain == "" {
		domain = "myqcloud.com"
	}
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid COS bucket URL", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid COS service URL", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL, ServiceURL: serviceURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})
	return &COSStorage{client: client, bucketURL: bucketURL}, nil
}

// Upload puts the object with the given content type.
func (s *COSStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	if _, err := s.client.Object.Put(ctx, key, r, opt); err != nil {
		return storageErr("upload", key, err)
	}
	return nil
}

// UploadFile puts a local file.
func (s *COSStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: ContentType(key)},
	}
	if _, err := s.client.Object.PutFromFile(ctx, key, localPath, opt); err != nil {
		return storageErr("upload", key, err)
	}
	return nil
}

// Download streams the object body.
func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "object not found: "+key, err)
		}
		return nil, storageErr("download", key, err)
	}
	return resp.Body, nil
}

// DownloadFile writes the object to localPath.
func (s *COSStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storageErr("download", key, err)
	}
	if _, err := s.client.Object.GetToFile(ctx, key, localPath, nil); err != nil {
		return storageErr("download", key, err)
	}
	return nil
}

// Delete removes the object.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key, nil); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

// Exists reports whether the object exists.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, storageErr("stat", key, err)
	}
	return ok, nil
}

// GetURL returns the object's public URL.
func (s *COSStorage) GetURL(key string) string {
	return s.bucketURL.JoinPath(key).String()
}
