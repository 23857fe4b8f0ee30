package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of storage.Storage.
type MockStorage struct {
	mock.Mock
}

// Upload mocks the Upload method.
func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	args := m.Called(ctx, key, reader, contentType)
	return args.Error(0)
}

// UploadFile mocks the UploadFile method.
func (m *MockStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	args := m.Called(ctx, key, localPath)
	return args.Error(0)
}

// Download mocks the Download method.
func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// DownloadFile mocks the DownloadFile method.
func (m *MockStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	args := m.Called(ctx, key, localPath)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// GetURL mocks the GetURL method.
func (m *MockStorage) GetURL(key string) string {
	args := m.Called(key)
	if fn, ok := args.Get(0).(func(string) string); ok {
		return fn(key)
	}
	return args.String(0)
}

// ExpectUpload sets up an expectation for Upload with the given content type.
func (m *MockStorage) ExpectUpload(key, contentType string, err error) *mock.Call {
	return m.On("Upload", mock.Anything, key, mock.Anything, contentType).Return(err)
}

// ExpectUploadFile sets up an expectation for UploadFile.
func (m *MockStorage) ExpectUploadFile(key, localPath string, err error) *mock.Call {
	return m.On("UploadFile", mock.Anything, key, localPath).Return(err)
}

// ExpectAnyUploadFile sets up an expectation for any UploadFile call.
func (m *MockStorage) ExpectAnyUploadFile(err error) *mock.Call {
	return m.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return(err)
}

// ExpectGetURL makes GetURL return base + "/" + key for any key.
func (m *MockStorage) ExpectGetURL(base string) *mock.Call {
	return m.On("GetURL", mock.Anything).Return(func(key string) string {
		return base + "/" + key
	})
}
