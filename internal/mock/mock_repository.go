package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fardiff/pkg/model"
)

// MockRunRepository is a mock implementation of repository.RunRepository.
type MockRunRepository struct {
	mock.Mock
}

// Save mocks the Save method.
func (m *MockRunRepository) Save(ctx context.Context, run *model.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockRunRepository) List(ctx context.Context, binary string, limit int) ([]*model.Run, error) {
	args := m.Called(ctx, binary, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Run), args.Error(1)
}

// GetByRunID mocks the GetByRunID method.
func (m *MockRunRepository) GetByRunID(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

// ExpectSave captures every saved run into saved.
func (m *MockRunRepository) ExpectSave(saved *[]*model.Run, err error) *mock.Call {
	return m.On("Save", mock.Anything, mock.AnythingOfType("*model.Run")).
		Run(func(args mock.Arguments) {
			if saved != nil {
				*saved = append(*saved, args.Get(1).(*model.Run))
			}
		}).
		Return(err)
}
