// Package mock provides testify mocks for the pipeline's external boundaries.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fardiff/internal/inspect"
)

// MockRunner is a mock implementation of inspect.Runner.
type MockRunner struct {
	mock.Mock
}

// Run mocks the Run method.
func (m *MockRunner) Run(ctx context.Context, inv *inspect.ProcessInvocation) (*inspect.ProcessResult, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspect.ProcessResult), args.Error(1)
}

// ExpectTool sets up an expectation for an invocation of tool.
func (m *MockRunner) ExpectTool(tool string, result *inspect.ProcessResult, err error) *mock.Call {
	return m.On("Run", mock.Anything, mock.MatchedBy(func(inv *inspect.ProcessInvocation) bool {
		return inv.Tool == tool
	})).Return(result, err)
}

// Output builds a successful result with the given stdout.
func Output(stdout string) *inspect.ProcessResult {
	return &inspect.ProcessResult{Stdout: []byte(stdout)}
}
