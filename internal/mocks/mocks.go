// Package mocks provides testify mocks for the external collaborators of the
// grounding pipeline.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/gridpoint/api/schemas"
)

// -- Capturer Mock --

type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Capture(ctx context.Context) (*schemas.Screenshot, error) {
	args := m.Called(ctx)
	if shot, ok := args.Get(0).(*schemas.Screenshot); ok {
		return shot, args.Error(1)
	}
	return nil, args.Error(1)
}

// -- VisionClient Mock --

type MockVisionClient struct {
	mock.Mock
}

func (m *MockVisionClient) Generate(ctx context.Context, req schemas.VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockVisionClient) Close() error {
	return m.Called().Error(0)
}

// -- Clicker Mock --

type MockClicker struct {
	mock.Mock
}

func (m *MockClicker) Click(ctx context.Context, x, y float64) error {
	return m.Called(ctx, x, y).Error(0)
}

// -- Dialog Mock --

type MockDialog struct {
	mock.Mock
}

func (m *MockDialog) Prompt(ctx context.Context, title, message string) (string, error) {
	args := m.Called(ctx, title, message)
	return args.String(0), args.Error(1)
}

func (m *MockDialog) Confirm(ctx context.Context, title, message string, options []string) (string, error) {
	args := m.Called(ctx, title, message, options)
	return args.String(0), args.Error(1)
}

var (
	_ schemas.Capturer     = (*MockCapturer)(nil)
	_ schemas.VisionClient = (*MockVisionClient)(nil)
	_ schemas.Clicker      = (*MockClicker)(nil)
	_ schemas.Dialog       = (*MockDialog)(nil)
)
