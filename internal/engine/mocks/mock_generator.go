package mocks

import (
	"context"

	"propgen/internal/engine"

	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, jobID string, req engine.GenerateRequest) (*engine.GenerateResponse, error) {
	args := m.Called(ctx, jobID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.GenerateResponse), args.Error(1)
}

func (m *MockGenerator) Regenerate(ctx context.Context, jobID string, req engine.GenerateRequest) (*engine.GenerateResponse, error) {
	args := m.Called(ctx, jobID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.GenerateResponse), args.Error(1)
}
