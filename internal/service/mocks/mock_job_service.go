package mocks

import (
	"context"

	"propgen/internal/model"
	"propgen/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) Submit(ctx context.Context, in service.SubmitInput) (*model.Job, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobService) Regenerate(ctx context.Context, jobID string) (*model.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobService) Annotate(jobID, contentRef, comment string) error {
	args := m.Called(jobID, contentRef, comment)
	return args.Error(0)
}

func (m *MockJobService) Get(jobID string) (*model.Job, error) {
	args := m.Called(jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}
