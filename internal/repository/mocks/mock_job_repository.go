package mocks

import (
	"context"

	"propgen/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockJobRecordRepository struct {
	mock.Mock
}

func (m *MockJobRecordRepository) Upsert(ctx context.Context, rec *model.JobRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockAnnotationRepository struct {
	mock.Mock
}

func (m *MockAnnotationRepository) ReplaceAll(ctx context.Context, jobID string, entries []model.AnnotationEntry) error {
	args := m.Called(ctx, jobID, entries)
	return args.Error(0)
}
