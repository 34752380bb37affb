package repository

import (
	"context"

	"propgen/internal/model"
)

// JobRecordRepository persists the one-row-per-job mirror of a job. It holds
// no business logic, strictly persistence operations.
type JobRecordRepository interface {
	// Upsert writes the record with "update if exists, else insert"
	// semantics: exactly one row per job identifier survives, holding the
	// values of the latest call.
	Upsert(ctx context.Context, rec *model.JobRecord) error
}

// AnnotationRepository persists the accumulated annotation set for a job.
type AnnotationRepository interface {
	// ReplaceAll atomically replaces the stored collection for jobID with
	// entries, preserving insertion order. The stored set is always a full
	// replacement, never a delta.
	ReplaceAll(ctx context.Context, jobID string, entries []model.AnnotationEntry) error
}
