package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"propgen/internal/model"
	"propgen/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// JobPostgres is a PostgreSQL implementation of the job record and
// annotation repositories. It uses database/sql with parameterized queries
// and contains no business logic.
type JobPostgres struct {
	db *sql.DB
}

// NewJobPostgres creates a new JobPostgres repository.
func NewJobPostgres(db *sql.DB) *JobPostgres {
	return &JobPostgres{db: db}
}

var (
	_ repository.JobRecordRepository  = (*JobPostgres)(nil)
	_ repository.AnnotationRepository = (*JobPostgres)(nil)
)

const (
	updateJobQuery = `
		UPDATE proposal_jobs
		SET rfp_url = $2, supporting_url = $3, updated_at = $4
		WHERE job_id = $1
	`
	insertJobQuery = `
		INSERT INTO proposal_jobs (job_id, rfp_url, supporting_url, updated_at)
		VALUES ($1, $2, $3, $4)
	`
)

// Upsert writes exactly one record per job identifier.
//
// The two-step update-then-insert is deliberately non-atomic: two concurrent
// first-writers for a fresh identifier can both observe "zero rows updated"
// and both attempt the insert. The primary key on job_id rejects the second
// insert; that unique violation means someone else's write already landed,
// so the update path is retried once before surfacing an error.
func (r *JobPostgres) Upsert(ctx context.Context, rec *model.JobRecord) error {
	n, err := r.tryUpdate(ctx, rec)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx, insertJobQuery,
		rec.JobID, rec.RFPURL, rec.SupportingURL, rec.UpdatedAt)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	// Lost the first-writer race; the row exists now, so the update must land.
	n, err = r.tryUpdate(ctx, rec)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("upsert job %s: row vanished after unique violation", rec.JobID)
	}
	return nil
}

func (r *JobPostgres) tryUpdate(ctx context.Context, rec *model.JobRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, updateJobQuery,
		rec.JobID, rec.RFPURL, rec.SupportingURL, rec.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReplaceAll swaps the stored annotation collection for jobID with entries
// inside a single transaction, preserving insertion order via the ordinal
// column. The stored set is a full replacement, never a delta.
func (r *JobPostgres) ReplaceAll(ctx context.Context, jobID string, entries []model.AnnotationEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_annotations WHERE job_id = $1`, jobID); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO job_annotations (job_id, ordinal, content_ref, comment)
		VALUES ($1, $2, $3, $4)
	`
	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, insertQuery, jobID, i, e.ContentRef, e.Comment); err != nil {
			return err
		}
	}

	return tx.Commit()
}
