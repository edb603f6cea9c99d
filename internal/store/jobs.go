package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned when an operation references a job id that
// does not exist in the store.
var ErrJobNotFound = errors.New("store: job not found")

// CreateJob inserts a new job in PENDING status. This is the ingress point
// the (out-of-scope) upload handler calls; exposed here so tests and the
// worker's own fixtures can seed jobs without a separate HTTP layer.
func (s *Store) CreateJob(ctx context.Context, userID, sourceAudioPath, originalFilename string) (*Job, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, user_id, status, source_audio_path, original_filename, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, StatusPending, sourceAudioPath, originalFilename, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a single job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, source_audio_path, original_filename, transcript,
		        processing_started, processing_ended, error_message, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

// ClaimNextPending atomically selects the oldest PENDING job and transitions
// it to PROCESSING with processingStarted = now, returning the claimed row
// directly via RETURNING so identity never has to be re-derived from a
// second-granularity timestamp (which two claims in the same wall-clock
// second could share). Returns (nil, nil) if no job is pending or another
// caller won the race for the same row.
func (s *Store) ClaimNextPending(ctx context.Context) (*Job, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx,
		`UPDATE jobs
		 SET status = ?, processing_started = ?, updated_at = ?
		 WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC LIMIT 1)
		   AND status = ?
		 RETURNING id, user_id, status, source_audio_path, original_filename, transcript,
		           processing_started, processing_ended, error_message, created_at, updated_at`,
		StatusProcessing, now.Unix(), now.Unix(), StatusPending, StatusPending,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim update: %w", err)
	}
	return job, nil
}

// FinalizeSuccess sets a job's terminal COMPLETED status, transcript, and
// processingEnded timestamp.
func (s *Store) FinalizeSuccess(ctx context.Context, jobID, transcript string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, transcript = ?, processing_ended = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, transcript, now.Unix(), now.Unix(), jobID,
	)
	if err != nil {
		return fmt.Errorf("finalize success: %w", err)
	}
	return checkAffected(res, ErrJobNotFound)
}

// FinalizeFailure sets a job's terminal FAILED status, error message, and
// processingEnded timestamp.
func (s *Store) FinalizeFailure(ctx context.Context, jobID, errMsg string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, processing_ended = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, errMsg, now.Unix(), now.Unix(), jobID,
	)
	if err != nil {
		return fmt.Errorf("finalize failure: %w", err)
	}
	return checkAffected(res, ErrJobNotFound)
}

// ReapStaleProcessing moves PROCESSING jobs whose processingStarted predates
// olderThan back to PENDING, so a crashed worker's job is retried on the
// next process start rather than stuck in PROCESSING forever. Opt-in; meant
// to run once at worker startup.
func (s *Store) ReapStaleProcessing(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, processing_started = NULL, updated_at = ?
		 WHERE status = ? AND processing_started IS NOT NULL AND processing_started < ?`,
		StatusPending, time.Now().UTC().Unix(), StatusProcessing, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reap stale processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reap rows affected: %w", err)
	}
	return int(affected), nil
}

// Stats returns cheap counts of jobs by status for observability.
func (s *Store) Stats(ctx context.Context) (QueueStats, error) {
	var stats QueueStats
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("stats scan: %w", err)
		}
		switch JobStatus(status) {
		case StatusPending:
			stats.Pending = int(count)
		case StatusProcessing:
			stats.Processing = int(count)
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

func checkAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var status string
	var transcript, errMsg sql.NullString
	var processingStarted, processingEnded sql.NullInt64
	var createdAt, updatedAt int64

	if err := row.Scan(
		&j.ID, &j.UserID, &status, &j.SourceAudioPath, &j.OriginalFilename,
		&transcript, &processingStarted, &processingEnded, &errMsg,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	j.Status = JobStatus(status)
	j.CreatedAt = time.Unix(createdAt, 0).UTC()
	j.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if transcript.Valid {
		j.Transcript = &transcript.String
	}
	if errMsg.Valid {
		j.ErrorMessage = &errMsg.String
	}
	if processingStarted.Valid {
		t := time.Unix(processingStarted.Int64, 0).UTC()
		j.ProcessingStarted = &t
	}
	if processingEnded.Valid {
		t := time.Unix(processingEnded.Int64, 0).UTC()
		j.ProcessingEnded = &t
	}
	return &j, nil
}
