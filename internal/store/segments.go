package store

import (
	"context"
	"fmt"
)

// SaveSegments bulk-inserts the word-level ASR output for a job in a single
// transaction. All-or-nothing: any row failing aborts the whole insert.
func (s *Store) SaveSegments(ctx context.Context, jobID string, segments []Segment) error {
	if len(segments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (job_id, word, start_time, end_time, confidence) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, jobID, seg.Word, seg.Start, seg.End, seg.Confidence); err != nil {
			return fmt.Errorf("insert segment: %w", err)
		}
	}
	return tx.Commit()
}

// ListSegments returns all segments for a job in ascending start order.
func (s *Store) ListSegments(ctx context.Context, jobID string) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, word, start_time, end_time, confidence
		 FROM segments WHERE job_id = ? ORDER BY start_time ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.JobID, &seg.Word, &seg.Start, &seg.End, &seg.Confidence); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// FindSegmentInRange returns any one segment fully contained in [start, end),
// used only as a foreign-key anchor for a Correction record, not for
// transcript alignment.
func (s *Store) FindSegmentInRange(ctx context.Context, jobID string, start, end float64) (*Segment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, word, start_time, end_time, confidence
		 FROM segments WHERE job_id = ? AND start_time >= ? AND end_time <= ?
		 ORDER BY start_time ASC LIMIT 1`, jobID, start, end)

	var seg Segment
	if err := row.Scan(&seg.ID, &seg.JobID, &seg.Word, &seg.Start, &seg.End, &seg.Confidence); err != nil {
		return nil, err
	}
	return &seg, nil
}
