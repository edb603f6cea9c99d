package store

import (
	"context"
	"fmt"
)

// SaveCorrection inserts a Correction audit record. There is no update path:
// one row is written per attempted second-pass correction, whether applied
// or rejected.
func (s *Store) SaveCorrection(ctx context.Context, c Correction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections
		   (segment_id, original_text, corrected_text, trigger_confidence, audio_clip_path, clip_start, clip_end, edit_distance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SegmentID, c.OriginalText, c.CorrectedText, c.TriggerConfidence, c.AudioClipPath, c.ClipStart, c.ClipEnd, c.EditDistance,
	)
	if err != nil {
		return 0, fmt.Errorf("insert correction: %w", err)
	}
	return res.LastInsertId()
}

// ClearCorrectionClipPath nulls out a Correction's clip path after its
// ephemeral audio file has been cleaned up from disk.
func (s *Store) ClearCorrectionClipPath(ctx context.Context, correctionID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE corrections SET audio_clip_path = NULL WHERE id = ?`, correctionID)
	if err != nil {
		return fmt.Errorf("clear correction clip path: %w", err)
	}
	return nil
}
