package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"inventorycam/internal/model"
)

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture repository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Insert stores a capture together with its detections in a single transaction.
func (r *CaptureRepository) Insert(ctx context.Context, c *model.Capture) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO captures (id, captured_at, artifact_key, artifact_url, publish_error, classify_error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.CapturedAt.UTC(), c.ArtifactKey, c.ArtifactURL, c.PublishError, c.ClassifyError)
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}

	if len(c.Detections) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO detections (capture_id, label, x, y, width, height, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, d := range c.Detections {
			if _, err := stmt.ExecContext(ctx, c.ID, d.Label, d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height, d.Confidence); err != nil {
				return fmt.Errorf("failed to insert detection: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetByID retrieves a capture by its ID. Returns nil when it does not exist.
func (r *CaptureRepository) GetByID(ctx context.Context, id string) (*model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var c model.Capture
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT id, captured_at, artifact_key, artifact_url, publish_error, classify_error
		FROM captures WHERE id = ?
	`, id).Scan(&c.ID, &c.CapturedAt, &c.ArtifactKey, &c.ArtifactURL, &c.PublishError, &c.ClassifyError)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}

	detections, err := r.detectionsFor(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Detections = detections
	return &c, nil
}

// List returns captures matching the filter, newest first.
func (r *CaptureRepository) List(ctx context.Context, filter *model.CaptureFilter) ([]model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if filter == nil {
		filter = &model.CaptureFilter{}
	}

	query := `
		SELECT DISTINCT c.id, c.captured_at, c.artifact_key, c.artifact_url, c.publish_error, c.classify_error
		FROM captures c
		LEFT JOIN detections d ON c.id = d.capture_id
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Label != "" {
		query += " AND d.label = ?"
		args = append(args, filter.Label)
	}

	query += " ORDER BY c.captured_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}

	captures := []model.Capture{}
	for rows.Next() {
		var c model.Capture
		if err := rows.Scan(&c.ID, &c.CapturedAt, &c.ArtifactKey, &c.ArtifactURL, &c.PublishError, &c.ClassifyError); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}
	// Jedno polaczenie: rows musza byc zamkniete przed kolejnym zapytaniem
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate captures: %w", err)
	}

	for i := range captures {
		detections, err := r.detectionsFor(ctx, captures[i].ID)
		if err != nil {
			return nil, err
		}
		captures[i].Detections = detections
	}

	return captures, nil
}

// Count returns the number of captures matching the filter.
func (r *CaptureRepository) Count(ctx context.Context, filter *model.CaptureFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT COUNT(DISTINCT c.id)
		FROM captures c
		LEFT JOIN detections d ON c.id = d.capture_id
		WHERE 1=1
	`
	args := []interface{}{}

	if filter != nil && filter.Label != "" {
		query += " AND d.label = ?"
		args = append(args, filter.Label)
	}

	var count int
	if err := r.db.Conn().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

// GetAllLabels returns every distinct detected label.
func (r *CaptureRepository) GetAllLabels(ctx context.Context) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `SELECT DISTINCT label FROM detections ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// Delete removes a capture and its detections.
func (r *CaptureRepository) Delete(ctx context.Context, id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM detections WHERE capture_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	return tx.Commit()
}

// detectionsFor loads the detections of a capture. Caller holds the lock.
func (r *CaptureRepository) detectionsFor(ctx context.Context, captureID string) ([]model.Detection, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT label, x, y, width, height, confidence
		FROM detections WHERE capture_id = ? ORDER BY confidence DESC, id
	`, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	detections := []model.Detection{}
	for rows.Next() {
		var d model.Detection
		if err := rows.Scan(&d.Label, &d.Box.X, &d.Box.Y, &d.Box.Width, &d.Box.Height, &d.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}
