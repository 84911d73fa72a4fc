package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/minniexp/expense-backend/internal/database"
	"github.com/minniexp/expense-backend/internal/models"
)

// CheckpointID is the id of the singleton ingestion cursor row.
const CheckpointID = "ingest"

type CheckpointRepository struct {
	db *database.DB
}

func NewCheckpointRepository(db *database.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

func (r *CheckpointRepository) Get(ctx context.Context) (*models.Checkpoint, error) {
	cp := &models.Checkpoint{}
	var lastDate *time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, last_date, last_external_id, updated_at FROM checkpoints WHERE id = $1`,
		CheckpointID,
	).Scan(&cp.ID, &lastDate, &cp.LastExternalID, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if lastDate != nil {
		cp.LastDate = *lastDate
	}
	return cp, nil
}

// Set creates or replaces the cursor.
func (r *CheckpointRepository) Set(ctx context.Context, lastDate time.Time, lastExternalID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO checkpoints (id, last_date, last_external_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET last_date = EXCLUDED.last_date,
		     last_external_id = EXCLUDED.last_external_id,
		     updated_at = NOW()`,
		CheckpointID, lastDate, lastExternalID,
	)
	return err
}
