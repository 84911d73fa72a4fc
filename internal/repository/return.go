package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/minniexp/expense-backend/internal/database"
	"github.com/minniexp/expense-backend/internal/models"
)

type ReturnRepository struct {
	db *database.DB
}

func NewReturnRepository(db *database.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

const returnColumns = `id, total, date, description, lender_user_id, payee_user_id,
	 transaction_ids, external_ids, payee_confirmed, lender_confirmed, created_at, updated_at`

func (r *ReturnRepository) Create(ctx context.Context, ret *models.Return) error {
	if ret.ID == "" {
		ret.ID = uuid.NewString()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO returns (id, total, date, description, lender_user_id, payee_user_id,
		 transaction_ids, external_ids, payee_confirmed, lender_confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		ret.ID, ret.Total, ret.Date, ret.Description, ret.LenderUserID, ret.PayeeUserID,
		emptyIfNil(ret.TransactionIDs), emptyIfNil(ret.ExternalIDs),
		ret.PayeeConfirmed, ret.LenderConfirmed,
	).Scan(&ret.CreatedAt, &ret.UpdatedAt)
}

func (r *ReturnRepository) GetByID(ctx context.Context, id string) (*models.Return, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE id = $1`, id)
	return scanReturn(row)
}

func (r *ReturnRepository) List(ctx context.Context) ([]*models.Return, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+returnColumns+` FROM returns ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []*models.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

func (r *ReturnRepository) Update(ctx context.Context, ret *models.Return) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE returns SET total = $1, date = $2, description = $3, lender_user_id = $4,
		 payee_user_id = $5, transaction_ids = $6, external_ids = $7, payee_confirmed = $8,
		 lender_confirmed = $9, updated_at = NOW()
		 WHERE id = $10`,
		ret.Total, ret.Date, ret.Description, ret.LenderUserID, ret.PayeeUserID,
		emptyIfNil(ret.TransactionIDs), emptyIfNil(ret.ExternalIDs),
		ret.PayeeConfirmed, ret.LenderConfirmed, ret.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateIDLists overwrites both id lists in one statement so the migration
// rewrite is atomic per Return.
func (r *ReturnRepository) UpdateIDLists(ctx context.Context, id string, transactionIDs, externalIDs []string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE returns SET transaction_ids = $1, external_ids = $2, updated_at = NOW()
		 WHERE id = $3`,
		emptyIfNil(transactionIDs), emptyIfNil(externalIDs), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReturnRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM returns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanReturn(row pgx.Row) (*models.Return, error) {
	ret := &models.Return{}
	err := row.Scan(&ret.ID, &ret.Total, &ret.Date, &ret.Description, &ret.LenderUserID,
		&ret.PayeeUserID, &ret.TransactionIDs, &ret.ExternalIDs, &ret.PayeeConfirmed,
		&ret.LenderConfirmed, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return ret, nil
}

// emptyIfNil keeps text[] columns non-null.
func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
