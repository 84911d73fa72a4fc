package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/minniexp/expense-backend/internal/database"
	"github.com/minniexp/expense-backend/internal/models"
)

type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, external_id, year, month, day, date, description, amount,
	 category, purchase_tags, instrument, points, transaction_type, return_id,
	 returned, needs_payback, notes, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, external_id, year, month, day, date, description,
		 amount, category, purchase_tags, instrument, points, transaction_type, return_id,
		 returned, needs_payback, notes)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING created_at, updated_at`,
		tx.ID, tx.UserID, tx.ExternalID, tx.Year, tx.Month, tx.Day, tx.Date, tx.Description,
		tx.Amount, string(tx.Category), tagsToStrings(tx.Tags), tx.Instrument, tx.Points,
		string(tx.Type), tx.ReturnID, tx.Returned, tx.NeedsPayback, tx.Notes,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *TransactionRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Transaction, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE external_id = $1`, externalID)
	return scanTransaction(row)
}

// ExistsByExternalID is the ingestion dedup check.
func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE external_id = $1)`, externalID,
	).Scan(&exists)
	return exists, err
}

func (r *TransactionRepository) List(ctx context.Context) ([]*models.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) ListByMonth(ctx context.Context, year, month int) ([]*models.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE year = $1 AND month = $2
		 ORDER BY date ASC, created_at ASC`,
		year, month,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE transactions SET user_id = $1, external_id = NULLIF($2, ''), year = $3, month = $4,
		 day = $5, date = $6, description = $7, amount = $8, category = $9, purchase_tags = $10,
		 instrument = $11, points = $12, transaction_type = $13, return_id = $14, returned = $15,
		 needs_payback = $16, notes = $17, updated_at = NOW()
		 WHERE id = $18`,
		tx.UserID, tx.ExternalID, tx.Year, tx.Month, tx.Day, tx.Date, tx.Description,
		tx.Amount, string(tx.Category), tagsToStrings(tx.Tags), tx.Instrument, tx.Points,
		string(tx.Type), tx.ReturnID, tx.Returned, tx.NeedsPayback, tx.Notes, tx.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM transactions`)
	return err
}

func tagsToStrings(tags []models.PurchaseTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func stringsToTags(vals []string) []models.PurchaseTag {
	if len(vals) == 0 {
		return nil
	}
	out := make([]models.PurchaseTag, len(vals))
	for i, v := range vals {
		out[i] = models.PurchaseTag(v)
	}
	return out
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var externalID *string
	var category, txType string
	var tags []string
	err := row.Scan(&tx.ID, &tx.UserID, &externalID, &tx.Year, &tx.Month, &tx.Day, &tx.Date,
		&tx.Description, &tx.Amount, &category, &tags, &tx.Instrument, &tx.Points, &txType,
		&tx.ReturnID, &tx.Returned, &tx.NeedsPayback, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if externalID != nil {
		tx.ExternalID = *externalID
	}
	tx.Category = models.Category(category)
	tx.Type = models.TransactionType(txType)
	tx.Tags = stringsToTags(tags)
	return tx, nil
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
