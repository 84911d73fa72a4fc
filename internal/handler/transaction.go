package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/minniexp/expense-backend/internal/models"
	"github.com/minniexp/expense-backend/internal/rules"
)

type TransactionStore interface {
	List(ctx context.Context) ([]*models.Transaction, error)
	ListByMonth(ctx context.Context, year, month int) ([]*models.Transaction, error)
	Create(ctx context.Context, tx *models.Transaction) error
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Update(ctx context.Context, tx *models.Transaction) error
	DeleteAll(ctx context.Context) error
}

type ReturnAttacher interface {
	Attach(ctx context.Context, returnID string, tx *models.Transaction) (*models.Return, error)
}

type TransactionHandler struct {
	txs           TransactionStore
	ledger        ReturnAttacher
	monthReturns  map[int]string
	defaultUserID string
}

func NewTransactionHandler(txs TransactionStore, attacher ReturnAttacher, monthReturns map[int]string, defaultUserID string) *TransactionHandler {
	return &TransactionHandler{
		txs:           txs,
		ledger:        attacher,
		monthReturns:  monthReturns,
		defaultUserID: defaultUserID,
	}
}

// transactionRequest is the wire shape for creates and updates. The date
// comes in as YYYY-MM-DD, matching the upstream feed.
type transactionRequest struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ExternalID   string          `json:"external_id"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Tags         []string        `json:"purchase_category"`
	Instrument   string          `json:"payment_method"`
	Points       float64         `json:"points"`
	Type         string          `json:"transaction_type"`
	ReturnID     *string         `json:"return_id"`
	Returned     bool            `json:"returned"`
	NeedsPayback bool            `json:"need_to_be_paid_back"`
	Notes        string          `json:"notes"`
}

func (r *transactionRequest) toModel(defaultUserID string) (*models.Transaction, error) {
	if r.Type == "" || r.Date == "" {
		return nil, errors.New("missing required fields: transaction_type, date")
	}
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", r.Date)
	}

	userID := r.UserID
	if userID == "" {
		userID = defaultUserID
	}

	tags := make([]models.PurchaseTag, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = models.PurchaseTag(t)
	}

	tx := &models.Transaction{
		ID:           r.ID,
		UserID:       userID,
		ExternalID:   r.ExternalID,
		Year:         date.Year(),
		Month:        int(date.Month()),
		Day:          date.Day(),
		Date:         date,
		Description:  r.Description,
		Amount:       r.Amount,
		Category:     models.Category(r.Category),
		Tags:         tags,
		Instrument:   r.Instrument,
		Points:       r.Points,
		Type:         models.TransactionType(r.Type),
		ReturnID:     r.ReturnID,
		Returned:     r.Returned,
		NeedsPayback: r.NeedsPayback,
		Notes:        r.Notes,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func (h *TransactionHandler) List(c *gin.Context) {
	transactions, err := h.txs.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) ListMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	transactions, err := h.txs.ListByMonth(c.Request.Context(), year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := req.toModel(h.defaultUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.txs.Create(c.Request.Context(), tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// CreateBulk persists a classified batch: duplicates by external id are
// skipped, and reimbursable transactions are attached to their month's
// Return as they are persisted.
func (h *TransactionHandler) CreateBulk(c *gin.Context) {
	var reqs []transactionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be an array of transactions"})
		return
	}

	// Validate the whole batch before touching storage: a malformed element
	// must not leave earlier elements half-saved.
	batch := make([]*models.Transaction, 0, len(reqs))
	for i, req := range reqs {
		tx, err := req.toModel(h.defaultUserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("transaction %d: %v", i, err)})
			return
		}
		batch = append(batch, tx)
	}

	ctx := c.Request.Context()
	var saved []*models.Transaction

	for _, tx := range batch {
		if tx.ExternalID != "" {
			exists, err := h.txs.ExistsByExternalID(ctx, tx.ExternalID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if exists {
				slog.Debug("skipping duplicate transaction", "external_id", tx.ExternalID)
				continue
			}
		}

		// The month table is authoritative for the reimbursement target.
		if tx.Category == models.CategoryParentsMonthly {
			if target := rules.ReimbursementTarget(tx.Category, tx.Month, h.monthReturns); target != "" {
				tx.ReturnID = &target
			}
			tx.NeedsPayback = true
		}

		if err := h.txs.Create(ctx, tx); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if tx.ReturnID != nil {
			if _, err := h.ledger.Attach(ctx, *tx.ReturnID, tx); err != nil && !errors.Is(err, models.ErrNotFound) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		saved = append(saved, tx)
	}

	if len(saved) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No new transactions to save"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type updateFailure struct {
	Transaction transactionRequest `json:"transaction"`
	Error       string             `json:"error"`
}

// UpdateMany applies a batch of updates, collecting per-item failures
// instead of aborting the batch.
func (h *TransactionHandler) UpdateMany(c *gin.Context) {
	var reqs []transactionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be an array of transactions"})
		return
	}

	ctx := c.Request.Context()
	var successful []*models.Transaction
	failed := []updateFailure{}

	for _, req := range reqs {
		if req.ID == "" {
			failed = append(failed, updateFailure{Transaction: req, Error: "missing transaction id"})
			continue
		}

		tx, err := req.toModel(h.defaultUserID)
		if err != nil {
			failed = append(failed, updateFailure{Transaction: req, Error: err.Error()})
			continue
		}

		if err := h.txs.Update(ctx, tx); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				failed = append(failed, updateFailure{Transaction: req, Error: fmt.Sprintf("transaction %s not found", req.ID)})
			} else {
				failed = append(failed, updateFailure{Transaction: req, Error: err.Error()})
			}
			continue
		}
		successful = append(successful, tx)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Updated %d transactions, %d failed", len(successful), len(failed)),
		"successful": successful,
		"failed":     failed,
	})
}

func (h *TransactionHandler) DeleteAll(c *gin.Context) {
	if err := h.txs.DeleteAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All transactions deleted successfully"})
}

// ExportMonthXLSX writes one month's transactions as a spreadsheet.
func (h *TransactionHandler) ExportMonthXLSX(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	transactions, err := h.txs.ListByMonth(c.Request.Context(), year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Description", "Amount", "Type", "Category", "Tags", "Instrument", "Points", "Returned"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, header)
	}

	for i, tx := range transactions {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), tx.Date.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), tx.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), tx.Amount.String())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(tx.Type))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(tx.Category))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), joinTags(tx.Tags))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), tx.Instrument)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), tx.Points)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), tx.Returned)
	}

	filename := fmt.Sprintf("transactions_%d_%02d.xlsx", year, month)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(c.Writer); err != nil {
		slog.Error("writing xlsx export", "error", err)
	}
}

func joinTags(tags []models.PurchaseTag) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ", "
		}
		out += string(t)
	}
	return out
}
