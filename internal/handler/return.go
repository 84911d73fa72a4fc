package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/minniexp/expense-backend/internal/ledger"
	"github.com/minniexp/expense-backend/internal/models"
	"github.com/minniexp/expense-backend/internal/repository"
)

type ReturnHandler struct {
	returns *repository.ReturnRepository
	ledger  *ledger.Ledger
}

func NewReturnHandler(returns *repository.ReturnRepository, l *ledger.Ledger) *ReturnHandler {
	return &ReturnHandler{returns: returns, ledger: l}
}

type returnRequest struct {
	Total           decimal.Decimal `json:"total"`
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	LenderUserID    string          `json:"lender_user_id"`
	PayeeUserID     string          `json:"payee_user_id"`
	TransactionIDs  []string        `json:"returned_transaction_ids"`
	ExternalIDs     []string        `json:"returned_external_transaction_ids"`
	PayeeConfirmed  bool            `json:"paid_back_confirmation_payee"`
	LenderConfirmed bool            `json:"paid_back_confirmation_lender"`
}

func (r *returnRequest) toModel() (*models.Return, error) {
	if r.Date == "" {
		return nil, errors.New("missing required field: date")
	}
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", r.Date)
	}
	return &models.Return{
		Total:           r.Total,
		Date:            date,
		Description:     r.Description,
		LenderUserID:    r.LenderUserID,
		PayeeUserID:     r.PayeeUserID,
		TransactionIDs:  r.TransactionIDs,
		ExternalIDs:     r.ExternalIDs,
		PayeeConfirmed:  r.PayeeConfirmed,
		LenderConfirmed: r.LenderConfirmed,
	}, nil
}

func (h *ReturnHandler) Create(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ret, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.returns.Create(c.Request.Context(), ret); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ret)
}

func (h *ReturnHandler) List(c *gin.Context) {
	returns, err := h.returns.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, returns)
}

func (h *ReturnHandler) Get(c *gin.Context) {
	ret, err := h.returns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, ret)
}

func (h *ReturnHandler) Update(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ret, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ret.ID = c.Param("id")

	if err := h.returns.Update(c.Request.Context(), ret); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, ret)
}

func (h *ReturnHandler) Delete(c *gin.Context) {
	if err := h.returns.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Return deleted"})
}

// Attach adds one transaction to a Return. The request must state which id
// namespace it references; there is no guessing outside the migration.
func (h *ReturnHandler) Attach(c *gin.Context) {
	var ref models.TxRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ref.Kind != models.RefInternal && ref.Kind != models.RefExternal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be \"internal\" or \"external\""})
		return
	}

	ctx := c.Request.Context()
	tx, err := h.ledger.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ret, err := h.ledger.Attach(ctx, c.Param("id"), tx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, ret)
}

// Migrate runs the dual-id repair pass over all Returns and reports what it
// did per Return.
func (h *ReturnHandler) Migrate(c *gin.Context) {
	report, err := h.ledger.Migrate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
