package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/minniexp/expense-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTxStore struct {
	byID    map[string]*models.Transaction
	byExt   map[string]*models.Transaction
	created []*models.Transaction
	updated []*models.Transaction
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{
		byID:  make(map[string]*models.Transaction),
		byExt: make(map[string]*models.Transaction),
	}
}

func (f *fakeTxStore) List(_ context.Context) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range f.byID {
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeTxStore) ListByMonth(_ context.Context, year, month int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range f.byID {
		if tx.Year == year && tx.Month == month {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTxStore) Create(_ context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = "id-" + tx.ExternalID
	}
	f.byID[tx.ID] = tx
	if tx.ExternalID != "" {
		f.byExt[tx.ExternalID] = tx
	}
	f.created = append(f.created, tx)
	return nil
}

func (f *fakeTxStore) ExistsByExternalID(_ context.Context, externalID string) (bool, error) {
	_, ok := f.byExt[externalID]
	return ok, nil
}

func (f *fakeTxStore) Update(_ context.Context, tx *models.Transaction) error {
	if _, ok := f.byID[tx.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[tx.ID] = tx
	f.updated = append(f.updated, tx)
	return nil
}

func (f *fakeTxStore) DeleteAll(_ context.Context) error {
	f.byID = make(map[string]*models.Transaction)
	f.byExt = make(map[string]*models.Transaction)
	return nil
}

type fakeAttacher struct {
	returns  map[string]*models.Return
	attached []string
}

func (f *fakeAttacher) Attach(_ context.Context, returnID string, tx *models.Transaction) (*models.Return, error) {
	ret, ok := f.returns[returnID]
	if !ok {
		return nil, models.ErrNotFound
	}
	ret.TransactionIDs = append(ret.TransactionIDs, tx.ID)
	if tx.Type == models.TransactionTypeExpense {
		ret.Total = ret.Total.Add(tx.Amount)
	}
	f.attached = append(f.attached, tx.ID)
	return ret, nil
}

func newTransactionRouter(store *fakeTxStore, attacher *fakeAttacher) *gin.Engine {
	h := NewTransactionHandler(store, attacher, map[int]string{1: "ret-jan"}, "user-1")
	r := gin.New()
	r.POST("/transactions", h.CreateBulk)
	r.PUT("/transactions", h.UpdateMany)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBulkRejectsMalformedBatchWithoutPersisting(t *testing.T) {
	store := newFakeTxStore()
	attacher := &fakeAttacher{returns: map[string]*models.Return{
		"ret-jan": {ID: "ret-jan", Total: decimal.Zero},
	}}
	r := newTransactionRouter(store, attacher)

	// The second element is missing its transaction_type; the first must not
	// be saved in passing.
	body := `[
		{"date": "2025-01-10", "transaction_type": "expense", "amount": "12.50", "description": "ALDI", "category": "parents-monthly"},
		{"date": "2025-01-11", "amount": "5.00", "description": "CVS"}
	]`
	w := doJSON(t, r, http.MethodPost, "/transactions", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(store.created) != 0 {
		t.Errorf("created %d transactions, want 0 on a rejected batch", len(store.created))
	}
	if len(attacher.attached) != 0 {
		t.Errorf("attached %d transactions, want 0 on a rejected batch", len(attacher.attached))
	}
}

func TestCreateBulkAllDuplicates(t *testing.T) {
	store := newFakeTxStore()
	store.byExt["ext-1"] = &models.Transaction{ID: "existing", ExternalID: "ext-1"}
	r := newTransactionRouter(store, &fakeAttacher{})

	body := `[{"external_id": "ext-1", "date": "2025-01-10", "transaction_type": "expense", "amount": "12.50"}]`
	w := doJSON(t, r, http.MethodPost, "/transactions", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != "No new transactions to save" {
		t.Errorf("message = %q, want %q", resp.Message, "No new transactions to save")
	}
	if len(store.created) != 0 {
		t.Errorf("created %d transactions, want 0", len(store.created))
	}
}

func TestCreateBulkAttachesReimbursableSpend(t *testing.T) {
	store := newFakeTxStore()
	attacher := &fakeAttacher{returns: map[string]*models.Return{
		"ret-jan": {ID: "ret-jan", Total: decimal.Zero},
	}}
	r := newTransactionRouter(store, attacher)

	body := `[{"external_id": "ext-1", "date": "2025-01-10", "transaction_type": "expense", "amount": "32.50", "description": "ALDI", "category": "parents-monthly"}]`
	w := doJSON(t, r, http.MethodPost, "/transactions", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d transactions, want 1", len(store.created))
	}
	tx := store.created[0]
	if tx.ReturnID == nil || *tx.ReturnID != "ret-jan" {
		t.Errorf("return id = %v, want ret-jan from the month table", tx.ReturnID)
	}
	if !tx.NeedsPayback {
		t.Error("parents-monthly transaction should need payback")
	}
	if len(attacher.attached) != 1 {
		t.Fatalf("attached %d transactions, want 1", len(attacher.attached))
	}
	if !attacher.returns["ret-jan"].Total.Equal(decimal.RequireFromString("32.50")) {
		t.Errorf("return total = %s, want 32.50", attacher.returns["ret-jan"].Total)
	}
}

func TestUpdateManyCollectsPerItemFailures(t *testing.T) {
	store := newFakeTxStore()
	store.byID["tx-1"] = &models.Transaction{ID: "tx-1"}
	r := newTransactionRouter(store, &fakeAttacher{})

	body := `[
		{"id": "tx-1", "date": "2025-01-10", "transaction_type": "expense", "amount": "10.00", "notes": "edited"},
		{"date": "2025-01-10", "transaction_type": "expense", "amount": "10.00"},
		{"id": "tx-missing", "date": "2025-01-10", "transaction_type": "expense", "amount": "10.00"}
	]`
	w := doJSON(t, r, http.MethodPut, "/transactions", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Successful []json.RawMessage `json:"successful"`
		Failed     []struct {
			Error string `json:"error"`
		} `json:"failed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Successful) != 1 {
		t.Errorf("successful = %d, want 1", len(resp.Successful))
	}
	if len(resp.Failed) != 2 {
		t.Fatalf("failed = %d, want 2", len(resp.Failed))
	}
	if len(store.updated) != 1 || store.updated[0].Notes != "edited" {
		t.Errorf("updated = %v, want only tx-1 with its edit applied", store.updated)
	}
}
