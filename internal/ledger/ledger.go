// Package ledger maintains Return batches: reimbursement ledgers whose
// running totals and dual id lists (internal and external) must stay
// consistent at every accumulation step.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/minniexp/expense-backend/internal/models"
)

// TransactionLookup resolves transactions in a single, stated id namespace.
type TransactionLookup interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Transaction, error)
}

type ReturnStore interface {
	GetByID(ctx context.Context, id string) (*models.Return, error)
	List(ctx context.Context) ([]*models.Return, error)
	Update(ctx context.Context, ret *models.Return) error
	UpdateIDLists(ctx context.Context, id string, transactionIDs, externalIDs []string) error
}

type Ledger struct {
	returns ReturnStore
	txs     TransactionLookup
}

func New(returns ReturnStore, txs TransactionLookup) *Ledger {
	return &Ledger{returns: returns, txs: txs}
}

// Resolve looks a transaction up by an explicit reference. Unlike the
// migration below it never falls back across namespaces.
func (l *Ledger) Resolve(ctx context.Context, ref models.TxRef) (*models.Transaction, error) {
	switch ref.Kind {
	case models.RefInternal:
		return l.txs.GetByID(ctx, ref.ID)
	case models.RefExternal:
		return l.txs.GetByExternalID(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("unknown ref kind %q", ref.Kind)
	}
}

// Attach adds a transaction to a Return batch. It is idempotent: a
// transaction already present under either id contributes nothing, and only
// expense transactions add to the running total, once per distinct internal
// id ever attached.
func (l *Ledger) Attach(ctx context.Context, returnID string, tx *models.Transaction) (*models.Return, error) {
	ret, err := l.returns.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if ret.HasTransactionID(tx.ID) {
		return ret, nil
	}
	if tx.ExternalID != "" && ret.HasExternalID(tx.ExternalID) {
		return ret, nil
	}

	ret.TransactionIDs = append(ret.TransactionIDs, tx.ID)
	if tx.ExternalID != "" {
		ret.ExternalIDs = append(ret.ExternalIDs, tx.ExternalID)
	}
	if tx.Type == models.TransactionTypeExpense {
		ret.Total = ret.Total.Add(tx.Amount)
	}

	if err := l.returns.Update(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// MigrateError records a Return that could not be repaired.
type MigrateError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ReturnMigration is the per-Return audit entry: list sizes before and after
// the rewrite plus any ids that matched neither namespace.
type ReturnMigration struct {
	ReturnID       string   `json:"return_id"`
	BeforeInternal int      `json:"before_internal"`
	BeforeExternal int      `json:"before_external"`
	AfterInternal  int      `json:"after_internal"`
	AfterExternal  int      `json:"after_external"`
	Unresolved     []string `json:"unresolved,omitempty"`
}

type MigrateReport struct {
	Processed int               `json:"processed"`
	Updated   int               `json:"updated"`
	Skipped   int               `json:"skipped"`
	Errors    []MigrateError    `json:"errors"`
	Details   []ReturnMigration `json:"details"`
}

// Migrate repairs legacy Returns whose internal-id lists mixed internal and
// external ids. Every id is resolved internal-first, then external; resolved
// ids are rewritten into canonical internal and external sets, unresolved
// ids are dropped and reported. The pass is re-runnable: once all ids are
// canonical the resolved sets equal the stored ones and nothing is written.
func (l *Ledger) Migrate(ctx context.Context) (*MigrateReport, error) {
	returns, err := l.returns.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &MigrateReport{
		Errors:  []MigrateError{},
		Details: []ReturnMigration{},
	}

	for _, ret := range returns {
		report.Processed++

		if len(ret.TransactionIDs) == 0 {
			report.Skipped++
			continue
		}

		detail, changed, err := l.migrateOne(ctx, ret)
		if err != nil {
			// A failed Return is recorded and the pass moves on.
			report.Errors = append(report.Errors, MigrateError{ID: ret.ID, Error: err.Error()})
			continue
		}

		report.Details = append(report.Details, *detail)
		if changed {
			report.Updated++
		} else {
			report.Skipped++
		}
	}

	return report, nil
}

func (l *Ledger) migrateOne(ctx context.Context, ret *models.Return) (*ReturnMigration, bool, error) {
	detail := &ReturnMigration{
		ReturnID:       ret.ID,
		BeforeInternal: len(ret.TransactionIDs),
		BeforeExternal: len(ret.ExternalIDs),
	}

	var internalIDs, externalIDs []string
	seenInternal := make(map[string]struct{})
	seenExternal := make(map[string]struct{})

	for _, id := range ret.TransactionIDs {
		tx, err := l.resolveLegacy(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			detail.Unresolved = append(detail.Unresolved, id)
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("resolving id %s: %w", id, err)
		}

		if _, ok := seenInternal[tx.ID]; !ok {
			seenInternal[tx.ID] = struct{}{}
			internalIDs = append(internalIDs, tx.ID)
		}
		if tx.ExternalID != "" {
			if _, ok := seenExternal[tx.ExternalID]; !ok {
				seenExternal[tx.ExternalID] = struct{}{}
				externalIDs = append(externalIDs, tx.ExternalID)
			}
		}
	}

	detail.AfterInternal = len(internalIDs)
	detail.AfterExternal = len(externalIDs)

	if len(internalIDs) == 0 && len(externalIDs) == 0 {
		return detail, false, nil
	}

	// Writing identical sets back would make a second pass look like it
	// changed something; compare first.
	if sameSet(ret.TransactionIDs, internalIDs) && sameSet(ret.ExternalIDs, externalIDs) {
		return detail, false, nil
	}

	if err := l.returns.UpdateIDLists(ctx, ret.ID, internalIDs, externalIDs); err != nil {
		return nil, false, err
	}
	return detail, true, nil
}

// resolveLegacy is the only place that accepts an id of unknown provenance:
// internal lookup first, then external.
func (l *Ledger) resolveLegacy(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := l.txs.GetByID(ctx, id)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return l.txs.GetByExternalID(ctx, id)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
