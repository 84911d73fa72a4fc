// Package ingest pulls transactions from the upstream feed, classifies them
// with the rule engine, persists new records exactly once per external id,
// updates Return ledgers inline, and advances the ingestion checkpoint.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/minniexp/expense-backend/internal/models"
	"github.com/minniexp/expense-backend/internal/rules"
	"github.com/minniexp/expense-backend/internal/teller"
)

// excludedPhrases is card-to-card settlement noise, not real spend.
var excludedPhrases = []string{
	"Payment to Chase card ending in",
	"PAYMENT TO CHASE CARD ENDING IN",
	"Payment Thank You-Mobile",
	"PAYMENT-THANK YOU",
	"Online Transfer",
}

type Feed interface {
	ListTransactions(ctx context.Context, creds teller.Credentials, accountID string) ([]teller.Transaction, error)
}

type TransactionStore interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Create(ctx context.Context, tx *models.Transaction) error
}

type CheckpointStore interface {
	Get(ctx context.Context) (*models.Checkpoint, error)
	Set(ctx context.Context, lastDate time.Time, lastExternalID string) error
}

type Attacher interface {
	Attach(ctx context.Context, returnID string, tx *models.Transaction) (*models.Return, error)
}

type Options struct {
	// Instruments maps instrument name to upstream account id.
	Instruments map[string]string
	// MonthReturns maps calendar month to the Return collecting that month's
	// reimbursable spending.
	MonthReturns map[int]string
	// SupportedYear bounds ingestion to one calendar year.
	SupportedYear int
	// DefaultUserID is stamped on every ingested transaction.
	DefaultUserID string
}

type Pipeline struct {
	feed        Feed
	txs         TransactionStore
	checkpoints CheckpointStore
	ledger      Attacher
	opts        Options
	log         *slog.Logger
}

func New(feed Feed, txs TransactionStore, checkpoints CheckpointStore, attacher Attacher, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		feed:        feed,
		txs:         txs,
		checkpoints: checkpoints,
		ledger:      attacher,
		opts:        opts,
		log:         log,
	}
}

// Classified is one feed transaction after the rule engine has run.
// Duplicate marks records whose external id is already persisted.
type Classified struct {
	models.Transaction
	Duplicate bool `json:"duplicate"`
}

// Preview runs fetch, filter and classify but persists nothing. Duplicates
// are included and flagged.
func (p *Pipeline) Preview(ctx context.Context, creds teller.Credentials) ([]Classified, error) {
	batch, err := p.fetchAndClassify(ctx, creds)
	if err != nil {
		return nil, err
	}

	for i := range batch {
		exists, err := p.txs.ExistsByExternalID(ctx, batch[i].ExternalID)
		if err != nil {
			return nil, fmt.Errorf("checking external id %s: %w", batch[i].ExternalID, err)
		}
		batch[i].Duplicate = exists
	}
	return batch, nil
}

// Run executes the full pipeline and returns only the newly persisted
// transactions. The checkpoint advances only when at least one transaction
// was persisted.
func (p *Pipeline) Run(ctx context.Context, creds teller.Credentials) ([]*models.Transaction, error) {
	batch, err := p.fetchAndClassify(ctx, creds)
	if err != nil {
		return nil, err
	}

	var persisted []*models.Transaction
	for i := range batch {
		tx := &batch[i].Transaction

		exists, err := p.txs.ExistsByExternalID(ctx, tx.ExternalID)
		if err != nil {
			return persisted, fmt.Errorf("checking external id %s: %w", tx.ExternalID, err)
		}
		if exists {
			p.log.Debug("skipping duplicate transaction", "external_id", tx.ExternalID)
			continue
		}

		if err := p.txs.Create(ctx, tx); err != nil {
			return persisted, fmt.Errorf("persisting transaction %s: %w", tx.ExternalID, err)
		}

		if tx.ReturnID != nil {
			if _, err := p.ledger.Attach(ctx, *tx.ReturnID, tx); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					p.log.Warn("reimbursement target missing",
						"return_id", *tx.ReturnID, "external_id", tx.ExternalID)
				} else {
					return persisted, fmt.Errorf("updating return %s: %w", *tx.ReturnID, err)
				}
			}
		}

		persisted = append(persisted, tx)
	}

	if len(persisted) > 0 {
		newest := persisted[0]
		for _, tx := range persisted[1:] {
			if tx.Date.After(newest.Date) {
				newest = tx
			}
		}
		if err := p.checkpoints.Set(ctx, newest.Date, newest.ExternalID); err != nil {
			return persisted, fmt.Errorf("advancing checkpoint: %w", err)
		}
		p.log.Info("checkpoint advanced",
			"last_date", newest.Date.Format("2006-01-02"),
			"last_external_id", newest.ExternalID,
			"persisted", len(persisted))
	}

	return persisted, nil
}

// fetchAndClassify pulls each configured instrument, filters, and runs the
// rule engine. A fetch failure for one instrument is logged and skipped; the
// other instruments still contribute. The combined batch is sorted by date
// descending with no per-instrument order preserved.
func (p *Pipeline) fetchAndClassify(ctx context.Context, creds teller.Credentials) ([]Classified, error) {
	checkpoint, err := p.checkpoints.Get(ctx)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	var lastDate time.Time
	if checkpoint != nil {
		lastDate = checkpoint.LastDate
	}

	names := make([]string, 0, len(p.opts.Instruments))
	for name := range p.opts.Instruments {
		names = append(names, name)
	}
	sort.Strings(names)

	var batch []Classified
	for _, instrument := range names {
		accountID := p.opts.Instruments[instrument]

		feedTxs, err := p.feed.ListTransactions(ctx, creds, accountID)
		if err != nil {
			p.log.Error("fetch failed, skipping instrument",
				"instrument", instrument, "error", err)
			continue
		}

		for _, feedTx := range feedTxs {
			classified, ok := p.classify(feedTx, instrument, lastDate)
			if !ok {
				continue
			}
			batch = append(batch, classified)
		}
	}

	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Date.After(batch[j].Date)
	})
	return batch, nil
}

// classify filters one feed transaction and runs the rule engine over it.
// ok is false when the transaction is outside the year window, not newer
// than the checkpoint, unparseable, or settlement noise.
func (p *Pipeline) classify(feedTx teller.Transaction, instrument string, lastDate time.Time) (Classified, bool) {
	date, err := time.Parse("2006-01-02", feedTx.Date)
	if err != nil {
		p.log.Warn("dropping transaction with malformed date",
			"external_id", feedTx.ID, "date", feedTx.Date)
		return Classified{}, false
	}

	if date.Year() != p.opts.SupportedYear {
		return Classified{}, false
	}
	if !date.After(lastDate) {
		return Classified{}, false
	}
	for _, phrase := range excludedPhrases {
		if strings.Contains(feedTx.Description, phrase) {
			return Classified{}, false
		}
	}

	tags := rules.PurchaseTags(feedTx.Description, feedTx.Details.Category)
	category := rules.CategoryFor(feedTx.Description)
	month := int(date.Month())

	var returnID *string
	if target := rules.ReimbursementTarget(category, month, p.opts.MonthReturns); target != "" {
		returnID = &target
	}

	return Classified{
		Transaction: models.Transaction{
			UserID:       p.opts.DefaultUserID,
			ExternalID:   feedTx.ID,
			Year:         date.Year(),
			Month:        month,
			Day:          date.Day(),
			Date:         date,
			Description:  feedTx.Description,
			Amount:       feedTx.Amount,
			Category:     category,
			Tags:         tags,
			Instrument:   instrument,
			Points:       rules.Points(instrument, tags, month),
			Type:         rules.Direction(instrument, feedTx.Amount),
			ReturnID:     returnID,
			NeedsPayback: category == models.CategoryParentsMonthly,
		},
	}, true
}
