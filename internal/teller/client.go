// Package teller is the client for the upstream transaction feed. Calls run
// over a mutually-authenticated transport and carry per-call credentials;
// there is no shared token state.
package teller

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minniexp/expense-backend/internal/config"
)

// Credentials authorize one ingestion invocation. They are built fresh per
// call instead of being cached at module scope.
type Credentials struct {
	AccessToken string
}

// Transaction is the feed's wire shape.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Details     Details         `json:"details"`
}

type Details struct {
	Category string `json:"category"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// maxPageSize bounds how many of the most recent transactions one fetch
// requests per account.
const maxPageSize = 100

// New builds a feed client with the client certificate pair required by the
// feed's mutual TLS.
func New(cfg config.TellerConfig) (*Client, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading client certificate: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}, nil
}

// ListTransactions fetches the most recent page of transactions for one
// upstream account.
func (c *Client) ListTransactions(ctx context.Context, creds Credentials, accountID string) ([]Transaction, error) {
	url := fmt.Sprintf("%s/accounts/%s/transactions?count=%d", c.baseURL, accountID, maxPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// The feed authenticates with the access token as basic-auth username
	// and an empty password.
	req.SetBasicAuth(creds.AccessToken, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions for account %s: %w", accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d for account %s", resp.StatusCode, accountID)
	}

	var transactions []Transaction
	if err := json.NewDecoder(resp.Body).Decode(&transactions); err != nil {
		return nil, fmt.Errorf("decoding transactions for account %s: %w", accountID, err)
	}
	return transactions, nil
}
