package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Return is a reimbursement batch: money owed between two parties for a date
// range. TransactionIDs and ExternalIDs are parallel projections of the same
// underlying transaction set; neither may contain duplicates.
type Return struct {
	ID              string          `json:"id"`
	Total           decimal.Decimal `json:"total"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`
	LenderUserID    string          `json:"lender_user_id"`
	PayeeUserID     string          `json:"payee_user_id"`
	TransactionIDs  []string        `json:"returned_transaction_ids"`
	ExternalIDs     []string        `json:"returned_external_transaction_ids"`
	PayeeConfirmed  bool            `json:"paid_back_confirmation_payee"`
	LenderConfirmed bool            `json:"paid_back_confirmation_lender"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasTransactionID reports whether the internal id is already a member.
func (r *Return) HasTransactionID(id string) bool {
	for _, v := range r.TransactionIDs {
		if v == id {
			return true
		}
	}
	return false
}

// HasExternalID reports whether the external id is already a member.
func (r *Return) HasExternalID(id string) bool {
	for _, v := range r.ExternalIDs {
		if v == id {
			return true
		}
	}
	return false
}
