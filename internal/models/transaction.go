package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Category is the closed set of spending categories. The empty value means
// "uncategorized" and is legal.
type Category string

const (
	CategoryNone             Category = ""
	CategoryFuel             Category = "fuel"
	CategoryPersonal         Category = "personal"
	CategoryParentsMonthly   Category = "parents-monthly"
	CategoryParentsIrregular Category = "parents-not monthly"
	CategoryBill             Category = "bill"
	CategoryEmergency        Category = "emergency"
	CategoryTravel           Category = "travel"
	CategoryOffering         Category = "offering"
	CategoryDoctors          Category = "doctors"
	CategoryAutomobile       Category = "automobile"
	CategoryKorea            Category = "korea"
	CategoryBusiness         Category = "business"
)

var validCategories = map[Category]struct{}{
	CategoryNone: {}, CategoryFuel: {}, CategoryPersonal: {},
	CategoryParentsMonthly: {}, CategoryParentsIrregular: {}, CategoryBill: {},
	CategoryEmergency: {}, CategoryTravel: {}, CategoryOffering: {},
	CategoryDoctors: {}, CategoryAutomobile: {}, CategoryKorea: {},
	CategoryBusiness: {},
}

func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

// PurchaseTag marks what kind of purchase a transaction was. A transaction
// can carry several tags at once.
type PurchaseTag string

const (
	TagGroceries     PurchaseTag = "groceries"
	TagAmazon        PurchaseTag = "amazon"
	TagDining        PurchaseTag = "dining"
	TagGift          PurchaseTag = "gift"
	TagGiftCard      PurchaseTag = "gift card"
	TagBirthdayGift  PurchaseTag = "birthday gift"
	TagWeddingGift   PurchaseTag = "wedding gift"
	TagHealth        PurchaseTag = "health"
	TagFlight        PurchaseTag = "flight"
	TagHotel         PurchaseTag = "hotel"
	TagDrugstore     PurchaseTag = "drugstore"
	TagLyft          PurchaseTag = "lyft"
	TagTravel        PurchaseTag = "travel"
	TagInternational PurchaseTag = "international"
	TagFuel          PurchaseTag = "fuel"
)

var validTags = map[PurchaseTag]struct{}{
	TagGroceries: {}, TagAmazon: {}, TagDining: {}, TagGift: {},
	TagGiftCard: {}, TagBirthdayGift: {}, TagWeddingGift: {}, TagHealth: {},
	TagFlight: {}, TagHotel: {}, TagDrugstore: {}, TagLyft: {},
	TagTravel: {}, TagInternational: {}, TagFuel: {},
}

func (p PurchaseTag) Valid() bool {
	_, ok := validTags[p]
	return ok
}

type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ExternalID   string          `json:"external_id,omitempty"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Day          int             `json:"day"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     Category        `json:"category"`
	Tags         []PurchaseTag   `json:"purchase_category"`
	Instrument   string          `json:"payment_method"`
	Points       float64         `json:"points"`
	Type         TransactionType `json:"transaction_type"`
	ReturnID     *string         `json:"return_id"`
	Returned     bool            `json:"returned"`
	NeedsPayback bool            `json:"need_to_be_paid_back"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate rejects invalid enum values at the data-model boundary so they are
// never silently stored.
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("invalid category %q", t.Category)
	}
	for _, tag := range t.Tags {
		if !tag.Valid() {
			return fmt.Errorf("invalid purchase tag %q", tag)
		}
	}
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("invalid month %d", t.Month)
	}
	if t.Day < 1 || t.Day > 31 {
		return fmt.Errorf("invalid day %d", t.Day)
	}
	if t.Points < 0 {
		return fmt.Errorf("points must not be negative")
	}
	return nil
}
