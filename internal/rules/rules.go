// Package rules classifies raw feed transactions: purchase tags, spending
// category, reward points, and transaction direction. Everything here is a
// pure function over static tables; unmatched input falls through to a
// documented default instead of failing.
package rules

import (
	"strings"

	"github.com/minniexp/expense-backend/internal/models"
	"github.com/shopspring/decimal"
)

var groceryStores = []string{
	"ALDI",
	"H MART",
	"JERRY S FRUIT",
	"JOONG BOO MARKET",
	"ASSI PLAZA",
}

var drugstores = []string{
	"WALGREENS",
	"CVS",
}

// travelRewardInstruments earn elevated rates on flights and dining.
var travelRewardInstruments = []string{
	"Sapphire Reserve",
	"Freedom Unlimited",
	"Freedom Flex",
}

const (
	instrumentChaseCollege    = "Chase College"
	instrumentCash            = "Cash"
	instrumentFreedom         = "Freedom"
	instrumentFreedomFlex     = "Freedom Flex"
	instrumentFreedomUnltd    = "Freedom Unlimited"
	instrumentSapphireReserve = "Sapphire Reserve"
)

func containsAny(description string, stores []string) bool {
	upper := strings.ToUpper(description)
	for _, store := range stores {
		if strings.Contains(upper, strings.ToUpper(store)) {
			return true
		}
	}
	return false
}

// PurchaseTags matches the description against the fixed store lists and the
// feed's own detail category. Tags are deduplicated; order is not meaningful.
func PurchaseTags(description, detailCategory string) []models.PurchaseTag {
	seen := make(map[models.PurchaseTag]struct{})
	var tags []models.PurchaseTag
	add := func(tag models.PurchaseTag) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	upper := strings.ToUpper(description)

	if containsAny(description, groceryStores) {
		add(models.TagGroceries)
	}
	if strings.Contains(upper, "AMAZON") {
		add(models.TagAmazon)
	}
	if containsAny(description, drugstores) {
		add(models.TagDrugstore)
	}
	if detailCategory == "dining" {
		add(models.TagDining)
	}

	return tags
}

// CategoryFor maps a description to a spending category. Grocery chains fund
// the monthly parents batch; two merchants are pinned to fixed categories.
// Everything else stays uncategorized.
func CategoryFor(description string) models.Category {
	if containsAny(description, groceryStores) {
		return models.CategoryParentsMonthly
	}

	upper := strings.ToUpper(description)
	if strings.Contains(upper, "WWW.SWAN-DIVEPILATES.C WWW.SWAN-DIVE") {
		return models.CategoryBill
	}
	if strings.Contains(upper, "CAREONE DENTAL ASSOCIATES GLENVIEW") {
		return models.CategoryDoctors
	}

	return models.CategoryNone
}

func hasTag(tags []models.PurchaseTag, want models.PurchaseTag) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func isTravelRewardInstrument(instrument string) bool {
	for _, name := range travelRewardInstruments {
		if instrument == name {
			return true
		}
	}
	return false
}

// Points computes reward points for a purchase. Rules are evaluated top to
// bottom and the first match wins: rules 2-5 are instrument-specific
// overrides over the Freedom Unlimited base rate.
func Points(instrument string, tags []models.PurchaseTag, month int) float64 {
	// Chase College earns nothing, ever.
	if instrument == instrumentChaseCollege {
		return 0
	}

	// Q1 grocery promotion on Freedom and Freedom Flex.
	if (instrument == instrumentFreedom || instrument == instrumentFreedomFlex) &&
		hasTag(tags, models.TagGroceries) && month >= 1 && month <= 3 {
		return 5
	}

	if instrument == instrumentSapphireReserve && hasTag(tags, models.TagLyft) {
		return 10
	}

	if isTravelRewardInstrument(instrument) && hasTag(tags, models.TagFlight) {
		return 5
	}

	if isTravelRewardInstrument(instrument) && hasTag(tags, models.TagDining) {
		return 3
	}

	if instrument == instrumentFreedomUnltd {
		return 1.5
	}

	return 0
}

// Direction classifies the sign of a balance movement. Chase College and Cash
// are cash-style accounts where a positive amount is money coming in; every
// other instrument is a card account where a positive amount is a charge.
// The asymmetry is deliberate; do not "fix" it.
func Direction(instrument string, amount decimal.Decimal) models.TransactionType {
	positive := amount.Sign() > 0

	if instrument == instrumentChaseCollege || instrument == instrumentCash {
		if positive {
			return models.TransactionTypeIncome
		}
		return models.TransactionTypeExpense
	}

	if positive {
		return models.TransactionTypeExpense
	}
	return models.TransactionTypeIncome
}

// ReimbursementTarget returns the Return batch a transaction should be
// attached to, or empty when the category is not reimbursable. monthReturns
// maps calendar month (1-12) to a Return id and is injected from config.
func ReimbursementTarget(category models.Category, month int, monthReturns map[int]string) string {
	if category != models.CategoryParentsMonthly {
		return ""
	}
	return monthReturns[month]
}
