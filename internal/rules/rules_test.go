package rules

import (
	"testing"

	"github.com/minniexp/expense-backend/internal/models"
	"github.com/shopspring/decimal"
)

func TestPurchaseTags(t *testing.T) {
	tests := []struct {
		name           string
		description    string
		detailCategory string
		want           []models.PurchaseTag
	}{
		{
			name:        "grocery chain uppercase",
			description: "ALDI 40123 CHICAGO IL",
			want:        []models.PurchaseTag{models.TagGroceries},
		},
		{
			name:        "grocery chain mixed case",
			description: "Joong Boo Market #2",
			want:        []models.PurchaseTag{models.TagGroceries},
		},
		{
			name:        "amazon",
			description: "AMAZON.COM*1X2Y3Z",
			want:        []models.PurchaseTag{models.TagAmazon},
		},
		{
			name:        "drugstore",
			description: "WALGREENS #0412",
			want:        []models.PurchaseTag{models.TagDrugstore},
		},
		{
			name:           "dining from feed detail",
			description:    "PORTILLOS HOT DOGS",
			detailCategory: "dining",
			want:           []models.PurchaseTag{models.TagDining},
		},
		{
			name:           "multiple matches deduplicated",
			description:    "H MART FOOD COURT",
			detailCategory: "dining",
			want:           []models.PurchaseTag{models.TagGroceries, models.TagDining},
		},
		{
			name:        "no match",
			description: "SHELL OIL 5744",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PurchaseTags(tt.description, tt.detailCategory)
			if len(got) != len(tt.want) {
				t.Fatalf("PurchaseTags() = %v, want %v", got, tt.want)
			}
			have := make(map[models.PurchaseTag]bool)
			for _, tag := range got {
				if have[tag] {
					t.Fatalf("PurchaseTags() returned duplicate tag %q", tag)
				}
				have[tag] = true
			}
			for _, tag := range tt.want {
				if !have[tag] {
					t.Errorf("PurchaseTags() = %v, missing %q", got, tag)
				}
			}
		})
	}
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		description string
		want        models.Category
	}{
		{"ASSI PLAZA NILES", models.CategoryParentsMonthly},
		{"aldi 40123", models.CategoryParentsMonthly},
		{"WWW.SWAN-DIVEPILATES.C WWW.SWAN-DIVE", models.CategoryBill},
		{"CAREONE DENTAL ASSOCIATES GLENVIEW", models.CategoryDoctors},
		{"SHELL OIL 5744", models.CategoryNone},
		{"", models.CategoryNone},
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.description); got != tt.want {
			t.Errorf("CategoryFor(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestPoints(t *testing.T) {
	groceries := []models.PurchaseTag{models.TagGroceries}

	tests := []struct {
		name       string
		instrument string
		tags       []models.PurchaseTag
		month      int
		want       float64
	}{
		{"chase college always zero", "Chase College", groceries, 2, 0},
		{"freedom groceries in q1", "Freedom", groceries, 2, 5},
		{"freedom flex groceries in q1", "Freedom Flex", groceries, 1, 5},
		{"freedom groceries outside q1", "Freedom", groceries, 5, 0},
		{"freedom unlimited groceries outside q1 falls to base", "Freedom Unlimited", groceries, 5, 1.5},
		{"sapphire reserve lyft", "Sapphire Reserve", []models.PurchaseTag{models.TagLyft}, 7, 10},
		{"sapphire reserve flight", "Sapphire Reserve", []models.PurchaseTag{models.TagFlight}, 7, 5},
		{"freedom flex dining", "Freedom Flex", []models.PurchaseTag{models.TagDining}, 9, 3},
		{"freedom unlimited base rate", "Freedom Unlimited", nil, 9, 1.5},
		{"unknown instrument", "Amazon Visa", groceries, 2, 0},
		{"freedom no tags", "Freedom", nil, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Points(tt.instrument, tt.tags, tt.month); got != tt.want {
				t.Errorf("Points(%q, %v, %d) = %v, want %v", tt.instrument, tt.tags, tt.month, got, tt.want)
			}
		})
	}
}

func TestPointsRuleOrder(t *testing.T) {
	// Sapphire Reserve with both lyft and flight must hit the lyft rule first.
	tags := []models.PurchaseTag{models.TagFlight, models.TagLyft}
	if got := Points("Sapphire Reserve", tags, 6); got != 10 {
		t.Errorf("Points() = %v, want 10 (lyft rule precedes flight rule)", got)
	}

	// Freedom Flex with flight and dining must hit the flight rule first.
	tags = []models.PurchaseTag{models.TagDining, models.TagFlight}
	if got := Points("Freedom Flex", tags, 6); got != 5 {
		t.Errorf("Points() = %v, want 5 (flight rule precedes dining rule)", got)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		instrument string
		amount     string
		want       models.TransactionType
	}{
		// Cash-style accounts: positive means money in.
		{"Chase College", "120.00", models.TransactionTypeIncome},
		{"Chase College", "-45.10", models.TransactionTypeExpense},
		{"Cash", "20.00", models.TransactionTypeIncome},
		// Card accounts: positive means a charge.
		{"Freedom", "45.10", models.TransactionTypeExpense},
		{"Freedom", "-45.10", models.TransactionTypeIncome},
		{"Sapphire Reserve", "900.00", models.TransactionTypeExpense},
		{"Amazon Visa", "-12.99", models.TransactionTypeIncome},
	}

	for _, tt := range tests {
		amount := decimal.RequireFromString(tt.amount)
		if got := Direction(tt.instrument, amount); got != tt.want {
			t.Errorf("Direction(%q, %s) = %q, want %q", tt.instrument, tt.amount, got, tt.want)
		}
	}
}

func TestReimbursementTarget(t *testing.T) {
	monthReturns := map[int]string{1: "ret-jan", 2: "ret-feb"}

	if got := ReimbursementTarget(models.CategoryParentsMonthly, 2, monthReturns); got != "ret-feb" {
		t.Errorf("ReimbursementTarget() = %q, want %q", got, "ret-feb")
	}
	if got := ReimbursementTarget(models.CategoryBill, 2, monthReturns); got != "" {
		t.Errorf("ReimbursementTarget() = %q, want empty for non-reimbursable category", got)
	}
	if got := ReimbursementTarget(models.CategoryNone, 1, monthReturns); got != "" {
		t.Errorf("ReimbursementTarget() = %q, want empty for no category", got)
	}
}
