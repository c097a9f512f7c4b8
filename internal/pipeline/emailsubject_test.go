package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

func TestExtractSpendingInsights(t *testing.T) {
	summaries := []domain.MonthlySummary{
		{Month: "01", Year: "2023"},
		{
			Month: "02", Year: "2023",
			CategoriesExpenses: map[string]any{
				"total_income":     "-$3,000",
				"total_spending":   "1800",
				"total_spending_%": "60%",
				"food":             "600",
				"food_%":           "20%",
				"transportation":   "250",
				"entertainment":    "900",
				"rent":             "50",
			},
		},
	}

	got := extractSpendingInsights(summaries)
	if got.LatestMonthYear != "02/2023" {
		t.Errorf("latest_month_year = %q", got.LatestMonthYear)
	}
	if got.TotalIncome != 3000 {
		t.Errorf("total_income = %v, want 3000 (absolute value)", got.TotalIncome)
	}
	if got.TotalSpending != 1800 || got.SpendingRatio != 60 {
		t.Errorf("spending = %v ratio = %v", got.TotalSpending, got.SpendingRatio)
	}
	if got.SavingsPotential != 1200 {
		t.Errorf("savings_potential = %v, want 1200", got.SavingsPotential)
	}
	if len(got.TopCategories) != 3 {
		t.Fatalf("top_categories = %v, want 3 entries", got.TopCategories)
	}
	if got.TopCategories[0][0] != "entertainment" || got.TopCategories[1][0] != "food" || got.TopCategories[2][0] != "transportation" {
		t.Errorf("top_categories order = %v", got.TopCategories)
	}
}

func TestExtractSpendingInsights_Empty(t *testing.T) {
	got := extractSpendingInsights(nil)
	if got.TotalIncome != 0 || got.TotalSpending != 0 || len(got.TopCategories) != 0 {
		t.Errorf("empty insights = %+v", got)
	}
}

func TestBuildFinancialProfile(t *testing.T) {
	tests := []struct {
		name string
		user domain.UserInfo
		want financialProfile
	}{
		{
			name: "young excellent saver goal",
			user: domain.UserInfo{Age: 25, CreditScore: 780, FinancialGoals: "Build an emergency fund"},
			want: financialProfile{CreditTier: "excellent", LifeStage: "young_professional", SpendingStyle: "balanced", SavingsPriority: "high", RiskTolerance: "moderate"},
		},
		{
			name: "mid-career investor",
			user: domain.UserInfo{Age: 40, CreditScore: 710, FinancialGoals: "Grow my investment portfolio"},
			want: financialProfile{CreditTier: "good", LifeStage: "working_professional", SpendingStyle: "balanced", SavingsPriority: "medium", RiskTolerance: "aggressive"},
		},
		{
			name: "pre-retirement debt payoff",
			user: domain.UserInfo{Age: 55, CreditScore: 660, FinancialGoals: "Pay off my debt"},
			want: financialProfile{CreditTier: "fair", LifeStage: "pre_retirement", SpendingStyle: "balanced", SavingsPriority: "debt_focused", RiskTolerance: "moderate"},
		},
		{
			name: "retired low score",
			user: domain.UserInfo{Age: 70, CreditScore: 600},
			want: financialProfile{CreditTier: "poor", LifeStage: "retirement", SpendingStyle: "balanced", SavingsPriority: "medium", RiskTolerance: "moderate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFinancialProfile(tt.user, nil); got != tt.want {
				t.Errorf("profile = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildFinancialProfile_SpendingStyle(t *testing.T) {
	user := domain.UserInfo{Age: 35, CreditScore: 720}
	withRatio := func(ratio string) []domain.MonthlySummary {
		return []domain.MonthlySummary{{CategoriesExpenses: map[string]any{"total_spending_%": ratio}}}
	}

	if got := buildFinancialProfile(user, withRatio("85%")); got.SpendingStyle != "high_spender" {
		t.Errorf("85%% ratio: style = %q", got.SpendingStyle)
	}
	if got := buildFinancialProfile(user, withRatio("40")); got.SpendingStyle != "saver" {
		t.Errorf("40%% ratio: style = %q", got.SpendingStyle)
	}
	if got := buildFinancialProfile(user, withRatio("65")); got.SpendingStyle != "balanced" {
		t.Errorf("65%% ratio: style = %q", got.SpendingStyle)
	}
}

func TestParseEmailNotifications_PerFieldDefaults(t *testing.T) {
	// A valid response missing one key keeps the other four.
	raw := `{
		"spending_summary_email": "January in review, Ada!",
		"coupons_email": "20% off at Acme!",
		"loans_email": "5% APR just for you",
		"savings_email": "4.5% APY is calling"
	}`
	got, ok := parseEmailNotifications(raw)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if got.SpendingSummaryEmail != "January in review, Ada!" {
		t.Errorf("spending_summary_email = %q", got.SpendingSummaryEmail)
	}
	if got.CreditCardsEmail != "Amazing Credit Card Benefits!" {
		t.Errorf("credit_cards_email = %q, want default", got.CreditCardsEmail)
	}
	if got.SavingsEmail != "4.5% APY is calling" {
		t.Errorf("savings_email = %q", got.SavingsEmail)
	}
}

func TestParseEmailNotifications_NotJSON(t *testing.T) {
	got, ok := parseEmailNotifications("sorry, no can do")
	if ok {
		t.Fatal("expected failed parse")
	}
	if got != domain.DefaultEmailNotifications() {
		t.Errorf("got %+v, want full default set", got)
	}
}

func TestSynthesizeEmailSubjects_CallFailure(t *testing.T) {
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("model unreachable")
		},
	}

	recs := map[domain.ProductKind]domain.RecommendationSet{
		domain.KindCoupon: {IDs: []string{"CO1"}},
	}
	got := SynthesizeEmailSubjects(
		context.Background(), gen, newNopRecorder(), "run1",
		testUser(), recs, nil, testCatalog(), time.Second,
	)
	if got != domain.DefaultEmailNotifications() {
		t.Errorf("got %+v, want default set", got)
	}
}

func TestTopProductDetails(t *testing.T) {
	recs := map[domain.ProductKind]domain.RecommendationSet{
		domain.KindCoupon:     {IDs: []string{"CO2", "CO1"}},
		domain.KindLoan:       {IDs: []string{}},
		domain.KindCreditCard: {IDs: []string{"CC99"}},
		domain.KindSavings:    {IDs: []string{"HY1"}},
	}

	got := topProductDetails(recs, testCatalog())

	coupon, ok := got["top_coupon"].(map[string]string)
	if !ok {
		t.Fatal("top_coupon missing")
	}
	if coupon["key_feature"] != "10% off at Bolt" {
		t.Errorf("coupon key_feature = %q", coupon["key_feature"])
	}
	if _, ok := got["top_loan"]; ok {
		t.Error("empty category should be omitted")
	}
	if _, ok := got["top_credit_card"]; ok {
		t.Error("unresolvable identifier should be omitted")
	}
	savings, ok := got["top_savings"].(map[string]string)
	if !ok {
		t.Fatal("top_savings missing")
	}
	if savings["key_feature"] != "4.5% APY at Vault" {
		t.Errorf("savings key_feature = %q", savings["key_feature"])
	}
}
