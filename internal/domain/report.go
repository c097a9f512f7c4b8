package domain

// RecommendationSet is one category's result: up to three product
// identifiers, highest confidence first, plus a marketing subject line.
type RecommendationSet struct {
	IDs          []string
	EmailSubject string
}

// MonthlySummary is the model's structured summary of one month bucket.
// CategoriesExpenses values are kept as the model returned them (usually
// dollar-amount strings with matching "_%" percentage keys) so the report
// preserves the original shapes.
type MonthlySummary struct {
	Month              string         `json:"month"`
	Year               string         `json:"year"`
	AISummary          string         `json:"ai_summary"`
	Tags               []string       `json:"tags,omitempty"`
	CategoriesExpenses map[string]any `json:"categories_expenses"`
}

// EmailNotifications holds the five synthesized subject lines.
type EmailNotifications struct {
	SpendingSummaryEmail string `json:"spending_summary_email"`
	CouponsEmail         string `json:"coupons_email"`
	LoansEmail           string `json:"loans_email"`
	CreditCardsEmail     string `json:"credit_cards_email"`
	SavingsEmail         string `json:"savings_email"`
}

// ReportRecommendations is the recommendations block of the final report.
// Each value is either a []string of identifiers or, when a catalog lookup
// was supplied to the assembler, a list of resolved catalog records with
// placeholder objects for unmatched identifiers.
type ReportRecommendations struct {
	Coupons          any `json:"coupons"`
	Loans            any `json:"loans"`
	CreditCards      any `json:"credit_cards"`
	HighYieldSavings any `json:"high_yield_savings"`
}

// FinalReport is the per-user output document. Created once per run and
// never mutated afterwards; each run overwrites the prior snapshot.
type FinalReport struct {
	UserInfo             map[string]string     `json:"userinfo"`
	Tags                 []string              `json:"tags"`
	Recommendations      ReportRecommendations `json:"recommendations"`
	MonthlySpendAnalysis []MonthlySummary      `json:"monthly_spend_analysis_data"`
	EmailNotifications   *EmailNotifications   `json:"email_notifications,omitempty"`
}
