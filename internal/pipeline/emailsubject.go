package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// spendingInsights condenses the most recent monthly summary into the few
// figures the subject-line prompt actually references.
type spendingInsights struct {
	LatestMonthYear  string   `json:"latest_month_year"`
	TotalSpending    float64  `json:"total_spending"`
	TotalIncome      float64  `json:"total_income"`
	SpendingRatio    float64  `json:"spending_ratio"`
	TopCategories    [][2]any `json:"top_categories"`
	SavingsPotential float64  `json:"savings_potential"`
}

// extractSpendingInsights derives the latest month's headline numbers: total
// spending and income, the spending-to-income ratio, the top three expense
// categories by amount descending, and the income-minus-spending savings
// potential. Dollar and percent formatted strings are tolerated.
func extractSpendingInsights(summaries []domain.MonthlySummary) spendingInsights {
	if len(summaries) == 0 {
		return spendingInsights{TopCategories: [][2]any{}}
	}

	latest := summaries[len(summaries)-1]
	categories := latest.CategoriesExpenses

	insights := spendingInsights{
		LatestMonthYear: fmt.Sprintf("%s/%s", latest.Month, latest.Year),
		TotalSpending:   safeFloat(categories["total_spending"]),
		TotalIncome:     math.Abs(safeFloat(categories["total_income"])),
		SpendingRatio:   safeFloat(categories["total_spending_%"]),
		TopCategories:   [][2]any{},
	}

	type catAmount struct {
		name   string
		amount float64
	}
	var amounts []catAmount
	for key, value := range categories {
		if strings.HasSuffix(key, "_%") || strings.HasPrefix(key, "total_") {
			continue
		}
		if v := safeFloat(value); v > 0 {
			amounts = append(amounts, catAmount{key, v})
		}
	}
	sort.SliceStable(amounts, func(i, j int) bool { return amounts[i].amount > amounts[j].amount })
	if len(amounts) > 3 {
		amounts = amounts[:3]
	}
	for _, c := range amounts {
		insights.TopCategories = append(insights.TopCategories, [2]any{c.name, c.amount})
	}

	insights.SavingsPotential = insights.TotalIncome - insights.TotalSpending
	return insights
}

// financialProfile is the coarse persona classification fed to the
// subject-line prompt.
type financialProfile struct {
	CreditTier      string `json:"credit_tier"`
	LifeStage       string `json:"life_stage"`
	SpendingStyle   string `json:"spending_style"`
	SavingsPriority string `json:"savings_priority"`
	RiskTolerance   string `json:"risk_tolerance"`
}

// buildFinancialProfile classifies the user along four coarse axes: credit
// tier from score bands, life stage from age bands, savings priority and
// risk tolerance from keywords in the stated goal, and spending style from
// the latest month's spending-to-income ratio.
func buildFinancialProfile(user domain.UserInfo, summaries []domain.MonthlySummary) financialProfile {
	profile := financialProfile{
		CreditTier:      "good",
		LifeStage:       "working_professional",
		SpendingStyle:   "balanced",
		SavingsPriority: "medium",
		RiskTolerance:   "moderate",
	}

	switch {
	case user.CreditScore >= 750:
		profile.CreditTier = "excellent"
	case user.CreditScore >= 700:
		profile.CreditTier = "good"
	case user.CreditScore >= 650:
		profile.CreditTier = "fair"
	default:
		profile.CreditTier = "poor"
	}

	switch {
	case user.Age < 30:
		profile.LifeStage = "young_professional"
	case user.Age < 45:
		profile.LifeStage = "working_professional"
	case user.Age < 65:
		profile.LifeStage = "pre_retirement"
	default:
		profile.LifeStage = "retirement"
	}

	goals := strings.ToLower(user.FinancialGoals)
	switch {
	case strings.Contains(goals, "emergency") || strings.Contains(goals, "save"):
		profile.SavingsPriority = "high"
	case strings.Contains(goals, "investment") || strings.Contains(goals, "retirement"):
		profile.RiskTolerance = "aggressive"
	case strings.Contains(goals, "debt") || strings.Contains(goals, "pay"):
		profile.SavingsPriority = "debt_focused"
	}

	if len(summaries) > 0 {
		latest := summaries[len(summaries)-1]
		ratio := safeFloat(latest.CategoriesExpenses["total_spending_%"])
		switch {
		case ratio > 80:
			profile.SpendingStyle = "high_spender"
		case ratio < 50:
			profile.SpendingStyle = "saver"
		default:
			profile.SpendingStyle = "balanced"
		}
	}

	return profile
}

// topProductDetails resolves each category's top recommendation to its full
// catalog record plus the extracted key feature. Categories with empty
// result lists or unresolvable identifiers are omitted.
func topProductDetails(recs map[domain.ProductKind]domain.RecommendationSet, catalog domain.Catalog) map[string]any {
	labels := map[domain.ProductKind]string{
		domain.KindCoupon:     "top_coupon",
		domain.KindLoan:       "top_loan",
		domain.KindCreditCard: "top_credit_card",
		domain.KindSavings:    "top_savings",
	}

	details := make(map[string]any)
	for kind, set := range recs {
		if len(set.IDs) == 0 {
			continue
		}
		product, ok := catalog.Find(kind, set.IDs[0])
		if !ok {
			continue
		}
		entry := make(map[string]string, len(product.Fields)+1)
		for k, v := range product.Fields {
			entry[k] = v
		}
		entry["key_feature"] = product.KeyFeature()
		details[labels[kind]] = entry
	}
	return details
}

// parseEmailNotifications decodes the synthesis response with per-field
// defaulting: a valid response missing one of the five keys keeps the other
// four and defaults only the gap.
func parseEmailNotifications(raw string) (domain.EmailNotifications, bool) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.DefaultEmailNotifications(), false
	}

	out := domain.DefaultEmailNotifications()
	if s := stringValue(obj, "spending_summary_email"); s != "" {
		out.SpendingSummaryEmail = s
	}
	if s := stringValue(obj, "coupons_email"); s != "" {
		out.CouponsEmail = s
	}
	if s := stringValue(obj, "loans_email"); s != "" {
		out.LoansEmail = s
	}
	if s := stringValue(obj, "credit_cards_email"); s != "" {
		out.CreditCardsEmail = s
	}
	if s := stringValue(obj, "savings_email"); s != "" {
		out.SavingsEmail = s
	}
	return out, true
}

// SynthesizeEmailSubjects makes the final model call: given the top pick per
// category, all monthly summaries, and the derived insight/profile contexts,
// it produces the five subject lines. Any failure along the way degrades to
// the default subject set.
func SynthesizeEmailSubjects(
	ctx context.Context,
	gen TextGenerator,
	rec RunRecorder,
	runID string,
	user domain.UserInfo,
	recs map[domain.ProductKind]domain.RecommendationSet,
	summaries []domain.MonthlySummary,
	catalog domain.Catalog,
	timeout time.Duration,
) domain.EmailNotifications {
	log := logger.ForUser(ctx, user.ID)

	topRecs := make(map[string]string)
	for kind, set := range recs {
		if len(set.IDs) > 0 {
			topRecs[string(kind)] = set.IDs[0]
		}
	}

	contextData := map[string]any{
		"user_info":              user.Raw,
		"user_financial_profile": buildFinancialProfile(user, summaries),
		"spending_insights":      extractSpendingInsights(summaries),
		"top_recommendations":    topRecs,
		"monthly_summaries":      summaries,
		"product_details":        topProductDetails(recs, catalog),
		"personalization_context": map[string]any{
			"first_name":      user.FirstName(),
			"credit_score":    user.CreditScore,
			"financial_goals": user.FinancialGoals,
			"age":             user.Age,
		},
	}

	userPrompt, err := buildEmailContext(contextData)
	if err != nil {
		log.Warn().Err(err).Msg("building email context failed, using default subjects")
		return domain.DefaultEmailNotifications()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := gen.Generate(callCtx, emailSubjectSystemPrompt(), userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("email subject call failed, using default subjects")
		return domain.DefaultEmailNotifications()
	}
	rec.RecordModelOutput(ctx, runID, "email_subjects", raw)

	out, ok := parseEmailNotifications(raw)
	if !ok {
		log.Warn().Msg("email subject response was not valid JSON, using default subjects")
	}
	return out
}
