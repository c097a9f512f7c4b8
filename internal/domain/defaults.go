package domain

// CategoryDefault is the degraded-mode fallback for one recommendation
// category, substituted whenever the model's response cannot be parsed.
type CategoryDefault struct {
	IDs          []string
	EmailSubject string
}

// Defaults collects the per-category fallbacks in one place instead of
// scattering them across call sites.
var Defaults = map[ProductKind]CategoryDefault{
	KindCoupon:     {IDs: []string{"CO1", "CO2", "CO3"}, EmailSubject: "Great Savings Await You!"},
	KindLoan:       {IDs: []string{"LN1", "LN2", "LN3"}, EmailSubject: "Perfect Loan Options For You!"},
	KindCreditCard: {IDs: []string{"CC1", "CC2", "CC3"}, EmailSubject: "Amazing Credit Card Benefits!"},
	KindSavings:    {IDs: []string{"HY1", "HY2", "HY3"}, EmailSubject: "Grow Your Money Faster!"},
}

// DefaultSpendingSummarySubject is the fallback for the monthly-summary
// email subject.
const DefaultSpendingSummarySubject = "Your Monthly Financial Insights Are Ready!"

// DefaultSet returns a fresh RecommendationSet holding the category's
// fallback values. The ID slice is copied so callers can't corrupt the table.
func DefaultSet(kind ProductKind) RecommendationSet {
	d := Defaults[kind]
	ids := make([]string, len(d.IDs))
	copy(ids, d.IDs)
	return RecommendationSet{IDs: ids, EmailSubject: d.EmailSubject}
}

// DefaultEmailNotifications returns the full fallback subject set.
func DefaultEmailNotifications() EmailNotifications {
	return EmailNotifications{
		SpendingSummaryEmail: DefaultSpendingSummarySubject,
		CouponsEmail:         Defaults[KindCoupon].EmailSubject,
		LoansEmail:           Defaults[KindLoan].EmailSubject,
		CreditCardsEmail:     Defaults[KindCreditCard].EmailSubject,
		SavingsEmail:         Defaults[KindSavings].EmailSubject,
	}
}

// SuggestedTags is the behavioral-tag vocabulary offered to the model for
// monthly summaries. It is a suggestion, not a closed set: model-invented
// tags are accepted as-is.
var SuggestedTags = []string{
	"Foodie", "Saver", "Shopaholic", "Traveler",
	"Entertainer", "Homebody", "Investor", "Minimalist",
}
