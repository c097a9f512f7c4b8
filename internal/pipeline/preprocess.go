package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// dateLayouts are tried in order when parsing transaction dates. The feed
// mixes ISO dates with two-digit and four-digit day-first formats.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
}

func parseTxnDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Preprocess normalizes one user's raw transactions for model consumption:
// parses dates, derives the year-month bucket, and keeps only the fields
// worth sending downstream. Records whose dates cannot be parsed are dropped
// with a logged count, never an error. The result is sorted by date so
// monthly grouping is chronological.
func Preprocess(ctx context.Context, userID string, txns []domain.Transaction) []domain.NormalizedTransaction {
	log := logger.ForUser(ctx, userID)

	out := make([]domain.NormalizedTransaction, 0, len(txns))
	dropped := 0
	for _, t := range txns {
		parsed, ok := parseTxnDate(t.Date)
		if !ok {
			dropped++
			continue
		}
		out = append(out, domain.NormalizedTransaction{
			Amount:      t.Amount,
			Date:        parsed.Format("2006-01-02"),
			Category:    t.Category,
			Mode:        t.Mode,
			Merchant:    t.Merchant,
			MonthBucket: parsed.Format("2006-01"),
		})
	}

	if dropped > 0 {
		log.Warn().
			Int("dropped", dropped).
			Int("kept", len(out)).
			Msg("dropped transactions with unparseable dates")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MonthBuckets returns the distinct month buckets present in the normalized
// set, in chronological order.
func MonthBuckets(txns []domain.NormalizedTransaction) []string {
	seen := make(map[string]bool)
	var months []string
	for _, t := range txns {
		if !seen[t.MonthBucket] {
			seen[t.MonthBucket] = true
			months = append(months, t.MonthBucket)
		}
	}
	sort.Strings(months)
	return months
}

// ByMonth returns the normalized transactions belonging to one month bucket.
func ByMonth(txns []domain.NormalizedTransaction, month string) []domain.NormalizedTransaction {
	var out []domain.NormalizedTransaction
	for _, t := range txns {
		if t.MonthBucket == month {
			out = append(out, t)
		}
	}
	return out
}
