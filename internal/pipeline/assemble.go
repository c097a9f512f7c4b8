package pipeline

import (
	"sort"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

// DominantTags computes the two most frequent behavioral tags across all
// monthly summaries. Frequency descending; ties break by first-encountered
// order. If fewer than two distinct tags exist, the most recent month's tags
// backfill the remaining slots, skipping duplicates. The result holds 0, 1,
// or 2 tags and is never nil.
func DominantTags(summaries []domain.MonthlySummary) []string {
	counts := make(map[string]int)
	var order []string
	for _, s := range summaries {
		for _, tag := range s.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	tags := []string{}
	for _, tag := range order {
		tags = append(tags, tag)
		if len(tags) == 2 {
			return tags
		}
	}

	if len(summaries) > 0 {
		included := make(map[string]bool, len(tags))
		for _, t := range tags {
			included[t] = true
		}
		for _, tag := range summaries[len(summaries)-1].Tags {
			if included[tag] {
				continue
			}
			tags = append(tags, tag)
			included[tag] = true
			if len(tags) == 2 {
				break
			}
		}
	}

	return tags
}

// ResolveRecommendations maps each recommended identifier to its full
// catalog record. Unmatched identifiers degrade to a single-field
// placeholder object keyed by the variant's placeholder name, preserving
// list length and position.
func ResolveRecommendations(kind domain.ProductKind, ids []string, catalog domain.Catalog) []map[string]string {
	resolved := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		if product, ok := catalog.Find(kind, id); ok {
			resolved = append(resolved, product.Fields)
			continue
		}
		resolved = append(resolved, map[string]string{kind.PlaceholderKey(): id})
	}
	return resolved
}

// BuildReport assembles the final per-user report. When resolveProducts is
// true the recommendation lists carry full catalog records (with
// placeholders for unknown identifiers); otherwise they stay bare
// identifier lists. The function is deterministic: identical inputs produce
// an identical structure.
func BuildReport(
	user domain.UserInfo,
	recs map[domain.ProductKind]domain.RecommendationSet,
	summaries []domain.MonthlySummary,
	emails *domain.EmailNotifications,
	catalog domain.Catalog,
	resolveProducts bool,
) *domain.FinalReport {
	block := func(kind domain.ProductKind) any {
		ids := recs[kind].IDs
		if resolveProducts {
			return ResolveRecommendations(kind, ids, catalog)
		}
		return ids
	}

	if summaries == nil {
		summaries = []domain.MonthlySummary{}
	}

	return &domain.FinalReport{
		UserInfo: user.Raw,
		Tags:     DominantTags(summaries),
		Recommendations: domain.ReportRecommendations{
			Coupons:          block(domain.KindCoupon),
			Loans:            block(domain.KindLoan),
			CreditCards:      block(domain.KindCreditCard),
			HighYieldSavings: block(domain.KindSavings),
		},
		MonthlySpendAnalysis: summaries,
		EmailNotifications:   emails,
	}
}
