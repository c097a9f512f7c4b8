package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// degradedSummary wraps an unparseable model response in a minimal summary
// object: the month bucket supplies month and year, the raw text becomes the
// narrative verbatim, and the breakdown stays empty. Degraded summaries are
// still appended to the output list, never dropped.
func degradedSummary(month, raw string) domain.MonthlySummary {
	year, mon := splitMonthBucket(month)
	return domain.MonthlySummary{
		Month:              mon,
		Year:               year,
		AISummary:          raw,
		CategoriesExpenses: map[string]any{},
	}
}

func splitMonthBucket(month string) (year, mon string) {
	if idx := strings.Index(month, "-"); idx != -1 {
		return month[:idx], month[idx+1:]
	}
	return month, ""
}

// parseMonthlySummary decodes the model's summary response. Tags are deduped
// and capped; missing month or year fields fall back to the bucket's own
// split so grouping survives a sloppy response.
func parseMonthlySummary(raw, month string) (domain.MonthlySummary, bool) {
	obj, err := decodeObject(raw)
	if err != nil {
		return degradedSummary(month, raw), false
	}

	year, mon := splitMonthBucket(month)
	summary := domain.MonthlySummary{
		Month:              mon,
		Year:               year,
		AISummary:          stringValue(obj, "ai_summary"),
		CategoriesExpenses: map[string]any{},
	}
	if m := stringValue(obj, "month"); m != "" {
		summary.Month = m
	}
	if y := stringValue(obj, "year"); y != "" {
		summary.Year = y
	}
	if breakdown, ok := obj["categories_expenses"].(map[string]any); ok {
		summary.CategoriesExpenses = breakdown
	}

	seen := make(map[string]bool)
	for _, tag := range stringList(obj, "tags") {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		summary.Tags = append(summary.Tags, tag)
		if len(summary.Tags) == maxTagsPerMonth {
			break
		}
	}

	return summary, true
}

// SummarizeMonths calls the model once per month bucket, in chronological
// order, and returns one summary per bucket. Each call has its own timeout
// and parse-or-default boundary.
func SummarizeMonths(
	ctx context.Context,
	gen TextGenerator,
	rec RunRecorder,
	runID string,
	user domain.UserInfo,
	txns []domain.NormalizedTransaction,
	timeout time.Duration,
) []domain.MonthlySummary {
	log := logger.ForUser(ctx, user.ID)

	months := MonthBuckets(txns)
	summaries := make([]domain.MonthlySummary, 0, len(months))
	for _, month := range months {
		monthTxns := ByMonth(txns, month)

		userPrompt, err := buildSummaryContext(user, monthTxns)
		if err != nil {
			log.Warn().Err(err).Str("month", month).Msg("building summary context failed, using degraded summary")
			summaries = append(summaries, degradedSummary(month, ""))
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		raw, err := gen.Generate(callCtx, summarySystemPrompt(), userPrompt)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("month", month).Msg("summary call failed, using degraded summary")
			summaries = append(summaries, degradedSummary(month, ""))
			continue
		}
		rec.RecordModelOutput(ctx, runID, "summary_"+month, raw)

		summary, ok := parseMonthlySummary(raw, month)
		if !ok {
			log.Warn().Str("month", month).Msg("summary response was not valid JSON, keeping raw text")
		}
		summaries = append(summaries, summary)
	}

	return summaries
}
