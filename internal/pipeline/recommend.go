package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// parseRecommendationSet decodes one category's model response. Each key
// defaults independently: a response carrying only "recommendations" still
// uses its list, with the subject falling back to the category default.
// The identifier list is truncated to the accepted maximum.
func parseRecommendationSet(raw string, kind domain.ProductKind) (domain.RecommendationSet, bool) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.DefaultSet(kind), false
	}

	set := domain.DefaultSet(kind)
	if ids := stringList(obj, "recommendations"); ids != nil {
		if len(ids) > maxRecommendations {
			ids = ids[:maxRecommendations]
		}
		set.IDs = ids
	}
	if subject := stringValue(obj, "email_subject"); subject != "" {
		set.EmailSubject = subject
	}
	return set, true
}

// requestRecommendation runs one category's model call end to end: build the
// instruction, call the service under the per-call timeout, parse or default.
// Transport and decode failures both land on the category's default set; the
// caller never sees an error from this path.
func requestRecommendation(
	ctx context.Context,
	gen TextGenerator,
	rec RunRecorder,
	runID string,
	user domain.UserInfo,
	txns []domain.NormalizedTransaction,
	products []domain.Product,
	kind domain.ProductKind,
	timeout time.Duration,
) domain.RecommendationSet {
	log := logger.ForUser(ctx, user.ID).With().Str("category", string(kind)).Logger()

	userPrompt, err := buildRecommendationContext(user, txns, products)
	if err != nil {
		log.Warn().Err(err).Msg("building recommendation context failed, using defaults")
		return domain.DefaultSet(kind)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := gen.Generate(callCtx, recommendationSystemPrompt(kind), userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("recommendation call failed, using defaults")
		return domain.DefaultSet(kind)
	}
	rec.RecordModelOutput(ctx, runID, string(kind), raw)

	set, ok := parseRecommendationSet(raw, kind)
	if !ok {
		log.Warn().Msg("recommendation response was not valid JSON, using defaults")
	}
	return set
}

// RequestAllRecommendations dispatches the four category requesters
// concurrently and joins the results. The calls are mutually independent, so
// each gets its own timeout and its own parse-or-default boundary; one
// category failing or hanging never blocks another. For the credit-card
// category, catalog entries the user already owns are excluded before the
// call.
func RequestAllRecommendations(
	ctx context.Context,
	gen TextGenerator,
	rec RunRecorder,
	runID string,
	user domain.UserInfo,
	txns []domain.NormalizedTransaction,
	catalog domain.Catalog,
	ownedCardIDs []string,
	timeout time.Duration,
) map[domain.ProductKind]domain.RecommendationSet {
	results := make(map[domain.ProductKind]domain.RecommendationSet, len(domain.Kinds))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, kind := range domain.Kinds {
		products := catalog[kind]
		if kind == domain.KindCreditCard && len(ownedCardIDs) > 0 {
			products = excludeOwnedCards(products, ownedCardIDs)
		}

		wg.Add(1)
		go func(kind domain.ProductKind, products []domain.Product) {
			defer wg.Done()
			set := requestRecommendation(ctx, gen, rec, runID, user, txns, products, kind, timeout)
			mu.Lock()
			results[kind] = set
			mu.Unlock()
		}(kind, products)
	}
	wg.Wait()

	return results
}

func excludeOwnedCards(cards []domain.Product, ownedIDs []string) []domain.Product {
	owned := make(map[string]bool, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = true
	}
	out := make([]domain.Product, 0, len(cards))
	for _, c := range cards {
		if !owned[c.Identifier()] {
			out = append(out, c)
		}
	}
	return out
}
