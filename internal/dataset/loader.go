package dataset

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/gcsstore"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// Table keys under the configured prefix.
const (
	usersTable        = "user.csv"
	transactionsTable = "transaction_data_final.csv"
	couponsTable      = "product_coupons_data.csv"
	loansTable        = "loan_data.csv"
	creditCardsTable  = "credit_card_data.csv"
	savingsTable      = "high_yield_savings_data.csv"
	userCardsTable    = "user_card.csv"
)

// Loader fetches the CSV tables the pipeline reads. All reads are whole-table.
type Loader struct {
	storage gcsstore.StorageService
	bucket  string
	prefix  string
}

// NewLoader creates a Loader over the given bucket and key prefix.
func NewLoader(storage gcsstore.StorageService, bucket, prefix string) *Loader {
	return &Loader{storage: storage, bucket: bucket, prefix: prefix}
}

func (l *Loader) fetchTable(ctx context.Context, name string) ([]map[string]string, error) {
	data, err := l.storage.DownloadObject(ctx, l.bucket, l.prefix+name)
	if err != nil {
		return nil, fmt.Errorf("fetchTable %s: %w", name, err)
	}
	return DecodeTable(data)
}

// LoadUsers fetches the user table. The returned order follows the table,
// which drives the per-user processing order.
func (l *Loader) LoadUsers(ctx context.Context) ([]domain.UserInfo, error) {
	records, err := l.fetchTable(ctx, usersTable)
	if err != nil {
		return nil, fmt.Errorf("loadUsers: %w", err)
	}

	users := make([]domain.UserInfo, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		u := domain.UserInfoFromRecord(rec)
		if u.ID == "" || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		users = append(users, u)
	}

	return users, nil
}

// LoadTransactions fetches the transaction table and returns the records
// belonging to userID, with the rename map applied. Sign-convention
// violations are logged, not dropped.
func (l *Loader) LoadTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	records, err := l.fetchTable(ctx, transactionsTable)
	if err != nil {
		return nil, fmt.Errorf("loadTransactions: %w", err)
	}

	var txns []domain.Transaction
	unknownCategories := 0
	for _, rec := range records {
		applyRenames(rec)
		if rec["User_id"] != userID {
			continue
		}

		amount, err := strconv.ParseFloat(rec["Txn Amount"], 64)
		if err != nil {
			log.Warn().Str("txn_id", rec["Txn ID"]).Str("raw", rec["Txn Amount"]).
				Msg("Skipping transaction with unparseable amount")
			continue
		}

		t := domain.Transaction{
			ID:       rec["Txn ID"],
			UserID:   userID,
			Amount:   amount,
			Date:     rec["Txn Date"],
			Category: rec["Txn Category"],
			Mode:     rec["Txn Mode"],
			Merchant: rec["Merchant Name"],
		}
		if !domain.KnownCategory(t.Category) {
			unknownCategories++
		}
		txns = append(txns, t)
	}

	if unknownCategories > 0 {
		log.Warn().Int("count", unknownCategories).Str("user_id", userID).
			Msg("Transactions with categories outside the known vocabulary")
	}
	if violations := domain.CountSignViolations(txns); violations > 0 {
		log.Warn().Int("count", violations).Str("user_id", userID).
			Msg("Transactions violating the amount sign convention")
	}
	if len(txns) == 0 {
		log.Warn().Str("user_id", userID).Msg("No transactions found for user")
	}

	return txns, nil
}

// LoadCatalog fetches all four product tables.
func (l *Loader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	tables := map[domain.ProductKind]string{
		domain.KindCoupon:     couponsTable,
		domain.KindLoan:       loansTable,
		domain.KindCreditCard: creditCardsTable,
		domain.KindSavings:    savingsTable,
	}

	catalog := make(domain.Catalog, len(tables))
	for kind, table := range tables {
		records, err := l.fetchTable(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("loadCatalog %s: %w", kind, err)
		}
		products := make([]domain.Product, 0, len(records))
		for _, rec := range records {
			products = append(products, domain.Product{Kind: kind, Fields: rec})
		}
		catalog[kind] = products
	}

	return catalog, nil
}

// LoadOwnedCards returns the card IDs the user already holds, for exclusion
// from the credit-card recommendation payload. A missing table is treated as
// no owned cards.
func (l *Loader) LoadOwnedCards(ctx context.Context, userID string) ([]string, error) {
	records, err := l.fetchTable(ctx, userCardsTable)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Msg("Owned-cards table unavailable; recommending from full card catalog")
		return nil, nil
	}

	var ids []string
	for _, rec := range records {
		applyRenames(rec)
		if rec["User_id"] == userID && rec["Card_id"] != "" {
			ids = append(ids, rec["Card_id"])
		}
	}
	return ids, nil
}
