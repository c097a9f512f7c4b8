package domain

import "fmt"

// ProductKind tags the four catalog variants. The values double as the
// category keys in the final report's recommendations block.
type ProductKind string

const (
	KindCoupon     ProductKind = "coupons"
	KindLoan       ProductKind = "loans"
	KindCreditCard ProductKind = "credit_cards"
	KindSavings    ProductKind = "high_yield_savings"
)

// Kinds lists the four catalog variants in the order the pipeline
// processes them.
var Kinds = []ProductKind{KindCoupon, KindLoan, KindCreditCard, KindSavings}

// idFieldByKind maps each variant to the identifier column its source table
// actually uses. The inconsistency is historical; Identifier hides it.
var idFieldByKind = map[ProductKind]string{
	KindCoupon:     "coupon_id",
	KindLoan:       "Loan_id",
	KindCreditCard: "Card_id",
	KindSavings:    "id",
}

// placeholderKeyByKind names the single-field placeholder emitted when a
// recommended identifier cannot be resolved against the catalog.
var placeholderKeyByKind = map[ProductKind]string{
	KindCoupon:     "Coupon_id",
	KindLoan:       "Loan_id",
	KindCreditCard: "Card_id",
	KindSavings:    "Savings_id",
}

// Product is one catalog entry: a variant tag plus the source table's
// columns. Read-only reference data.
type Product struct {
	Kind   ProductKind
	Fields map[string]string
}

// Identifier returns the entry's ID regardless of which column the variant's
// table uses for it.
func (p Product) Identifier() string {
	return p.Fields[idFieldByKind[p.Kind]]
}

// KeyFeature extracts the variant-specific selling point used by the email
// subject synthesizer.
func (p Product) KeyFeature() string {
	f := p.Fields
	switch p.Kind {
	case KindCoupon:
		return fmt.Sprintf("%s off at %s", f["discount_percentage"], f["merchant_name"])
	case KindLoan:
		return fmt.Sprintf("%s APR from %s", f["interest_rate_range"], f["bank_name"])
	case KindCreditCard:
		if f["welcome_bonus"] != "" {
			return f["welcome_bonus"]
		}
		return f["rewards_rate"]
	case KindSavings:
		apy := f["apy"]
		if apy == "" {
			apy = f["interest_rate"]
		}
		bank := f["bank_name"]
		if bank == "" {
			bank = f["institution"]
		}
		return fmt.Sprintf("%s APY at %s", apy, bank)
	}
	return ""
}

// PlaceholderKey returns the field name used for unresolved-identifier
// placeholders of this variant.
func (k ProductKind) PlaceholderKey() string {
	return placeholderKeyByKind[k]
}

// IDField returns the identifier column of the variant's source table.
func (k ProductKind) IDField() string {
	return idFieldByKind[k]
}

// Catalog holds all four product tables.
type Catalog map[ProductKind][]Product

// Find resolves an identifier within one variant's table. The second return
// is false when no entry matches.
func (c Catalog) Find(kind ProductKind, id string) (Product, bool) {
	for _, p := range c[kind] {
		if p.Identifier() == id {
			return p, true
		}
	}
	return Product{}, false
}
