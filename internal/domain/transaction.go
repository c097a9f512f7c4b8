package domain

// Transaction is one raw transaction record as fetched from the source feed.
// The date is kept as the feed's string; parsing happens in the
// preprocessor, which drops records whose dates cannot be parsed.
// Immutable once fetched.
type Transaction struct {
	ID       string  // "Txn ID"
	UserID   string  // "User_id"
	Amount   float64 // "Txn Amount"; INCOME_WAGES rows are negative, everything else non-negative
	Date     string  // "Txn Date", unparsed
	Category string  // "Txn Category"
	Mode     string  // "Txn Mode"
	Merchant string  // "Merchant Name"
}

// SignValid reports whether the amount sign follows the feed convention:
// wage income negative, all other categories non-negative.
func (t Transaction) SignValid() bool {
	if t.Category == CategoryIncomeWages {
		return t.Amount < 0
	}
	return t.Amount >= 0
}

// CountSignViolations returns how many transactions break the sign
// convention. Loaders log the count; they do not drop the records.
func CountSignViolations(txns []Transaction) int {
	n := 0
	for _, t := range txns {
		if !t.SignValid() {
			n++
		}
	}
	return n
}

// NormalizedTransaction is the preprocessor's output: the fields worth
// sending to the model, with the date reduced to an ISO string and the
// derived month bucket attached.
type NormalizedTransaction struct {
	Amount      float64 `json:"Txn Amount"`
	Date        string  `json:"Txn Date"` // YYYY-MM-DD
	Category    string  `json:"Txn Category"`
	Mode        string  `json:"Txn Mode"`
	Merchant    string  `json:"Merchant Name"`
	MonthBucket string  `json:"month_year"` // YYYY-MM
}
