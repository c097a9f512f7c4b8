package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// DecodeTable decodes a whole CSV table into one record per row, keyed by
// the header line. Rows must match the header width; the csv reader rejects
// ragged tables outright, which is what we want for reference data.
func DecodeTable(data []byte) ([]map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decodeTable: reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("decodeTable: empty table")
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			rec[col] = strings.TrimSpace(row[i])
		}
		records = append(records, rec)
	}

	return records, nil
}

// transactionRenames maps the short column names some feed exports use onto
// the canonical ones. Applied before field selection so both shapes decode
// identically.
var transactionRenames = map[string]string{
	"Amount":   "Txn Amount",
	"Date":     "Txn Date",
	"Category": "Txn Category",
	"Mode":     "Txn Mode",
	"Merchant": "Merchant Name",
	"User Id":  "User_id",
	"User ID":  "User_id",
}

// applyRenames rewrites known alternate column names in place. Canonical
// names already present win over renamed ones.
func applyRenames(rec map[string]string) {
	for from, to := range transactionRenames {
		v, ok := rec[from]
		if !ok {
			continue
		}
		if _, exists := rec[to]; !exists {
			rec[to] = v
		}
		delete(rec, from)
	}
}
