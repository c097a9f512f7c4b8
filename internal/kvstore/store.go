package kvstore

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

func init() {
	// The record's Data field holds decoded JSON; gob needs the concrete
	// types it will meet there.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(decimal.Decimal{})
}

// ReportRecord is the persisted row: one per user, keyed by user ID.
// Exactly one of JSON and Data is populated, depending on the store's
// encoding mode.
type ReportRecord struct {
	UserID    string `badgerhold:"key"`
	JSON      string
	Data      map[string]any
	UpdatedAt time.Time
}

// Store persists final reports in an embedded key-value database. Encoding
// is chosen at open time: a JSON string blob per user, or a nested attribute
// structure with every numeric value converted to an arbitrary-precision
// decimal.
type Store struct {
	store      *badgerhold.Store
	jsonString bool
}

// Open opens (or creates) the database at path.
func Open(path string, jsonString bool) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore open: create directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("kvstore open: %w", err)
	}
	return &Store{store: store, jsonString: jsonString}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// PutReport writes one user's report, overwriting any prior snapshot.
func (s *Store) PutReport(ctx context.Context, userID string, report *domain.FinalReport) error {
	if userID == "" {
		return fmt.Errorf("putReport: user ID is required")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("putReport %s: marshal report: %w", userID, err)
	}

	rec := ReportRecord{UserID: userID, UpdatedAt: time.Now()}
	if s.jsonString {
		rec.JSON = string(data)
	} else {
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("putReport %s: decode report: %w", userID, err)
		}
		rec.Data = ConvertFloats(decoded).(map[string]any)
	}

	if err := s.store.Upsert(userID, &rec); err != nil {
		return fmt.Errorf("putReport %s: upsert: %w", userID, err)
	}
	return nil
}

// GetReport fetches one user's persisted report. The second return is false
// when no snapshot exists.
func (s *Store) GetReport(ctx context.Context, userID string) (*domain.FinalReport, bool, error) {
	var rec ReportRecord
	if err := s.store.Get(userID, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getReport %s: %w", userID, err)
	}

	data := []byte(rec.JSON)
	if !s.jsonString {
		var err error
		data, err = json.Marshal(rec.Data)
		if err != nil {
			return nil, false, fmt.Errorf("getReport %s: re-encode record: %w", userID, err)
		}
	}

	var report domain.FinalReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("getReport %s: decode report: %w", userID, err)
	}
	return &report, true, nil
}

// ListUserIDs returns the IDs of every user with a persisted report.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	var recs []ReportRecord
	if err := s.store.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("listUserIDs: %w", err)
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.UserID)
	}
	return ids, nil
}
