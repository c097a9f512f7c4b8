package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-recommender/internal/dataset"
	"github.com/dvloznov/finance-recommender/internal/domain"
)

// fakeStorage serves canned CSV tables keyed by object name.
type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) DownloadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, object, filePath string) error {
	return nil
}

// fakeReportStore remembers what was persisted.
type fakeReportStore struct {
	reports map[string]*domain.FinalReport
	err     error
}

func (f *fakeReportStore) PutReport(ctx context.Context, userID string, report *domain.FinalReport) error {
	if f.err != nil {
		return f.err
	}
	if f.reports == nil {
		f.reports = make(map[string]*domain.FinalReport)
	}
	f.reports[userID] = report
	return nil
}

func pipelineFixtures() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{
		"notifi-dump/transaction_data_final.csv": []byte(
			"Txn ID,User_id,Amount,Date,Category,Mode,Merchant\n" +
				"T1,u1,-3000,2023-01-01,INCOME_WAGES,ACH,Employer\n" +
				"T2,u1,45.20,2023-01-05,FOOD_AND_DRINK_GROCERIES,Card,Acme\n" +
				"T3,u1,12.00,2023-02-03,ENTERTAINMENT_MUSIC_AND_AUDIO,Card,Tunes\n" +
				"T4,u2,99.00,2023-01-09,GENERAL_MERCHANDISE_SUPERSTORES,Card,Mega\n"),
		"notifi-dump/product_coupons_data.csv": []byte(
			"coupon_id,discount_percentage,merchant_name\nCO1,20%,Acme\nCO2,10%,Bolt\n"),
		"notifi-dump/loan_data.csv": []byte(
			"Loan_id,interest_rate_range,bank_name\nLN1,5-7%,First\n"),
		"notifi-dump/credit_card_data.csv": []byte(
			"Card_id,rewards_rate\nCC1,2% cashback\nCC2,1.5% cashback\n"),
		"notifi-dump/high_yield_savings_data.csv": []byte(
			"id,apy,bank_name\nHY1,4.5%,Vault\n"),
		"notifi-dump/user_card.csv": []byte(
			"User_id,Card_id\nu1,CC2\n"),
	}}
}

func newTestRunner(t *testing.T, gen TextGenerator) (*Runner, *fakeReportStore) {
	t.Helper()

	storage := pipelineFixtures()
	loader := dataset.NewLoader(storage, "notifi-transaction-dataset", "notifi-dump/")
	catalog, err := loader.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("loading fixture catalog: %v", err)
	}

	store := &fakeReportStore{}
	return &Runner{
		Generator:  gen,
		Loader:     loader,
		Catalog:    catalog,
		Recorder:   newNopRecorder(),
		Store:      store,
		OutputDir:  t.TempDir(),
		LLMTimeout: time.Second,
	}, store
}

func TestRunner_ProcessUser(t *testing.T) {
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			switch {
			case strings.Contains(systemPrompt, "coupon recommendation"):
				return `{"recommendations": ["CO2", "CO1"], "email_subject": "Coupon time!"}`, nil
			case strings.Contains(systemPrompt, "financial summary"):
				return `{"month": "01", "year": "2023", "ai_summary": "ok", "tags": ["Saver", "Foodie"], "categories_expenses": {}}`, nil
			case strings.Contains(systemPrompt, "email marketing"):
				return `{"spending_summary_email": "Your January recap!", "coupons_email": "20% off!", "loans_email": "Rates!", "credit_cards_email": "Points!", "savings_email": "APY!"}`, nil
			default:
				return `{"recommendations": [], "email_subject": ""}`, nil
			}
		},
	}

	runner, store := newTestRunner(t, gen)
	user := domain.UserInfo{ID: "u1", Name: "Ada Lovelace", Raw: map[string]string{"User_id": "u1"}}

	report, err := runner.ProcessUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ProcessUser failed: %v", err)
	}

	coupons, _ := report.Recommendations.Coupons.([]string)
	if len(coupons) != 2 || coupons[0] != "CO2" {
		t.Errorf("coupons = %v", report.Recommendations.Coupons)
	}
	// Two month buckets in the fixture, so two summaries.
	if len(report.MonthlySpendAnalysis) != 2 {
		t.Errorf("summaries = %d, want 2", len(report.MonthlySpendAnalysis))
	}
	if report.EmailNotifications.SpendingSummaryEmail != "Your January recap!" {
		t.Errorf("spending summary subject = %q", report.EmailNotifications.SpendingSummaryEmail)
	}

	if store.reports["u1"] == nil {
		t.Error("report was not persisted to the store")
	}
	if _, err := os.Stat(filepath.Join(runner.OutputDir, "output_u1.json")); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunner_ProcessUser_ModelDownDegradesToDefaults(t *testing.T) {
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("model unreachable")
		},
	}

	runner, _ := newTestRunner(t, gen)
	user := domain.UserInfo{ID: "u1", Name: "Ada", Raw: map[string]string{"User_id": "u1"}}

	report, err := runner.ProcessUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ProcessUser should degrade, not fail: %v", err)
	}

	coupons, _ := report.Recommendations.Coupons.([]string)
	if len(coupons) != 3 || coupons[0] != "CO1" {
		t.Errorf("coupons = %v, want default triple", coupons)
	}
	if *report.EmailNotifications != domain.DefaultEmailNotifications() {
		t.Errorf("email notifications = %+v, want defaults", report.EmailNotifications)
	}
	// Degraded summaries still appear, one per month bucket.
	if len(report.MonthlySpendAnalysis) != 2 {
		t.Errorf("summaries = %d, want 2", len(report.MonthlySpendAnalysis))
	}
}

func TestRunner_ProcessUser_NoTransactions(t *testing.T) {
	calls := 0
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			calls++
			return "{}", nil
		},
	}

	runner, _ := newTestRunner(t, gen)
	user := domain.UserInfo{ID: "u3", Name: "Nobody", Raw: map[string]string{"User_id": "u3"}}

	report, err := runner.ProcessUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ProcessUser failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("model called %d times for a user with no transactions", calls)
	}

	coupons, _ := report.Recommendations.Coupons.([]string)
	if len(coupons) != 3 || coupons[0] != "CO1" {
		t.Errorf("coupons = %v, want default triple", coupons)
	}
	if len(report.MonthlySpendAnalysis) != 0 {
		t.Errorf("summaries = %d, want 0", len(report.MonthlySpendAnalysis))
	}
}

func TestRunner_ProcessAll_ContinuesPastFailures(t *testing.T) {
	gen := &mockGenerator{}
	runner, _ := newTestRunner(t, gen)
	runner.Store = &fakeReportStore{err: errors.New("store down")}

	users := []domain.UserInfo{
		{ID: "u1", Raw: map[string]string{"User_id": "u1"}},
		{ID: "u2", Raw: map[string]string{"User_id": "u2"}},
	}
	if completed := runner.ProcessAll(context.Background(), users); completed != 0 {
		t.Errorf("completed = %d, want 0 with a failing store", completed)
	}

	runner.Store = nil
	if completed := runner.ProcessAll(context.Background(), users); completed != 2 {
		t.Errorf("completed = %d, want 2 without a store", completed)
	}
}
