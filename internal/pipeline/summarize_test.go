package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

func TestParseMonthlySummary(t *testing.T) {
	t.Run("full response", func(t *testing.T) {
		raw := `{
			"month": "03",
			"year": "2023",
			"ai_summary": "You spent a lot on dining out.",
			"tags": ["Foodie", "Entertainer"],
			"categories_expenses": {"total_income": "-3000", "food": "450", "food_%": "15%"}
		}`
		got, ok := parseMonthlySummary(raw, "2023-03")
		if !ok {
			t.Fatal("expected successful parse")
		}
		if got.Month != "03" || got.Year != "2023" {
			t.Errorf("month/year = %s/%s", got.Month, got.Year)
		}
		if !reflect.DeepEqual(got.Tags, []string{"Foodie", "Entertainer"}) {
			t.Errorf("tags = %v", got.Tags)
		}
		if got.CategoriesExpenses["food"] != "450" {
			t.Errorf("categories_expenses = %v", got.CategoriesExpenses)
		}
	})

	t.Run("missing month falls back to bucket split", func(t *testing.T) {
		got, ok := parseMonthlySummary(`{"ai_summary": "quiet month"}`, "2023-07")
		if !ok {
			t.Fatal("expected successful parse")
		}
		if got.Month != "07" || got.Year != "2023" {
			t.Errorf("month/year = %s/%s, want 07/2023", got.Month, got.Year)
		}
	})

	t.Run("not json degrades with raw text", func(t *testing.T) {
		got, ok := parseMonthlySummary("Spending was fine this month.", "2023-05")
		if ok {
			t.Fatal("expected degraded parse")
		}
		if got.Month != "05" || got.Year != "2023" {
			t.Errorf("month/year = %s/%s", got.Month, got.Year)
		}
		if got.AISummary != "Spending was fine this month." {
			t.Errorf("ai_summary = %q, want raw text verbatim", got.AISummary)
		}
		if len(got.CategoriesExpenses) != 0 {
			t.Errorf("categories_expenses = %v, want empty", got.CategoriesExpenses)
		}
		if got.Tags != nil {
			t.Errorf("tags = %v, want none", got.Tags)
		}
	})

	t.Run("tags deduped and capped at two", func(t *testing.T) {
		raw := `{"ai_summary": "x", "tags": ["Saver", "Saver", "Foodie", "Traveler"]}`
		got, _ := parseMonthlySummary(raw, "2023-01")
		if !reflect.DeepEqual(got.Tags, []string{"Saver", "Foodie"}) {
			t.Errorf("tags = %v, want [Saver Foodie]", got.Tags)
		}
	})
}

func TestSummarizeMonths(t *testing.T) {
	txns := []domain.NormalizedTransaction{
		{Amount: 100, Date: "2023-01-05", MonthBucket: "2023-01"},
		{Amount: 200, Date: "2023-02-05", MonthBucket: "2023-02"},
		{Amount: 300, Date: "2023-03-05", MonthBucket: "2023-03"},
	}

	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			switch {
			case strings.Contains(userPrompt, "2023-01"):
				return `{"month": "01", "year": "2023", "ai_summary": "ok", "tags": ["Saver", "Homebody"], "categories_expenses": {}}`, nil
			case strings.Contains(userPrompt, "2023-02"):
				return "", errors.New("timeout")
			default:
				return "plain text answer", nil
			}
		},
	}

	got := SummarizeMonths(context.Background(), gen, newNopRecorder(), "run1", testUser(), txns, time.Second)
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries (degraded ones kept), got %d", len(got))
	}
	if got[0].Month != "01" || got[0].AISummary != "ok" {
		t.Errorf("first summary = %+v", got[0])
	}
	// Failed call still yields a summary for its month.
	if got[1].Month != "02" || got[1].Year != "2023" || got[1].AISummary != "" {
		t.Errorf("second summary = %+v", got[1])
	}
	// Unparseable text wrapped verbatim.
	if got[2].AISummary != "plain text answer" {
		t.Errorf("third summary = %+v", got[2])
	}
}
