package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

// WriteReportFile writes the report as an indented JSON document under dir,
// named output_<user_id>.json. Each run overwrites the prior snapshot.
func WriteReportFile(dir, userID string, report *domain.FinalReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("writeReportFile: create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("writeReportFile: marshal report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("output_%s.json", userID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writeReportFile: write %s: %w", path, err)
	}
	return path, nil
}
