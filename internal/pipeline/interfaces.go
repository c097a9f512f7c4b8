package pipeline

import (
	"context"

	"github.com/dvloznov/finance-recommender/internal/domain"
)

// TextGenerator is the text-generation service boundary. A request carries a
// fixed system instruction plus a per-call user instruction; the response is
// raw text that the caller must itself decode against an advisory schema.
// This interface enables mocking and testing of the model-facing stages.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RunRecorder is the audit-trail boundary. Implementations must never fail
// the pipeline: audit errors are their own to log and swallow.
type RunRecorder interface {
	// StartRun inserts a RUNNING row for this user and returns its ID.
	StartRun(ctx context.Context, userID string) string

	// RecordModelOutput stores one raw model response for debugging.
	RecordModelOutput(ctx context.Context, runID, stage, raw string)

	// MarkSucceeded finalizes the run row with status SUCCESS.
	MarkSucceeded(ctx context.Context, runID string)

	// MarkFailed finalizes the run row with status FAILED.
	MarkFailed(ctx context.Context, runID string, runErr error)
}

// ReportStore persists one assembled report per user, keyed by user ID.
// Each write overwrites the prior snapshot.
type ReportStore interface {
	PutReport(ctx context.Context, userID string, report *domain.FinalReport) error
}
