package audit

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/finance-recommender/internal/logger"
)

const (
	runsTable    = "pipeline_runs"
	outputsTable = "model_outputs"
)

// Recorder writes an audit trail of per-user pipeline runs and raw model
// outputs to BigQuery. Audit failures are logged and swallowed; they never
// fail the pipeline itself.
type Recorder struct {
	projectID string
	datasetID string
}

// NewRecorder creates a Recorder writing to the given project and dataset.
func NewRecorder(projectID, datasetID string) *Recorder {
	return &Recorder{projectID: projectID, datasetID: datasetID}
}

func (r *Recorder) runQuery(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	client, err := bigquery.NewClient(ctx, r.projectID)
	if err != nil {
		return fmt.Errorf("bigquery client: %w", err)
	}
	defer client.Close()

	q := client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// StartRun inserts a RUNNING row for this user and returns its ID. On
// insert failure the generated ID is still returned so later updates have
// something to reference.
func (r *Recorder) StartRun(ctx context.Context, userID string) string {
	runID := uuid.NewString()

	query := fmt.Sprintf(`
		INSERT %s.%s (run_id, user_id, started_ts, status)
		VALUES (@run_id, @user_id, @started_ts, @status)
	`, r.datasetID, runsTable)

	err := r.runQuery(ctx, query, []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "user_id", Value: userID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: "RUNNING"},
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).
			Msg("StartRun: insert failed")
	}
	return runID
}

// RecordModelOutput stores one raw model response for debugging.
func (r *Recorder) RecordModelOutput(ctx context.Context, runID, stage, raw string) {
	query := fmt.Sprintf(`
		INSERT %s.%s (output_id, run_id, stage, raw_text, created_ts)
		VALUES (@output_id, @run_id, @stage, @raw_text, @created_ts)
	`, r.datasetID, outputsTable)

	err := r.runQuery(ctx, query, []bigquery.QueryParameter{
		{Name: "output_id", Value: uuid.NewString()},
		{Name: "run_id", Value: runID},
		{Name: "stage", Value: stage},
		{Name: "raw_text", Value: raw},
		{Name: "created_ts", Value: time.Now()},
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).Str("stage", stage).
			Msg("RecordModelOutput: insert failed")
	}
}

// MarkSucceeded finalizes the run row with status SUCCESS.
func (r *Recorder) MarkSucceeded(ctx context.Context, runID string) {
	query := fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts
		WHERE run_id = @run_id
	`, r.datasetID, runsTable)

	err := r.runQuery(ctx, query, []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).
			Msg("MarkSucceeded: update failed")
	}
}

// MarkFailed finalizes the run row with status FAILED and the error message.
func (r *Recorder) MarkFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	query := fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts, error_message = @error_message
		WHERE run_id = @run_id
	`, r.datasetID, runsTable)

	err := r.runQuery(ctx, query, []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).
			Msg("MarkFailed: update failed")
	}
}

// NoopRecorder satisfies the pipeline's recorder boundary when auditing is
// not configured.
type NoopRecorder struct{}

func (NoopRecorder) StartRun(ctx context.Context, userID string) string { return uuid.NewString() }

func (NoopRecorder) RecordModelOutput(ctx context.Context, runID, stage, raw string) {}

func (NoopRecorder) MarkSucceeded(ctx context.Context, runID string) {}

func (NoopRecorder) MarkFailed(ctx context.Context, runID string, runErr error) {}
