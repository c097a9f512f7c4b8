package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-recommender/internal/dataset"
	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/logger"
)

// Runner holds the per-process dependencies shared by every user's pipeline
// execution. No state crosses user boundaries.
type Runner struct {
	Generator TextGenerator
	Loader    *dataset.Loader
	Catalog   domain.Catalog
	Recorder  RunRecorder
	Store     ReportStore // optional; nil skips key-value persistence

	OutputDir       string
	LLMTimeout      time.Duration
	ResolveProducts bool
}

// PipelineStep represents a single step in the per-user pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps for one
// user. Created fresh per user.
type PipelineState struct {
	User  domain.UserInfo
	RunID string

	RawTransactions []domain.Transaction
	Transactions    []domain.NormalizedTransaction
	OwnedCardIDs    []string

	Recommendations map[domain.ProductKind]domain.RecommendationSet
	Summaries       []domain.MonthlySummary
	Emails          domain.EmailNotifications

	Report     *domain.FinalReport
	OutputPath string
}

// Step 1: FetchTransactionsStep loads the user's raw transactions and the
// IDs of credit cards they already own.
type FetchTransactionsStep struct{ r *Runner }

func (s *FetchTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	txns, err := s.r.Loader.LoadTransactions(ctx, state.User.ID)
	if err != nil {
		return err
	}
	state.RawTransactions = txns

	owned, err := s.r.Loader.LoadOwnedCards(ctx, state.User.ID)
	if err != nil {
		return err
	}
	state.OwnedCardIDs = owned
	return nil
}

// Step 2: PreprocessStep normalizes the raw transactions for model calls.
type PreprocessStep struct{}

func (s *PreprocessStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions = Preprocess(ctx, state.User.ID, state.RawTransactions)
	return nil
}

// Step 3: RecommendStep runs the four category requesters concurrently.
// With no usable transactions there is nothing to personalize on, so the
// model calls are skipped and every category gets its default set.
type RecommendStep struct{ r *Runner }

func (s *RecommendStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Transactions) == 0 {
		log := logger.ForUser(ctx, state.User.ID)
		log.Warn().Msg("no usable transactions, using default recommendations")
		state.Recommendations = make(map[domain.ProductKind]domain.RecommendationSet, len(domain.Kinds))
		for _, kind := range domain.Kinds {
			state.Recommendations[kind] = domain.DefaultSet(kind)
		}
		return nil
	}

	state.Recommendations = RequestAllRecommendations(
		ctx, s.r.Generator, s.r.Recorder, state.RunID,
		state.User, state.Transactions, s.r.Catalog, state.OwnedCardIDs, s.r.LLMTimeout,
	)
	return nil
}

// Step 4: SummarizeStep produces one summary per month bucket.
type SummarizeStep struct{ r *Runner }

func (s *SummarizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Summaries = SummarizeMonths(
		ctx, s.r.Generator, s.r.Recorder, state.RunID,
		state.User, state.Transactions, s.r.LLMTimeout,
	)
	return nil
}

// Step 5: SynthesizeEmailsStep produces the five subject lines.
type SynthesizeEmailsStep struct{ r *Runner }

func (s *SynthesizeEmailsStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Transactions) == 0 {
		state.Emails = domain.DefaultEmailNotifications()
		return nil
	}

	state.Emails = SynthesizeEmailSubjects(
		ctx, s.r.Generator, s.r.Recorder, state.RunID,
		state.User, state.Recommendations, state.Summaries, s.r.Catalog, s.r.LLMTimeout,
	)
	return nil
}

// Step 6: AssembleStep merges everything into the final report.
type AssembleStep struct{ r *Runner }

func (s *AssembleStep) Execute(ctx context.Context, state *PipelineState) error {
	emails := state.Emails
	state.Report = BuildReport(
		state.User, state.Recommendations, state.Summaries,
		&emails, s.r.Catalog, s.r.ResolveProducts,
	)
	return nil
}

// Step 7: WriteFileStep writes the per-user JSON document.
type WriteFileStep struct{ r *Runner }

func (s *WriteFileStep) Execute(ctx context.Context, state *PipelineState) error {
	path, err := WriteReportFile(s.r.OutputDir, state.User.ID, state.Report)
	if err != nil {
		return err
	}
	state.OutputPath = path
	log := logger.ForUser(ctx, state.User.ID)
	log.Info().Str("path", path).Msg("report written")
	return nil
}

// Step 8: StoreReportStep uploads the report to the key-value store, when
// one is configured.
type StoreReportStep struct{ r *Runner }

func (s *StoreReportStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.r.Store == nil {
		return nil
	}
	return s.r.Store.PutReport(ctx, state.User.ID, state.Report)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// newUserPipeline creates the standard 8-step per-user pipeline.
func (r *Runner) newUserPipeline() *Pipeline {
	return NewPipeline(
		&FetchTransactionsStep{r},
		&PreprocessStep{},
		&RecommendStep{r},
		&SummarizeStep{r},
		&SynthesizeEmailsStep{r},
		&AssembleStep{r},
		&WriteFileStep{r},
		&StoreReportStep{r},
	)
}

// ProcessUser runs the full pipeline for one user. Model-facing steps
// degrade to defaults internally; only data-source and persistence failures
// surface as errors. The audit run row is finalized either way.
func (r *Runner) ProcessUser(ctx context.Context, user domain.UserInfo) (*domain.FinalReport, error) {
	runID := r.Recorder.StartRun(ctx, user.ID)

	state := &PipelineState{User: user, RunID: runID}
	if err := r.newUserPipeline().Execute(ctx, state); err != nil {
		r.Recorder.MarkFailed(ctx, runID, err)
		return nil, fmt.Errorf("processUser %s: %w", user.ID, err)
	}

	r.Recorder.MarkSucceeded(ctx, runID)
	return state.Report, nil
}

// ProcessAll runs the pipeline for every user sequentially. Per-user
// failures are logged and skipped; the returned count is how many users
// completed.
func (r *Runner) ProcessAll(ctx context.Context, users []domain.UserInfo) int {
	log := logger.FromContext(ctx)

	completed := 0
	for _, user := range users {
		if _, err := r.ProcessUser(ctx, user); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("user pipeline failed")
			continue
		}
		completed++
	}
	return completed
}
