package pipeline

import (
	"context"
	"sync"
)

// mockGenerator is a mock implementation of TextGenerator for testing.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt)
	}
	return "{}", nil
}

// nopRecorder is a no-op RunRecorder for tests that don't assert on audit
// behavior.
type nopRecorder struct {
	mu      sync.Mutex
	outputs map[string]string
}

func newNopRecorder() *nopRecorder {
	return &nopRecorder{outputs: make(map[string]string)}
}

func (r *nopRecorder) StartRun(ctx context.Context, userID string) string { return "test-run" }

func (r *nopRecorder) RecordModelOutput(ctx context.Context, runID, stage, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[stage] = raw
}

func (r *nopRecorder) MarkSucceeded(ctx context.Context, runID string) {}

func (r *nopRecorder) MarkFailed(ctx context.Context, runID string, runErr error) {}
