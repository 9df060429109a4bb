package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// ---- in-memory fakes shared by the service tests ----------------------------

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeLLM answers with a fixed response, or via fn when set. Calls are
// recorded so tests can assert on prompts and call counts.
type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	fn       func(system, user string) (string, error)
	calls    []string
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, user)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(system, user)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStore struct {
	prPatterns       []models.PatternRecord
	reviewerPatterns []models.PatternRecord
	queryErr         error

	upsertedPR       []models.PatternRecord
	upsertedReview   []models.PatternRecord
	upsertedReviewer []models.PatternRecord
	existing         map[string]models.PatternRecord
}

func (f *fakeStore) UpsertPRPattern(ctx context.Context, rec models.PatternRecord) error {
	f.upsertedPR = append(f.upsertedPR, rec)
	return nil
}

func (f *fakeStore) UpsertReviewPattern(ctx context.Context, rec models.PatternRecord) error {
	f.upsertedReview = append(f.upsertedReview, rec)
	return nil
}

func (f *fakeStore) UpsertReviewerPattern(ctx context.Context, rec models.PatternRecord) error {
	f.upsertedReviewer = append(f.upsertedReviewer, rec)
	if f.existing == nil {
		f.existing = make(map[string]models.PatternRecord)
	}
	f.existing[rec.ID] = rec
	return nil
}

func (f *fakeStore) FindReviewerPattern(ctx context.Context, id string) (models.PatternRecord, bool, error) {
	rec, ok := f.existing[id]
	return rec, ok, nil
}

func (f *fakeStore) QueryPRPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.prPatterns, nil
}

func (f *fakeStore) QueryReviewerPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.reviewerPatterns, nil
}

var errUpstream = errors.New("upstream unavailable")
