package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottereview/ottereview-ai/internal/models"
)

func TestReviewerRecommendRanksByScore(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "alice", Similarity: 0.9, TotalReviews: 12,
			Expertise: map[string]int{"auth": 5, "api": 3}},
		{Reviewer: "bob", Similarity: 0.5, TotalReviews: 2,
			Expertise: map[string]int{"ui": 2}},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "Good fit."})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "alice", recs[0].Username)
	assert.Equal(t, "bob", recs[1].Username)
	assert.Greater(t, recs[0].Score, recs[1].Score)
	assert.Equal(t, 1, recs[0].Rationale.SimilarPRsReviewed)
	assert.Equal(t, 12, recs[0].Rationale.TotalReviews)
	assert.Equal(t, "Good fit.", recs[0].Rationale.Summary)
}

func TestReviewerRecommendExcludesAuthors(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "dev-a", Similarity: 0.95, TotalReviews: 20},
		{Reviewer: "carol", Similarity: 0.6, TotalReviews: 4},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "ok"})

	// testPreparation's author and sole committer is dev-a.
	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "carol", recs[0].Username)
}

func TestReviewerRecommendDropsWeakSimilarity(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "weak", Similarity: 0.2, TotalReviews: 50},
		{Reviewer: "strong", Similarity: 0.4, TotalReviews: 1},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "strong", recs[0].Username)
}

func TestReviewerRecommendTieBreaks(t *testing.T) {
	// Identical evidence: ordering falls back to the username.
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "zoe", Similarity: 0.6, TotalReviews: 5},
		{Reviewer: "adam", Similarity: 0.6, TotalReviews: 5},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "adam", recs[0].Username)
	assert.Equal(t, "zoe", recs[1].Username)
}

func TestReviewerRecommendLimit(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "a", Similarity: 0.9, TotalReviews: 9},
		{Reviewer: "b", Similarity: 0.8, TotalReviews: 8},
		{Reviewer: "c", Similarity: 0.7, TotalReviews: 7},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 2)

	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestReviewerRecommendSummaryFallback(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "carol", Similarity: 0.7, TotalReviews: 6,
			Expertise: map[string]int{"auth": 4}},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{err: errUpstream})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	// The recommendation survives a dead model with a templated summary.
	assert.Contains(t, recs[0].Rationale.Summary, "carol")
	assert.Contains(t, recs[0].Rationale.Summary, "auth")
}

func TestReviewerRecommendEmptyHistory(t *testing.T) {
	svc := NewReviewerService(&fakeEmbedder{}, &fakeStore{}, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReviewerRecommendStoreFailureDegrades(t *testing.T) {
	svc := NewReviewerService(&fakeEmbedder{}, &fakeStore{queryErr: errUpstream}, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	// A dead pattern store reads as "no history", never a hard failure.
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReviewerRecommendEmbedFailureDegrades(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "carol", Similarity: 0.7, TotalReviews: 6},
	}}
	svc := NewReviewerService(&fakeEmbedder{err: errUpstream}, store, &fakeLLM{response: "ok"})

	recs, err := svc.Recommend(context.Background(), testPreparation(), 3)

	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReviewerRecommendFillsEmail(t *testing.T) {
	store := &fakeStore{reviewerPatterns: []models.PatternRecord{
		{Reviewer: "carol", Similarity: 0.7, TotalReviews: 6},
	}}
	svc := NewReviewerService(&fakeEmbedder{}, store, &fakeLLM{response: "ok"})

	prep := testPreparation()
	prep.Reviewers = []models.User{{ID: 7, Username: "carol", Email: "carol@otter.dev"}}

	recs, err := svc.Recommend(context.Background(), prep, 3)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "carol@otter.dev", recs[0].Email)
}

func TestReviewerScorerWeights(t *testing.T) {
	e := &reviewerEvidence{
		similaritySum: 1.6,
		similarPRs:    2, // avg 0.8
		expertise:     map[string]int{"auth": 3},
		totalReviews:  5,
	}

	score := ReviewerScorer{}.Score(e, []string{"auth", "api"})

	// 0.4*0.8 + 0.3*(1/2) + 0.3*(5/10)
	assert.InDelta(t, 0.62, score, 1e-9)
}

func TestReviewerScorerSaturatesExperience(t *testing.T) {
	e := &reviewerEvidence{similaritySum: 0.5, similarPRs: 1, totalReviews: 100,
		expertise: map[string]int{}}

	score := ReviewerScorer{}.Score(e, nil)

	// 0.4*0.5 + 0.3*0 + 0.3*1.0: the experience term caps at 1.
	assert.InDelta(t, 0.5, score, 1e-9)
}
