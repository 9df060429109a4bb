package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/rules"
)

func testPreparation() *models.PreparationResult {
	return &models.PreparationResult{
		Source: "feature/token-refresh",
		Target: "main",
		Title:  "Refresh JWT tokens before expiry",
		Files: []models.ChangedFile{
			{Filename: "src/auth/TokenService.java", Status: "modified", Additions: 80, Deletions: 20},
			{Filename: "src/api/AuthController.java", Status: "modified", Additions: 25, Deletions: 5},
		},
		Commits:    []models.Commit{{SHA: "abc123", Message: "refresh tokens", AuthorName: "dev-a"}},
		Author:     &models.User{Username: "dev-a"},
		Repository: &models.Repo{ID: 42, FullName: "otter/backend"},
	}
}

func TestRecommendHappyPath(t *testing.T) {
	store := &fakeStore{prPatterns: []models.PatternRecord{
		{Category: "auth", Similarity: 0.8, Scale: models.ScaleMedium},
	}}
	llm := &fakeLLM{response: `{"priority": [
		{"title": "Audit token expiry handling", "priority_level": "CRITICAL",
		 "reason": "Expiry logic changed.", "related_files": ["src/auth/TokenService.java"]},
		{"title": "Check controller contract", "priority_level": "HIGH",
		 "reason": "Endpoint behaviour changed.", "related_files": ["src/api/AuthController.java"]},
		{"title": "General pass", "priority_level": "MEDIUM", "reason": "Everything else."}
	]}`}

	svc := NewPriorityService(&fakeEmbedder{}, store, llm, rules.Default())
	result, err := svc.Recommend(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "Audit token expiry handling", result.Candidates[0].Title)
	assert.Equal(t, models.PriorityCritical, result.Candidates[0].PriorityLevel)
	assert.NotEmpty(t, result.Groups)

	// The retrieved history must have reached the prompt.
	require.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.calls[0], "Functional area: auth")
}

func TestRecommendNoFiles(t *testing.T) {
	svc := NewPriorityService(&fakeEmbedder{}, &fakeStore{}, &fakeLLM{}, rules.Default())

	_, err := svc.Recommend(context.Background(), &models.PreparationResult{})
	assert.ErrorIs(t, err, ErrNoChangedFiles)

	_, err = svc.Recommend(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoChangedFiles)
}

func TestRecommendLLMFailureFallsBackToRules(t *testing.T) {
	svc := NewPriorityService(&fakeEmbedder{}, &fakeStore{}, &fakeLLM{err: errUpstream}, rules.Default())

	result, err := svc.Recommend(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	// The auth file still surfaces a CRITICAL candidate without any model.
	assert.Equal(t, models.PriorityCritical, result.Candidates[0].PriorityLevel)
}

func TestRecommendEmbeddingFailureStillAnswers(t *testing.T) {
	llm := &fakeLLM{response: "not json"}
	svc := NewPriorityService(&fakeEmbedder{err: errUpstream}, &fakeStore{}, llm, rules.Default())

	result, err := svc.Recommend(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	// With no history the prompt carries the sentinel instead of patterns.
	require.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.calls[0], NoHistorySentinel)
}

func TestRecommendStoreFailureStillAnswers(t *testing.T) {
	store := &fakeStore{queryErr: errUpstream}
	llm := &fakeLLM{response: `[{"title":"A","priority_level":"HIGH","reason":"r"}]`}
	svc := NewPriorityService(&fakeEmbedder{}, store, llm, rules.Default())

	result, err := svc.Recommend(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "A", result.Candidates[0].Title)
}

func TestRecommendPartialModelOutputIsCompleted(t *testing.T) {
	llm := &fakeLLM{response: `[{"title":"Only one","priority_level":"HIGH","reason":"r"}]`}
	svc := NewPriorityService(&fakeEmbedder{}, &fakeStore{}, llm, rules.Default())

	result, err := svc.Recommend(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "Only one", result.Candidates[0].Title)
	for _, c := range result.Candidates {
		assert.True(t, c.SchemaValid())
	}
}
