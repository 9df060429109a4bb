package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottereview/ottereview-ai/internal/models"
)

func testPRDetail() *models.PRDetail {
	return &models.PRDetail{
		ID:             7,
		GithubPrNumber: 128,
		Title:          "Add refresh-token rotation",
		State:          "closed",
		Merged:         true,
		Base:           "main",
		Head:           "feature/rotation",
		Author:         models.User{Username: "dev-a"},
		Repo:           models.Repo{ID: 42, FullName: "otter/backend"},
		Files: []models.ChangedFile{
			{Filename: "src/auth/TokenService.java", Status: "modified", Additions: 90, Deletions: 15},
			{Filename: "src/user/UserRepository.java", Status: "modified", Additions: 20, Deletions: 5},
		},
		Commits: []models.Commit{{SHA: "abc", Message: "rotate tokens", AuthorName: "dev-a"}},
		Reviews: []models.Review{
			{Reviewer: "carol", State: "APPROVED", Body: "LGTM, watch the expiry edge case."},
			{Reviewer: "dan", State: "COMMENTED"}, // no text, carries no signal
		},
	}
}

func TestIngestStoresPatterns(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(&fakeEmbedder{}, store)

	result, err := svc.Ingest(context.Background(), testPRDetail())

	require.NoError(t, err)
	// One PR pattern per functional group (auth + database here).
	assert.Equal(t, 2, result.PRPatterns)
	assert.Len(t, store.upsertedPR, 2)
	// Only carol's review has text.
	assert.Equal(t, 1, result.ReviewPatterns)
	require.Len(t, store.upsertedReview, 1)
	assert.Equal(t, "review:otter/backend:128:carol", store.upsertedReview[0].ID)
	// Both reviewers get an expertise record.
	assert.Equal(t, 2, result.ReviewerPatterns)
}

func TestIngestPRPatternContent(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(&fakeEmbedder{vec: []float32{1, 2}}, store)

	_, err := svc.Ingest(context.Background(), testPRDetail())
	require.NoError(t, err)

	var authRec models.PatternRecord
	for _, rec := range store.upsertedPR {
		if rec.Category == "auth" {
			authRec = rec
		}
	}
	require.NotEmpty(t, authRec.ID)
	assert.Equal(t, "pr:otter/backend:128:auth", authRec.ID)
	assert.Equal(t, "otter/backend", authRec.Repository)
	assert.Equal(t, []string{"carol", "dan"}, authRec.Reviewers)
	assert.Equal(t, []float32{1, 2}, authRec.Embedding)
	assert.Contains(t, authRec.Document, "Add refresh-token rotation")
}

func TestIngestReviewerExpertiseAccumulates(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(&fakeEmbedder{}, store)

	_, err := svc.Ingest(context.Background(), testPRDetail())
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), testPRDetail())
	require.NoError(t, err)

	rec, found, err := store.FindReviewerPattern(context.Background(), "reviewer:otter/backend:carol")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, rec.TotalReviews)
	assert.Equal(t, 2, rec.Expertise["auth"])
	assert.Equal(t, 2, rec.Expertise["database"])
	assert.Contains(t, rec.Document, "carol")
}

func TestIngestNoFiles(t *testing.T) {
	svc := NewIngestService(&fakeEmbedder{}, &fakeStore{})

	_, err := svc.Ingest(context.Background(), &models.PRDetail{})
	assert.ErrorIs(t, err, ErrNoChangedFiles)

	_, err = svc.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoChangedFiles)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	svc := NewIngestService(&fakeEmbedder{err: errUpstream}, &fakeStore{})

	_, err := svc.Ingest(context.Background(), testPRDetail())
	assert.ErrorIs(t, err, errUpstream)
}

func TestReviewerNamesPrefersSubmittedReviews(t *testing.T) {
	pr := testPRDetail()
	pr.Reviewers = []models.User{{Username: "requested-only"}}

	assert.Equal(t, []string{"carol", "dan"}, reviewerNames(pr))

	pr.Reviews = nil
	assert.Equal(t, []string{"requested-only"}, reviewerNames(pr))
}

func TestDominantCategory(t *testing.T) {
	got := dominantCategory([]models.FunctionalGroup{
		{Category: "auth", Volume: 50},
		{Category: "database", Volume: 120},
	})
	assert.Equal(t, "database", got)
}
