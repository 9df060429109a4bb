package service

import (
	"context"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// ---- External collaborator contracts ---------------------------------------
//
// The pipelines depend on these interfaces only. Concrete implementations
// (Vertex AI, MongoDB Atlas, Redis) are constructed once in cmd/server and
// injected, which keeps every pipeline testable with in-memory fakes.

// EmbeddingClient converts text into a fixed-dimension vector.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerativeClient runs one prompt against the language model and returns the
// raw response text. Calls may be issued concurrently; a failure affects only
// the call that made it.
type GenerativeClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PatternStore persists and retrieves embedding+metadata records describing
// historical PRs, reviews, and reviewer expertise. Query results arrive in
// descending similarity order; an empty result set is a normal condition, not
// an error.
type PatternStore interface {
	UpsertPRPattern(ctx context.Context, rec models.PatternRecord) error
	UpsertReviewPattern(ctx context.Context, rec models.PatternRecord) error
	UpsertReviewerPattern(ctx context.Context, rec models.PatternRecord) error
	FindReviewerPattern(ctx context.Context, id string) (models.PatternRecord, bool, error)
	QueryPRPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error)
	QueryReviewerPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error)
}

// PRSource supplies the canonical PR payload staged by the backend.
type PRSource interface {
	Preparation(ctx context.Context, repoID int64, source, target string) (*models.PreparationResult, error)
}
