package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// Scoring weights for reviewer ranking. Similarity of past reviewed PRs
// carries the most weight; expertise overlap and raw review count split the
// rest.
const (
	weightSimilarity = 0.4
	weightExpertise  = 0.3
	weightExperience = 0.3

	// similarityFloor drops pattern hits too weak to count as evidence.
	similarityFloor = 0.3

	// experienceSaturation is the review count at which the experience
	// component maxes out.
	experienceSaturation = 10

	reviewerTopK     = 20
	defaultReviewers = 3
)

// reviewerEvidence is the per-reviewer aggregate built from pattern hits.
type reviewerEvidence struct {
	username      string
	email         string
	similaritySum float64
	similarPRs    int
	expertise     map[string]int
	totalReviews  int
}

func (e *reviewerEvidence) avgSimilarity() float64 {
	if e.similarPRs == 0 {
		return 0
	}
	return e.similaritySum / float64(e.similarPRs)
}

// ReviewerScorer turns aggregated evidence into a single comparable score.
type ReviewerScorer struct{}

// Score combines average similarity, expertise overlap with the PR's
// functional categories, and saturating review experience.
func (ReviewerScorer) Score(e *reviewerEvidence, prCategories []string) float64 {
	expertise := 0.0
	if len(prCategories) > 0 {
		matched := 0
		for _, cat := range prCategories {
			if e.expertise[cat] > 0 {
				matched++
			}
		}
		expertise = float64(matched) / float64(len(prCategories))
	}

	experience := math.Min(float64(e.totalReviews)/experienceSaturation, 1.0)

	return weightSimilarity*e.avgSimilarity() +
		weightExpertise*expertise +
		weightExperience*experience
}

// ReviewerService recommends reviewers for a PR from historical review
// patterns. The ranking itself is pure arithmetic; the model is only asked
// for a human-readable summary of each recommendation and a model failure
// degrades to a templated summary.
type ReviewerService struct {
	classifier *Classifier
	embedder   EmbeddingClient
	store      PatternStore
	llm        GenerativeClient
	scorer     ReviewerScorer
}

func NewReviewerService(embedder EmbeddingClient, store PatternStore, llm GenerativeClient) *ReviewerService {
	return &ReviewerService{
		classifier: NewClassifier(ByKeyword),
		embedder:   embedder,
		store:      store,
		llm:        llm,
	}
}

// Recommend returns up to limit reviewer recommendations in descending score
// order. PR authors are never recommended. An empty result is normal for a
// repository with no review history.
func (s *ReviewerService) Recommend(ctx context.Context, prep *models.PreparationResult, limit int) ([]models.ReviewerRecommendation, error) {
	if prep == nil || len(prep.Files) == 0 {
		return nil, ErrNoChangedFiles
	}
	if limit <= 0 {
		limit = defaultReviewers
	}

	groups := s.classifier.Classify(prep.Files)
	categories := make([]string, len(groups))
	for i, g := range groups {
		categories[i] = g.Category
	}

	patterns := s.similarReviewerPatterns(ctx, prep, groups)

	authors := make(map[string]struct{})
	for _, name := range prep.AuthorNames() {
		authors[name] = struct{}{}
	}

	evidence := aggregateEvidence(patterns, authors)
	attachEmails(evidence, prep.Reviewers)
	ranked := s.rank(evidence, categories)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	recs := make([]models.ReviewerRecommendation, 0, len(ranked))
	for _, e := range ranked {
		recs = append(recs, s.recommendation(ctx, e, categories))
	}
	return recs, nil
}

// similarReviewerPatterns embeds the PR and queries reviewer history. Any
// failure on this path is logged and treated as "no history": the caller gets
// an empty recommendation list, never an upstream error.
func (s *ReviewerService) similarReviewerPatterns(ctx context.Context, prep *models.PreparationResult, groups []models.FunctionalGroup) []models.PatternRecord {
	vec, err := s.embedder.Embed(ctx, QueryText(prep, groups))
	if err != nil {
		log.Printf("reviewer: embedding failed for %s: %v", prep.RepositoryName(), err)
		return nil
	}

	patterns, err := s.store.QueryReviewerPatterns(ctx, vec, prep.RepositoryName(), reviewerTopK)
	if err != nil {
		log.Printf("reviewer: pattern query failed for %s: %v", prep.RepositoryName(), err)
		return nil
	}
	return patterns
}

// attachEmails fills in contact emails for ranked reviewers from the PR's
// requested-reviewer list, when the backend sent one.
func attachEmails(evidence map[string]*reviewerEvidence, reviewers []models.User) {
	for _, r := range reviewers {
		if e, ok := evidence[r.Username]; ok {
			e.email = r.Email
		}
	}
}

// aggregateEvidence folds pattern hits into one evidence row per reviewer,
// skipping hits below the similarity floor and anyone who authored the PR.
func aggregateEvidence(patterns []models.PatternRecord, authors map[string]struct{}) map[string]*reviewerEvidence {
	evidence := make(map[string]*reviewerEvidence)

	for _, p := range patterns {
		if p.Similarity <= similarityFloor {
			continue
		}
		for _, name := range patternReviewers(p) {
			if _, isAuthor := authors[name]; isAuthor {
				continue
			}
			e, ok := evidence[name]
			if !ok {
				e = &reviewerEvidence{username: name, expertise: make(map[string]int)}
				evidence[name] = e
			}
			e.similaritySum += p.Similarity
			e.similarPRs++
			for area, n := range p.Expertise {
				e.expertise[area] += n
			}
			if p.TotalReviews > e.totalReviews {
				e.totalReviews = p.TotalReviews
			}
		}
	}
	return evidence
}

func patternReviewers(p models.PatternRecord) []string {
	if len(p.Reviewers) > 0 {
		return p.Reviewers
	}
	if p.Reviewer != "" {
		return []string{p.Reviewer}
	}
	return nil
}

// rank orders evidence by score, breaking ties by total reviews and then by
// username so equal inputs always produce the same list.
func (s *ReviewerService) rank(evidence map[string]*reviewerEvidence, categories []string) []*reviewerEvidence {
	ranked := make([]*reviewerEvidence, 0, len(evidence))
	for _, e := range evidence {
		ranked = append(ranked, e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := s.scorer.Score(ranked[i], categories), s.scorer.Score(ranked[j], categories)
		if si != sj {
			return si > sj
		}
		if ranked[i].totalReviews != ranked[j].totalReviews {
			return ranked[i].totalReviews > ranked[j].totalReviews
		}
		return ranked[i].username < ranked[j].username
	})
	return ranked
}

func (s *ReviewerService) recommendation(ctx context.Context, e *reviewerEvidence, categories []string) models.ReviewerRecommendation {
	areas := expertiseAreas(e.expertise)
	rec := models.ReviewerRecommendation{
		Username: e.username,
		Email:    e.email,
		Score:    math.Round(s.scorer.Score(e, categories)*1000) / 1000,
		Rationale: models.ReviewerRationale{
			SimilarPRsReviewed: e.similarPRs,
			AvgSimilarity:      math.Round(e.avgSimilarity()*1000) / 1000,
			ExpertiseAreas:     areas,
			TotalReviews:       e.totalReviews,
		},
	}
	rec.Rationale.Summary = s.summarize(ctx, rec)
	return rec
}

// summarize asks the model for a one-sentence justification; on failure it
// falls back to a summary built from the numbers alone.
func (s *ReviewerService) summarize(ctx context.Context, rec models.ReviewerRecommendation) string {
	user := fmt.Sprintf(
		"Reviewer %s reviewed %d similar PRs (avg similarity %.2f), has %d total reviews, expertise: %s. "+
			"Write one sentence explaining why they fit this PR.",
		rec.Username, rec.Rationale.SimilarPRsReviewed, rec.Rationale.AvgSimilarity,
		rec.Rationale.TotalReviews, strings.Join(rec.Rationale.ExpertiseAreas, ", "))

	out, err := s.llm.Complete(ctx, reviewerSystemPrompt, user)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			log.Printf("reviewer: summary generation failed for %s: %v", rec.Username, err)
		}
		return fallbackSummary(rec)
	}
	return strings.TrimSpace(out)
}

func fallbackSummary(rec models.ReviewerRecommendation) string {
	if len(rec.Rationale.ExpertiseAreas) > 0 {
		return fmt.Sprintf("%s reviewed %d similar PRs and knows %s code in this repository.",
			rec.Username, rec.Rationale.SimilarPRsReviewed,
			strings.Join(rec.Rationale.ExpertiseAreas, " and "))
	}
	return fmt.Sprintf("%s reviewed %d similar PRs in this repository.",
		rec.Username, rec.Rationale.SimilarPRsReviewed)
}

// expertiseAreas sorts areas by review count, then name, capped at three.
func expertiseAreas(expertise map[string]int) []string {
	areas := make([]string, 0, len(expertise))
	for a := range expertise {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool {
		if expertise[areas[i]] != expertise[areas[j]] {
			return expertise[areas[i]] > expertise[areas[j]]
		}
		return areas[i] < areas[j]
	})
	if len(areas) > 3 {
		areas = areas[:3]
	}
	return areas
}

const reviewerSystemPrompt = `You summarize why a reviewer is a good match for a pull request.
Respond with exactly one plain sentence, no lists, no markdown.`
