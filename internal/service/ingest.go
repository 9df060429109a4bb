package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// IngestResult reports how many pattern records one merged PR produced.
type IngestResult struct {
	PRPatterns       int `json:"pr_patterns"`
	ReviewPatterns   int `json:"review_patterns"`
	ReviewerPatterns int `json:"reviewer_patterns"`
}

// IngestService turns a merged PR into pattern records: one PR pattern per
// functional group, one review pattern per substantive review, and an updated
// expertise record per reviewer. These records are what the priority and
// reviewer pipelines later retrieve.
type IngestService struct {
	classifier *Classifier
	embedder   EmbeddingClient
	store      PatternStore
}

func NewIngestService(embedder EmbeddingClient, store PatternStore) *IngestService {
	return &IngestService{
		classifier: NewClassifier(ByKeyword),
		embedder:   embedder,
		store:      store,
	}
}

// Ingest stores all patterns derived from the PR. It fails fast on store or
// embedding errors so the backend can retry the whole payload; upserts make
// the retry safe.
func (s *IngestService) Ingest(ctx context.Context, pr *models.PRDetail) (*IngestResult, error) {
	if pr == nil || len(pr.Files) == 0 {
		return nil, ErrNoChangedFiles
	}

	groups := s.classifier.Classify(pr.Files)
	reviewers := reviewerNames(pr)
	result := &IngestResult{}

	for _, g := range groups {
		rec, err := s.prPattern(ctx, pr, g, reviewers)
		if err != nil {
			return nil, err
		}
		if err := s.store.UpsertPRPattern(ctx, rec); err != nil {
			return nil, fmt.Errorf("storing pr pattern %s: %w", rec.ID, err)
		}
		result.PRPatterns++
	}

	for _, rv := range pr.Reviews {
		rec, ok, err := s.reviewPattern(ctx, pr, rv, groups)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.store.UpsertReviewPattern(ctx, rec); err != nil {
			return nil, fmt.Errorf("storing review pattern %s: %w", rec.ID, err)
		}
		result.ReviewPatterns++
	}

	for _, name := range reviewers {
		if err := s.updateReviewerPattern(ctx, pr, name, groups); err != nil {
			return nil, err
		}
		result.ReviewerPatterns++
	}

	log.Printf("ingest: %s #%d -> %d pr / %d review / %d reviewer patterns",
		pr.Repo.FullName, pr.GithubPrNumber,
		result.PRPatterns, result.ReviewPatterns, result.ReviewerPatterns)
	return result, nil
}

// prPattern builds the stored record for one functional group.
func (s *IngestService) prPattern(ctx context.Context, pr *models.PRDetail, g models.FunctionalGroup, reviewers []string) (models.PatternRecord, error) {
	doc := groupDocument(pr, g)
	vec, err := s.embedder.Embed(ctx, doc)
	if err != nil {
		return models.PatternRecord{}, fmt.Errorf("embedding pr pattern for %s: %w", g.Category, err)
	}

	return models.PatternRecord{
		ID:         fmt.Sprintf("pr:%s:%d:%s", pr.Repo.FullName, pr.GithubPrNumber, g.Category),
		Repository: pr.Repo.FullName,
		Category:   g.Category,
		Reviewers:  reviewers,
		Scale:      g.Scale,
		Complexity: g.Complexity,
		Indicators: g.Indicators,
		Document:   doc,
		Embedding:  vec,
	}, nil
}

// reviewPattern builds the record for one submitted review. Reviews without
// any text carry no signal and are skipped.
func (s *IngestService) reviewPattern(ctx context.Context, pr *models.PRDetail, rv models.Review, groups []models.FunctionalGroup) (models.PatternRecord, bool, error) {
	doc := reviewDocument(pr, rv)
	if doc == "" {
		return models.PatternRecord{}, false, nil
	}

	vec, err := s.embedder.Embed(ctx, doc)
	if err != nil {
		return models.PatternRecord{}, false, fmt.Errorf("embedding review by %s: %w", rv.Reviewer, err)
	}

	return models.PatternRecord{
		ID:         fmt.Sprintf("review:%s:%d:%s", pr.Repo.FullName, pr.GithubPrNumber, rv.Reviewer),
		Repository: pr.Repo.FullName,
		Category:   dominantCategory(groups),
		Reviewer:   rv.Reviewer,
		Document:   doc,
		Embedding:  vec,
	}, true, nil
}

// updateReviewerPattern is a read-modify-write over the reviewer's expertise
// record: per-category counters and the total review count grow with every
// ingested PR, and the embedding is refreshed from the updated document.
func (s *IngestService) updateReviewerPattern(ctx context.Context, pr *models.PRDetail, name string, groups []models.FunctionalGroup) error {
	id := fmt.Sprintf("reviewer:%s:%s", pr.Repo.FullName, name)

	rec, found, err := s.store.FindReviewerPattern(ctx, id)
	if err != nil {
		return fmt.Errorf("loading reviewer pattern %s: %w", id, err)
	}
	if !found {
		rec = models.PatternRecord{
			ID:         id,
			Repository: pr.Repo.FullName,
			Reviewer:   name,
			Expertise:  make(map[string]int),
		}
	}
	if rec.Expertise == nil {
		rec.Expertise = make(map[string]int)
	}

	var files []string
	for _, g := range groups {
		rec.Expertise[g.Category]++
		files = append(files, g.Files...)
	}
	rec.TotalReviews++
	rec.Indicators = capped(files, maxRelatedFiles)
	rec.Document = reviewerDocument(name, rec)

	vec, err := s.embedder.Embed(ctx, rec.Document)
	if err != nil {
		return fmt.Errorf("embedding reviewer pattern %s: %w", id, err)
	}
	rec.Embedding = vec

	if err := s.store.UpsertReviewerPattern(ctx, rec); err != nil {
		return fmt.Errorf("storing reviewer pattern %s: %w", id, err)
	}
	return nil
}

// ---- document builders ------------------------------------------------------

func groupDocument(pr *models.PRDetail, g models.FunctionalGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s (%s -> %s)\n", pr.Repo.FullName, pr.Head, pr.Base)
	fmt.Fprintf(&b, "Title: %s\n", pr.Title)
	if pr.Body != "" {
		fmt.Fprintf(&b, "Description: %s\n", pr.Body)
	}
	fmt.Fprintf(&b, "Category %s (%s, %s): %s\n",
		g.Category, g.Scale, g.Complexity, strings.Join(g.Files, ", "))
	if len(g.Indicators) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(g.Indicators, ", "))
	}
	if len(pr.Commits) > 0 {
		msgs := make([]string, 0, len(pr.Commits))
		for _, c := range pr.Commits {
			if line := strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]; line != "" {
				msgs = append(msgs, line)
			}
		}
		fmt.Fprintf(&b, "Commits: %s\n", strings.Join(msgs, "; "))
	}
	if pr.Author.Username != "" {
		fmt.Fprintf(&b, "Author: %s\n", pr.Author.Username)
	}
	return b.String()
}

func reviewDocument(pr *models.PRDetail, rv models.Review) string {
	var parts []string
	if body := strings.TrimSpace(rv.Body); body != "" {
		parts = append(parts, body)
	}
	for _, c := range rv.Comments {
		if body := strings.TrimSpace(c.Body); body != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", c.Path, body))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("Review of %s (%s)\n%s", pr.Title, rv.State, strings.Join(parts, "\n"))
}

func reviewerDocument(name string, rec models.PatternRecord) string {
	areas := expertiseAreas(rec.Expertise)
	var b strings.Builder
	fmt.Fprintf(&b, "Reviewer %s with %d reviews in %s.\n", name, rec.TotalReviews, rec.Repository)
	if len(areas) > 0 {
		fmt.Fprintf(&b, "Expertise: %s\n", strings.Join(areas, ", "))
	}
	if len(rec.Indicators) > 0 {
		fmt.Fprintf(&b, "Recently reviewed files: %s\n", strings.Join(rec.Indicators, ", "))
	}
	return b.String()
}

// dominantCategory picks the highest-volume group's category.
func dominantCategory(groups []models.FunctionalGroup) string {
	best := ""
	bestVolume := -1
	for _, g := range groups {
		if g.Volume > bestVolume {
			best, bestVolume = g.Category, g.Volume
		}
	}
	return best
}

// reviewerNames lists who actually reviewed the PR, preferring submitted
// reviews over the requested reviewer list.
func reviewerNames(pr *models.PRDetail) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if name == "" || name == pr.Author.Username {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, rv := range pr.Reviews {
		add(rv.Reviewer)
	}
	if len(names) == 0 {
		for _, u := range pr.Reviewers {
			add(u.Username)
		}
	}
	return names
}
