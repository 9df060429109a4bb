package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/rules"
)

// ErrNoChangedFiles is returned when a PR payload carries no file changes.
// Handlers map it to a client error rather than a server failure.
var ErrNoChangedFiles = errors.New("pull request has no changed files")

// patternTopK is how many historical patterns one recommendation query pulls
// from the vector store.
const patternTopK = 15

// PriorityResult is the full output of one recommendation run.
type PriorityResult struct {
	Candidates []models.Candidate       `json:"priority"`
	Groups     []models.FunctionalGroup `json:"functional_groups"`
}

// PriorityService runs the review-priority pipeline: classify the change set,
// retrieve similar historical patterns, prompt the model with both, and
// normalize the output down to exactly three candidates. Every stage that
// depends on an external system degrades instead of failing: a dead vector
// store means an empty-history prompt, a dead model means rule-derived
// candidates.
type PriorityService struct {
	classifier *Classifier
	embedder   EmbeddingClient
	store      PatternStore
	llm        GenerativeClient
	completer  *Completer
}

func NewPriorityService(embedder EmbeddingClient, store PatternStore, llm GenerativeClient, rs *rules.RuleSet) *PriorityService {
	return &PriorityService{
		classifier: NewClassifier(ByKeyword),
		embedder:   embedder,
		store:      store,
		llm:        llm,
		completer:  NewCompleter(rs),
	}
}

// Recommend produces exactly three review-priority candidates for the PR.
func (s *PriorityService) Recommend(ctx context.Context, prep *models.PreparationResult) (*PriorityResult, error) {
	if prep == nil || len(prep.Files) == 0 {
		return nil, ErrNoChangedFiles
	}

	groups := s.classifier.Classify(prep.Files)
	patterns := s.similarPatterns(ctx, prep, groups)

	raw := ""
	promptCtx := BuildContext(patterns, groups)
	out, err := s.llm.Complete(ctx, prioritySystemPrompt, priorityUserPrompt(prep, promptCtx))
	if err != nil {
		log.Printf("priority: generative call failed, falling back to rules: %v", err)
	} else {
		raw = out
	}

	generated := ParseCandidates(raw, candidateCount, prep.Files)
	if len(generated) < candidateCount {
		log.Printf("priority: %d/%d candidates from model for %s", len(generated), candidateCount, prep.RepositoryName())
	}

	return &PriorityResult{
		Candidates: s.completer.Complete(generated, prep.Files),
		Groups:     groups,
	}, nil
}

// similarPatterns embeds the PR and queries the vector store. Any failure on
// this path is logged and reported as "no history": retrieval is an
// enrichment, never a prerequisite.
func (s *PriorityService) similarPatterns(ctx context.Context, prep *models.PreparationResult, groups []models.FunctionalGroup) []models.PatternRecord {
	vec, err := s.embedder.Embed(ctx, QueryText(prep, groups))
	if err != nil {
		log.Printf("priority: embedding failed for %s: %v", prep.RepositoryName(), err)
		return nil
	}

	patterns, err := s.store.QueryPRPatterns(ctx, vec, prep.RepositoryName(), patternTopK)
	if err != nil {
		log.Printf("priority: pattern query failed for %s: %v", prep.RepositoryName(), err)
		return nil
	}
	return patterns
}

// QueryText flattens a PR into the text that gets embedded for similarity
// search. Ingest uses the same shape so stored and query vectors live in the
// same space.
func QueryText(prep *models.PreparationResult, groups []models.FunctionalGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", prep.Title)
	if prep.Body != "" {
		fmt.Fprintf(&b, "Description: %s\n", prep.Body)
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "Category %s (%s, %s): %s\n",
			g.Category, g.Scale, g.Complexity, strings.Join(g.Files, ", "))
	}
	return b.String()
}

const prioritySystemPrompt = `You are a senior code reviewer helping a team triage a pull request.
Given the current change set and patterns from previously reviewed PRs in the same repository,
propose the three most important review priorities.

Respond with JSON only, in this exact shape:
{"priority": [{"title": "...", "priority_level": "CRITICAL|HIGH|MEDIUM|LOW", "reason": "...", "related_files": ["..."]}]}

Rules:
- Exactly three entries, ordered from most to least important.
- related_files must only contain paths that appear in the changed file list.
- reason explains concretely what a reviewer should check and why.`

func priorityUserPrompt(prep *models.PreparationResult, promptCtx string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", prep.RepositoryName())
	fmt.Fprintf(&b, "Pull request: %s -> %s\n", prep.Source, prep.Target)
	fmt.Fprintf(&b, "Title: %s\n", prep.Title)
	if prep.Body != "" {
		fmt.Fprintf(&b, "Description: %s\n", prep.Body)
	}

	b.WriteString("\nChanged files:\n")
	for _, f := range prep.Files {
		fmt.Fprintf(&b, "- %s (%s, +%d/-%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
	}

	b.WriteString("\n")
	b.WriteString(promptCtx)
	b.WriteString("\nPropose the three review priorities now.")
	return b.String()
}
