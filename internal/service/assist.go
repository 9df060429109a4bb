package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// ErrEmptyComment is returned when there is no comment text to rephrase.
var ErrEmptyComment = errors.New("comment text is empty")

// AssistService covers the single-prompt helpers around a PR: suggesting a
// title, summarizing the change set, and softening review comments. Unlike
// the priority pipeline these have no fallback tier; a model failure is
// returned to the caller.
type AssistService struct {
	llm GenerativeClient
}

func NewAssistService(llm GenerativeClient) *AssistService {
	return &AssistService{llm: llm}
}

// SuggestTitle proposes a PR title from the commits and changed files.
func (s *AssistService) SuggestTitle(ctx context.Context, prep *models.PreparationResult) (string, error) {
	if prep == nil || (len(prep.Commits) == 0 && len(prep.Files) == 0) {
		return "", ErrNoChangedFiles
	}

	out, err := s.llm.Complete(ctx, titleSystemPrompt, describeChanges(prep))
	if err != nil {
		return "", fmt.Errorf("generating title: %w", err)
	}
	return firstLine(out), nil
}

// Summarize writes a short reviewer-facing summary of the PR.
func (s *AssistService) Summarize(ctx context.Context, prep *models.PreparationResult) (string, error) {
	if prep == nil || len(prep.Files) == 0 {
		return "", ErrNoChangedFiles
	}

	out, err := s.llm.Complete(ctx, summarySystemPrompt, describeChanges(prep))
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Cushion rewrites a blunt review comment into a softer one with the same
// technical content.
func (s *AssistService) Cushion(ctx context.Context, comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", ErrEmptyComment
	}

	out, err := s.llm.Complete(ctx, cushionSystemPrompt, comment)
	if err != nil {
		return "", fmt.Errorf("rephrasing comment: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// describeChanges flattens a PR into the prompt body shared by the title and
// summary helpers.
func describeChanges(prep *models.PreparationResult) string {
	var b strings.Builder
	if prep.Title != "" {
		fmt.Fprintf(&b, "Current title: %s\n", prep.Title)
	}
	if prep.Body != "" {
		fmt.Fprintf(&b, "Description: %s\n", prep.Body)
	}

	if len(prep.Commits) > 0 {
		b.WriteString("Commits:\n")
		for _, c := range prep.Commits {
			fmt.Fprintf(&b, "- %s\n", firstLine(c.Message))
		}
	}
	if len(prep.Files) > 0 {
		b.WriteString("Changed files:\n")
		for _, f := range prep.Files {
			fmt.Fprintf(&b, "- %s (%s, +%d/-%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		}
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "\"` ")
}

const titleSystemPrompt = `You write pull request titles.
Given the commits and changed files, respond with a single concise title in imperative mood.
Respond with the title only, no quotes, no explanation.`

const summarySystemPrompt = `You summarize pull requests for reviewers.
Write 2-4 plain sentences: what changed, why, and what a reviewer should look at first.
No markdown headings, no bullet lists.`

const cushionSystemPrompt = `You rephrase code review comments to be considerate while keeping every technical point intact.
Keep the language of the original comment. Respond with the rephrased comment only.`
