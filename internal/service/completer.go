package service

import (
	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/rules"
)

// candidateCount is the fixed size of every priority recommendation response.
// Callers can rely on exactly this many candidates regardless of which tier
// produced them.
const candidateCount = 3

// Completer enforces the exactly-three contract over the tiered candidate
// sources: generative output first, rule-derived candidates next, static
// fallbacks last.
type Completer struct {
	rules *rules.RuleSet
}

func NewCompleter(rs *rules.RuleSet) *Completer {
	return &Completer{rules: rs}
}

// Complete merges the generative candidates with lower tiers until exactly
// candidateCount remain. Duplicate titles are dropped, keeping the earlier
// (higher-tier) candidate.
func (c *Completer) Complete(generated []models.Candidate, files []models.ChangedFile) []models.Candidate {
	out := make([]models.Candidate, 0, candidateCount)
	seen := make(map[string]struct{})

	add := func(cand models.Candidate) {
		if len(out) >= candidateCount || !cand.SchemaValid() {
			return
		}
		if _, dup := seen[cand.Title]; dup {
			return
		}
		seen[cand.Title] = struct{}{}
		out = append(out, cand)
	}

	for _, cand := range generated {
		add(cand)
	}
	if len(out) < candidateCount {
		for _, cand := range c.RuleBased(files) {
			add(cand)
		}
	}
	if len(out) < candidateCount {
		for _, cand := range c.Static() {
			add(cand)
		}
	}
	return out
}

// RuleBased derives candidateCount candidates from the rule set alone, with
// no model involved. Keyword categories fire first in their fixed order, then
// the change-scale rule, then the named fallbacks pad out the list.
func (c *Completer) RuleBased(files []models.ChangedFile) []models.Candidate {
	names := make([]string, len(files))
	totalChanges := 0
	for i, f := range files {
		names[i] = f.Filename
		totalChanges += f.Changed()
	}

	out := make([]models.Candidate, 0, candidateCount)
	seen := make(map[string]struct{})
	add := func(cand models.Candidate) {
		if len(out) >= candidateCount {
			return
		}
		if _, dup := seen[cand.Title]; dup {
			return
		}
		seen[cand.Title] = struct{}{}
		out = append(out, cand)
	}

	matches := c.rules.MatchFiles(names)
	for _, category := range rules.CategoryOrder {
		if m, ok := matches[category]; ok {
			add(c.rules.Render(m))
		}
	}

	if len(out) < candidateCount {
		if name, rule := c.rules.CheckScale(totalChanges, len(files)); name != "" {
			main := mainFileNames(files, candidateCount)
			add(c.rules.RenderScale(rule, main, totalChanges, len(files)))
		}
	}

	for _, name := range []string{"general_feature", "internal_logic", "code_quality"} {
		if len(out) >= candidateCount {
			break
		}
		cand := c.rules.RenderFallback(name)
		cand.RelatedFiles = mainFileNames(files, candidateCount)
		add(cand)
	}

	return out
}

// Static returns the compiled-in last-resort candidates, copied so callers
// cannot mutate the rule set.
func (c *Completer) Static() []models.Candidate {
	out := make([]models.Candidate, 0, candidateCount)
	for _, cand := range c.rules.Static {
		if len(out) >= candidateCount {
			break
		}
		out = append(out, cand)
	}
	return out
}

// mainFileNames returns the n highest-volume filenames.
func mainFileNames(files []models.ChangedFile, n int) []string {
	sorted := filesByVolume(files)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	names := make([]string, len(sorted))
	for i, f := range sorted {
		names[i] = f.Filename
	}
	return names
}
