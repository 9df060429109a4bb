package service

import (
	"path"
	"sort"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// Change scale and complexity thresholds. Volume counts added+deleted lines
// across a group; complexity counts member files.
const (
	volumeLarge  = 200
	volumeMedium = 50

	filesComplex  = 5
	filesModerate = 2
)

// GroupingStrategy assigns a changed file to a functional category. Returning
// "" means "no semantic match"; the classifier then falls back to the file's
// parent directory so no file is ever dropped.
type GroupingStrategy func(file models.ChangedFile) string

// categoryKeywords is the fixed vocabulary of the keyword strategy. Iteration
// uses categoryOrder so matching is deterministic when a path hits several
// vocabularies.
var categoryKeywords = map[string][]string{
	"auth":     {"auth", "security", "jwt", "token", "password", "login", "oauth", "permission"},
	"database": {"entity", "repository", "migration", "schema", "model", "dao", "sql"},
	"api":      {"controller", "api", "dto", "handler", "route", "endpoint"},
	"test":     {"test", "spec", "mock", "fixture"},
	"config":   {"config", "settings", "properties", ".env", ".yml", ".yaml", ".toml"},
	"ui":       {"component", "view", "page", "style", ".css", ".html", "frontend"},
}

var categoryOrder = []string{"auth", "database", "api", "test", "config", "ui"}

// ByKeyword matches the file path against the semantic vocabulary.
func ByKeyword(file models.ChangedFile) string {
	lower := strings.ToLower(file.Filename)
	for _, category := range categoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return ""
}

// ByDirectory groups by parent directory only, ignoring the vocabulary.
func ByDirectory(file models.ChangedFile) string {
	return directoryCategory(file.Filename)
}

func directoryCategory(filename string) string {
	dir := path.Dir(filename)
	if dir == "." || dir == "/" {
		return "root"
	}
	return dir
}

// Classifier groups a PR's changed files into functional categories and
// derives scale/complexity signals per group. Classification is a pure
// function: same files in, same groups out, regardless of input order.
type Classifier struct {
	strategy GroupingStrategy
}

// NewClassifier returns a classifier using the given strategy, defaulting to
// the keyword vocabulary with directory fallback.
func NewClassifier(strategy GroupingStrategy) *Classifier {
	if strategy == nil {
		strategy = ByKeyword
	}
	return &Classifier{strategy: strategy}
}

// Classify partitions files into functional groups. Every file lands in
// exactly one group; files matching no vocabulary entry fall back to their
// directory-based group. Groups come back sorted by category name.
func (c *Classifier) Classify(files []models.ChangedFile) []models.FunctionalGroup {
	type agg struct {
		files      map[string]models.ChangedFile
		volume     int
		indicators map[string]struct{}
	}

	groups := make(map[string]*agg)

	for _, f := range files {
		category := c.strategy(f)
		if category == "" {
			category = directoryCategory(f.Filename)
		}

		g, ok := groups[category]
		if !ok {
			g = &agg{
				files:      make(map[string]models.ChangedFile),
				indicators: make(map[string]struct{}),
			}
			groups[category] = g
		}
		if _, dup := g.files[f.Filename]; dup {
			continue
		}
		g.files[f.Filename] = f
		g.volume += f.Changed()

		for _, ind := range fileIndicators(f, category) {
			g.indicators[ind] = struct{}{}
		}
	}

	out := make([]models.FunctionalGroup, 0, len(groups))
	for category, g := range groups {
		names := make([]string, 0, len(g.files))
		for name := range g.files {
			names = append(names, name)
		}
		sort.Strings(names)

		inds := make([]string, 0, len(g.indicators))
		for ind := range g.indicators {
			inds = append(inds, ind)
		}
		sort.Strings(inds)

		out = append(out, models.FunctionalGroup{
			Category:   category,
			Files:      names,
			Volume:     g.volume,
			Scale:      scaleFor(g.volume),
			Complexity: complexityFor(len(names)),
			Indicators: inds,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func scaleFor(volume int) models.ChangeScale {
	switch {
	case volume > volumeLarge:
		return models.ScaleLarge
	case volume > volumeMedium:
		return models.ScaleMedium
	default:
		return models.ScaleSmall
	}
}

func complexityFor(fileCount int) models.Complexity {
	switch {
	case fileCount > filesComplex:
		return models.ComplexityComplex
	case fileCount > filesModerate:
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

var sourceExtensions = map[string]struct{}{
	".py": {}, ".java": {}, ".js": {}, ".ts": {}, ".go": {}, ".cpp": {}, ".c": {}, ".kt": {},
}

var docExtensions = map[string]struct{}{
	".md": {}, ".txt": {}, ".rst": {},
}

// fileIndicators derives the free-text review hints a file contributes to its
// group.
func fileIndicators(f models.ChangedFile, category string) []string {
	var inds []string

	if f.Changed() > 100 {
		inds = append(inds, "large change")
	}
	switch f.Status {
	case "added":
		inds = append(inds, "new file added")
	case "deleted":
		inds = append(inds, "file deleted")
	}

	ext := strings.ToLower(path.Ext(f.Filename))
	if _, ok := sourceExtensions[ext]; ok {
		inds = append(inds, "core source code")
	}
	if _, ok := docExtensions[ext]; ok {
		inds = append(inds, "documentation")
	}
	if category == "test" {
		inds = append(inds, "test code")
	}
	return inds
}
