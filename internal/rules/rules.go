// Package rules holds the keyword/threshold rule set behind the rule-based
// priority tier. Sensible defaults are compiled in; a YAML file can override
// them without a rebuild.
package rules

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// CategoryRule matches files by filename keyword and renders one candidate.
type CategoryRule struct {
	Keywords       []string             `yaml:"keywords"`
	PriorityLevel  models.PriorityLevel `yaml:"priority_level"`
	TitleTemplate  string               `yaml:"title_template"`
	ReasonTemplate string               `yaml:"reason_template"`
	// Descriptions maps a keyword to the human phrase used in titles and
	// reasons. Keywords without an entry fall back to the keyword itself.
	Descriptions map[string]string `yaml:"descriptions,omitempty"`
}

// ScaleCondition is the threshold part of a change-scale rule.
type ScaleCondition struct {
	TotalChanges int `yaml:"total_changes"`
	FileCount    int `yaml:"file_count"`
}

// ScaleRule fires on overall PR size rather than on file keywords.
type ScaleRule struct {
	Condition      ScaleCondition       `yaml:"condition"`
	Title          string               `yaml:"title"`
	PriorityLevel  models.PriorityLevel `yaml:"priority_level"`
	ReasonTemplate string               `yaml:"reason_template"`
}

// FallbackRule is a fixed candidate used when nothing else matched.
type FallbackRule struct {
	Title          string               `yaml:"title"`
	PriorityLevel  models.PriorityLevel `yaml:"priority_level"`
	ReasonTemplate string               `yaml:"reason_template"`
}

// RuleSet is the full rule configuration.
type RuleSet struct {
	// Categories in fixed evaluation order: security, database, api, test.
	Categories map[string]CategoryRule `yaml:"priority_rules"`
	LargeScale ScaleRule               `yaml:"large_scale"`
	SmallScale ScaleRule               `yaml:"small_scale"`
	Fallbacks  map[string]FallbackRule `yaml:"fallback_rules"`
	Static     []models.Candidate      `yaml:"error_fallback"`
}

// CategoryOrder is the fixed evaluation order of keyword categories. Keeping
// it fixed makes the rule tier deterministic for a given PR.
var CategoryOrder = []string{"security", "database", "api", "test"}

// Default returns the compiled-in rule set.
func Default() *RuleSet {
	return &RuleSet{
		Categories: map[string]CategoryRule{
			"security": {
				Keywords:      []string{"auth", "security", "jwt", "token", "password", "login", "permission", "oauth"},
				PriorityLevel: models.PriorityCritical,
				TitleTemplate: "Security review: {desc}",
				ReasonTemplate: "Changes to {files} touch {desc}. Verify token issuance and " +
					"validation paths, permission checks, and that no credentials or secrets leak.",
				Descriptions: map[string]string{
					"auth":       "authentication logic",
					"security":   "security configuration",
					"jwt":        "JWT handling",
					"token":      "token handling",
					"password":   "password handling",
					"login":      "login flow",
					"permission": "permission checks",
					"oauth":      "OAuth integration",
				},
			},
			"database": {
				Keywords:      []string{"entity", "repository", "migration", "schema", "model", "dao"},
				PriorityLevel: models.PriorityHigh,
				TitleTemplate: "Data layer review: {desc}",
				ReasonTemplate: "Changes to {files} affect {desc}. Check schema compatibility, " +
					"query correctness, and data integrity under concurrent access.",
				Descriptions: map[string]string{
					"entity":     "entity definitions",
					"repository": "repository queries",
					"migration":  "schema migrations",
					"schema":     "schema definitions",
					"model":      "data models",
					"dao":        "data access objects",
				},
			},
			"api": {
				Keywords:      []string{"controller", "api", "dto", "handler", "router", "endpoint"},
				PriorityLevel: models.PriorityHigh,
				TitleTemplate: "API contract review: {desc}",
				ReasonTemplate: "Changes to {files} modify {desc}. Confirm backwards compatibility " +
					"of request/response shapes and error codes for existing clients.",
				Descriptions: map[string]string{
					"controller": "controller endpoints",
					"api":        "API surface",
					"dto":        "request/response DTOs",
					"handler":    "request handlers",
					"router":     "route registration",
					"endpoint":   "endpoint definitions",
				},
			},
			"test": {
				Keywords:      []string{"test", "spec", "mock", "fixture"},
				PriorityLevel: models.PriorityLow,
				TitleTemplate: "Test coverage review",
				ReasonTemplate: "Test changes in {files}. Check that the new or updated tests " +
					"actually cover the behaviour changed elsewhere in this PR.",
			},
		},
		LargeScale: ScaleRule{
			Condition:     ScaleCondition{TotalChanges: 300, FileCount: 10},
			Title:         "Large-scale change review",
			PriorityLevel: models.PriorityMedium,
			ReasonTemplate: "This PR spans {file_count} files and {total_changes} changed lines " +
				"(main files: {files}). Review for architectural consistency and unintended side effects.",
		},
		SmallScale: ScaleRule{
			Condition:     ScaleCondition{TotalChanges: 30, FileCount: 2},
			Title:         "Small focused change",
			PriorityLevel: models.PriorityLow,
			ReasonTemplate: "A small change of {total_changes} lines in {files}. A quick " +
				"correctness pass should be sufficient.",
		},
		Fallbacks: map[string]FallbackRule{
			"general_feature": {
				Title:          "General feature change",
				PriorityLevel:  models.PriorityMedium,
				ReasonTemplate: "Feature code was modified. Review the changed behaviour and its edge cases.",
			},
			"internal_logic": {
				Title:          "Internal logic review",
				PriorityLevel:  models.PriorityMedium,
				ReasonTemplate: "Internal business logic was changed. Verify the affected code paths and their tests.",
			},
			"code_quality": {
				Title:          "Code quality review",
				PriorityLevel:  models.PriorityMedium,
				ReasonTemplate: "Changes span multiple files. Check naming, duplication, and overall readability.",
			},
		},
		Static: []models.Candidate{
			{
				Title:         "Overall change review",
				PriorityLevel: models.PriorityMedium,
				Reason:        "Automated analysis was unavailable for this PR; review the full change set manually.",
			},
			{
				Title:         "Behavioural verification",
				PriorityLevel: models.PriorityMedium,
				Reason:        "Confirm the changed behaviour against the PR description and existing tests.",
			},
			{
				Title:         "Regression check",
				PriorityLevel: models.PriorityMedium,
				Reason:        "Check adjacent code paths for regressions introduced by this change.",
			},
		},
	}
}

// Load returns the default rule set, overridden section-by-section from the
// YAML file at path when path is non-empty. A missing or unreadable file is
// logged and ignored so a bad deploy never disables the rule tier.
func Load(path string) *RuleSet {
	rs := Default()
	if path == "" {
		return rs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("priority rules: cannot read %s: %v; using defaults", path, err)
		return rs
	}

	var override RuleSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		log.Printf("priority rules: cannot parse %s: %v; using defaults", path, err)
		return rs
	}

	if len(override.Categories) > 0 {
		rs.Categories = override.Categories
	}
	if override.LargeScale.Title != "" {
		rs.LargeScale = override.LargeScale
	}
	if override.SmallScale.Title != "" {
		rs.SmallScale = override.SmallScale
	}
	if len(override.Fallbacks) > 0 {
		rs.Fallbacks = override.Fallbacks
	}
	if len(override.Static) > 0 {
		rs.Static = override.Static
	}
	log.Printf("priority rules: loaded overrides from %s", path)
	return rs
}

// Match is one keyword category hit over a PR's file list.
type Match struct {
	Category     string
	Files        []string
	Descriptions []string
}

// MatchFiles runs every keyword category over the filenames and returns the
// hits keyed by category. Matching is case-insensitive substring search over
// the whole path, so "auth/TokenService.java" hits both "auth" and "token".
func (rs *RuleSet) MatchFiles(filenames []string) map[string]Match {
	matches := make(map[string]Match)

	for _, category := range CategoryOrder {
		rule, ok := rs.Categories[category]
		if !ok {
			continue
		}
		var files []string
		descSet := make(map[string]struct{})
		for _, name := range filenames {
			lower := strings.ToLower(name)
			matched := false
			for _, kw := range rule.Keywords {
				if strings.Contains(lower, kw) {
					matched = true
					desc := kw
					if d, ok := rule.Descriptions[kw]; ok {
						desc = d
					}
					descSet[desc] = struct{}{}
				}
			}
			if matched {
				files = append(files, name)
			}
		}
		if len(files) == 0 {
			continue
		}
		descs := make([]string, 0, len(descSet))
		for d := range descSet {
			descs = append(descs, d)
		}
		sort.Strings(descs)
		matches[category] = Match{Category: category, Files: files, Descriptions: descs}
	}

	return matches
}

// CheckScale returns which change-scale rule fires for the given totals:
// "large_scale", "small_scale", or "" when neither condition holds.
func (rs *RuleSet) CheckScale(totalChanges, fileCount int) (string, ScaleRule) {
	large := rs.LargeScale
	if totalChanges >= large.Condition.TotalChanges || fileCount >= large.Condition.FileCount {
		return "large_scale", large
	}
	small := rs.SmallScale
	if totalChanges < small.Condition.TotalChanges && fileCount <= small.Condition.FileCount {
		return "small_scale", small
	}
	return "", ScaleRule{}
}

// Render builds the candidate for a keyword category match.
func (rs *RuleSet) Render(m Match) models.Candidate {
	rule := rs.Categories[m.Category]
	desc := strings.Join(m.Descriptions, ", ")

	title := expand(rule.TitleTemplate, map[string]string{"desc": desc})
	reason := expand(rule.ReasonTemplate, map[string]string{
		"desc":  desc,
		"files": strings.Join(firstN(m.Files, 2), ", "),
	})

	related := m.Files
	if len(related) > 5 {
		related = related[:5]
	}

	return models.Candidate{
		Title:         title,
		PriorityLevel: rule.PriorityLevel,
		Reason:        reason,
		RelatedFiles:  append([]string(nil), related...),
	}
}

// RenderScale builds the candidate for a change-scale rule.
func (rs *RuleSet) RenderScale(rule ScaleRule, mainFiles []string, totalChanges, fileCount int) models.Candidate {
	reason := expand(rule.ReasonTemplate, map[string]string{
		"files":         strings.Join(firstN(mainFiles, 3), ", "),
		"total_changes": fmt.Sprint(totalChanges),
		"file_count":    fmt.Sprint(fileCount),
	})
	related := mainFiles
	if len(related) > 5 {
		related = related[:5]
	}
	return models.Candidate{
		Title:         rule.Title,
		PriorityLevel: rule.PriorityLevel,
		Reason:        reason,
		RelatedFiles:  append([]string(nil), related...),
	}
}

// RenderFallback builds the candidate for a named fallback rule.
func (rs *RuleSet) RenderFallback(name string) models.Candidate {
	rule := rs.Fallbacks[name]
	return models.Candidate{
		Title:         rule.Title,
		PriorityLevel: rule.PriorityLevel,
		Reason:        rule.ReasonTemplate,
	}
}

// expand substitutes {name} placeholders. Unknown placeholders are left
// untouched so a template typo degrades visibly instead of panicking.
func expand(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
