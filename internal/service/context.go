package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// NoHistorySentinel is emitted in place of the pattern section when the store
// returned nothing. Downstream prompting always has deterministic content to
// work with; an empty context never reaches the model.
const NoHistorySentinel = "No similar PR history available for this repository."

// maxContextCategories bounds prompt size: it caps both the pattern
// categories and the current-PR groups rendered into the context.
const maxContextCategories = 6

// maxContextIndicators caps the indicator union rendered per category.
const maxContextIndicators = 4

// BuildContext turns retrieved pattern records and the current PR's
// functional groups into the bounded natural-language context block for the
// generative call. It is a pure formatting step and never fails.
func BuildContext(patterns []models.PatternRecord, groups []models.FunctionalGroup) string {
	var b strings.Builder

	if len(patterns) == 0 {
		b.WriteString(NoHistorySentinel)
	} else {
		writePatternSection(&b, patterns)
	}

	if len(groups) > 0 {
		if len(groups) > maxContextCategories {
			groups = groups[:maxContextCategories]
		}
		b.WriteString("\n\n=== Functional groups of the current PR ===\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "- %s: %d file(s), %d changed lines, scale=%s, complexity=%s",
				g.Category, len(g.Files), g.Volume, g.Scale, g.Complexity)
			if len(g.Indicators) > 0 {
				fmt.Fprintf(&b, ", signals: %s", strings.Join(capped(g.Indicators, maxContextIndicators), ", "))
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

type categoryStats struct {
	category        string
	count           int
	totalSimilarity float64
	indicators      map[string]struct{}
	scales          map[models.ChangeScale]int
	complexities    map[models.Complexity]int
}

func writePatternSection(b *strings.Builder, patterns []models.PatternRecord) {
	byCategory := make(map[string]*categoryStats)
	for _, p := range patterns {
		category := p.Category
		if category == "" {
			category = "general"
		}
		st, ok := byCategory[category]
		if !ok {
			st = &categoryStats{
				category:     category,
				indicators:   make(map[string]struct{}),
				scales:       make(map[models.ChangeScale]int),
				complexities: make(map[models.Complexity]int),
			}
			byCategory[category] = st
		}
		st.count++
		st.totalSimilarity += p.Similarity
		for _, ind := range p.Indicators {
			st.indicators[ind] = struct{}{}
		}
		if p.Scale != "" {
			st.scales[p.Scale]++
		}
		if p.Complexity != "" {
			st.complexities[p.Complexity]++
		}
	}

	stats := make([]*categoryStats, 0, len(byCategory))
	for _, st := range byCategory {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].totalSimilarity != stats[j].totalSimilarity {
			return stats[i].totalSimilarity > stats[j].totalSimilarity
		}
		return stats[i].category < stats[j].category
	})
	if len(stats) > maxContextCategories {
		stats = stats[:maxContextCategories]
	}

	b.WriteString("=== Priority patterns from similar past PRs ===\n")
	for i, st := range stats {
		avg := st.totalSimilarity / float64(st.count)
		fmt.Fprintf(b, "%d. Functional area: %s\n", i+1, st.category)
		fmt.Fprintf(b, "   - average similarity: %.3f\n", avg)
		if inds := sortedKeys(st.indicators); len(inds) > 0 {
			fmt.Fprintf(b, "   - priority signals: %s\n", strings.Join(capped(inds, maxContextIndicators), ", "))
		}
		fmt.Fprintf(b, "   - typical complexity: %s\n", modeOf(st.complexities, string(models.ComplexityModerate)))
		fmt.Fprintf(b, "   - typical change scale: %s\n", modeOf(st.scales, string(models.ScaleSmall)))
		fmt.Fprintf(b, "   - related PRs: %d\n", st.count)
	}
}

// modeOf picks the most frequent key; ties break lexicographically so the
// rendered context is stable across map iteration orders.
func modeOf[K ~string](counts map[K]int, fallback string) string {
	best := ""
	bestCount := 0
	for k, n := range counts {
		s := string(k)
		if n > bestCount || (n == bestCount && (best == "" || s < best)) {
			best = s
			bestCount = n
		}
	}
	if best == "" {
		return fallback
	}
	return best
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func capped(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
