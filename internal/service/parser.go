package service

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// maxRelatedFiles caps how many paths one candidate may reference;
// minRelatedFiles is the back-fill target when the model referenced fewer.
const (
	maxRelatedFiles = 5
	minRelatedFiles = 3
)

// rawCandidate is the JSON shape the model is asked to produce per candidate.
type rawCandidate struct {
	Title         string   `json:"title"`
	PriorityLevel string   `json:"priority_level"`
	Reason        string   `json:"reason"`
	RelatedFiles  []string `json:"related_files"`
}

// extractor pulls a candidate array out of raw model output. Extractors are
// tried in order; the first one that yields at least one entry wins for the
// whole list.
type extractor func(text string) ([]json.RawMessage, bool)

var extractors = []extractor{
	extractWholeText,
	extractBracketSpan,
	extractFencedBlock,
}

// ParseCandidates extracts and validates a candidate list from raw generative
// output. It never fails: unparseable input yields an empty slice, and a
// structurally broken entry is skipped rather than defaulted. At most
// expected candidates are returned.
func ParseCandidates(raw string, expected int, prFiles []models.ChangedFile) []models.Candidate {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	var entries []json.RawMessage
	for _, ex := range extractors {
		if found, ok := ex(text); ok && len(found) > 0 {
			entries = found
			break
		}
	}
	if len(entries) == 0 {
		return nil
	}

	candidates := make([]models.Candidate, 0, expected)
	for _, entry := range entries {
		if len(candidates) >= expected {
			break
		}
		var rc rawCandidate
		if err := json.Unmarshal(entry, &rc); err != nil {
			continue
		}
		candidates = append(candidates, normalizeCandidate(rc, len(candidates)+1, prFiles))
	}
	return candidates
}

// ---- extraction strategies --------------------------------------------------

// candidatePayload accepts both the documented {"priority": [...]} envelope
// and a bare top-level array.
func decodeCandidateList(text string) ([]json.RawMessage, bool) {
	var envelope struct {
		Priority []json.RawMessage `json:"priority"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && envelope.Priority != nil {
		return envelope.Priority, true
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return arr, true
	}
	return nil, false
}

func extractWholeText(text string) ([]json.RawMessage, bool) {
	return decodeCandidateList(text)
}

// extractBracketSpan finds the first bracket-delimited span and parses it
// greedily: from the first opening bracket to the last matching closer, so
// commentary around the JSON body is tolerated.
func extractBracketSpan(text string) ([]json.RawMessage, bool) {
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start < 0 || end <= start {
			continue
		}
		if entries, ok := decodeCandidateList(text[start : end+1]); ok {
			return entries, true
		}
	}
	return nil, false
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func extractFencedBlock(text string) ([]json.RawMessage, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if entries, ok := decodeCandidateList(body); ok {
			return entries, true
		}
		// The fence content may itself wrap JSON in prose.
		if entries, ok := extractBracketSpan(body); ok {
			return entries, true
		}
	}
	return nil, false
}

// ---- per-candidate normalization --------------------------------------------

func normalizeCandidate(rc rawCandidate, position int, prFiles []models.ChangedFile) models.Candidate {
	title := strings.TrimSpace(rc.Title)
	if title == "" {
		title = fmt.Sprintf("Priority candidate %d", position)
	}

	level := models.PriorityLevel(strings.ToUpper(strings.TrimSpace(rc.PriorityLevel)))
	if !level.Valid() {
		level = models.PriorityMedium
	}

	reason := strings.TrimSpace(rc.Reason)
	if reason == "" {
		reason = "Derived from analysis of the current change set."
	}

	return models.Candidate{
		Title:         title,
		PriorityLevel: level,
		Reason:        reason,
		RelatedFiles:  sanitizeRelatedFiles(rc.RelatedFiles, prFiles),
	}
}

// sanitizeRelatedFiles enforces the no-hallucinated-paths invariant: every
// surviving path must belong to the current PR. Exact matches are preferred;
// a second pass accepts basename or suffix matches (the model often shortens
// paths). The result is capped at maxRelatedFiles and back-filled with the
// highest-volume PR files up to minRelatedFiles.
func sanitizeRelatedFiles(requested []string, prFiles []models.ChangedFile) []string {
	if len(prFiles) == 0 {
		return nil
	}

	exact := make(map[string]struct{}, len(prFiles))
	for _, f := range prFiles {
		exact[f.Filename] = struct{}{}
	}

	var out []string
	used := make(map[string]struct{})
	add := func(p string) {
		if _, ok := used[p]; ok {
			return
		}
		used[p] = struct{}{}
		out = append(out, p)
	}

	for _, req := range requested {
		if len(out) >= maxRelatedFiles {
			break
		}
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		if _, ok := exact[req]; ok {
			add(req)
			continue
		}
		if resolved, ok := resolvePartial(req, prFiles); ok {
			add(resolved)
		}
	}

	if len(out) < minRelatedFiles {
		for _, f := range filesByVolume(prFiles) {
			if len(out) >= minRelatedFiles {
				break
			}
			add(f.Filename)
		}
	}

	if len(out) > maxRelatedFiles {
		out = out[:maxRelatedFiles]
	}
	return out
}

// resolvePartial maps a model-shortened path onto a real PR file by basename
// or path-suffix match.
func resolvePartial(req string, prFiles []models.ChangedFile) (string, bool) {
	base := path.Base(req)
	for _, f := range prFiles {
		if path.Base(f.Filename) == base {
			return f.Filename, true
		}
		if strings.HasSuffix(f.Filename, "/"+req) {
			return f.Filename, true
		}
	}
	return "", false
}

// filesByVolume orders PR files by descending change volume; ties break by
// filename so back-fill order is deterministic.
func filesByVolume(prFiles []models.ChangedFile) []models.ChangedFile {
	sorted := append([]models.ChangedFile(nil), prFiles...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Changed() != sorted[j].Changed() {
			return sorted[i].Changed() > sorted[j].Changed()
		}
		return sorted[i].Filename < sorted[j].Filename
	})
	return sorted
}
