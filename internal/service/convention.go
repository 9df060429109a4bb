package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// ErrNoConventionRules is returned when a convention check is requested with
// an empty rule set.
var ErrNoConventionRules = errors.New("no convention rules provided")

// compliantSentinel is what the model must answer for a file with no
// violations. Sentinel responses are filtered out of the result.
const compliantSentinel = "COMPLIANT"

// conventionConcurrency bounds how many files are checked at once.
const conventionConcurrency = 5

// ConventionFinding is one file's deviation from the team conventions.
type ConventionFinding struct {
	Filename string `json:"filename"`
	Feedback string `json:"feedback"`
}

// ConventionResult is the outcome of checking every changed file.
type ConventionResult struct {
	Findings []ConventionFinding `json:"violations"`
	Summary  string              `json:"summary"`
}

// ConventionService checks changed files against team naming conventions,
// one model call per file. Files run concurrently; one file's failure never
// blocks the others.
type ConventionService struct {
	llm     GenerativeClient
	timeout time.Duration
}

func NewConventionService(llm GenerativeClient, timeout time.Duration) *ConventionService {
	return &ConventionService{llm: llm, timeout: timeout}
}

// Analyze checks each file with a patch against the rules and returns the
// files that deviate, in the order they appeared in the input.
func (s *ConventionService) Analyze(ctx context.Context, rules models.ConventionRules, files []models.ChangedFile) (*ConventionResult, error) {
	if rules.Empty() {
		return nil, ErrNoConventionRules
	}

	var checkable []models.ChangedFile
	for _, f := range files {
		if strings.TrimSpace(f.Patch) != "" {
			checkable = append(checkable, f)
		}
	}
	if len(checkable) == 0 {
		return &ConventionResult{Summary: "No reviewable file changes."}, nil
	}

	ruleText := renderRules(rules)
	feedback := make([]string, len(checkable))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conventionConcurrency)
	for i, f := range checkable {
		g.Go(func() error {
			feedback[i] = s.checkFile(gctx, ruleText, f)
			return nil
		})
	}
	g.Wait()

	result := &ConventionResult{}
	for i, f := range checkable {
		if feedback[i] == "" {
			continue
		}
		result.Findings = append(result.Findings, ConventionFinding{
			Filename: f.Filename,
			Feedback: feedback[i],
		})
	}

	if len(result.Findings) == 0 {
		result.Summary = "All changed files comply with the team conventions."
	} else {
		result.Summary = fmt.Sprintf("%d of %d checked files deviate from the team conventions.",
			len(result.Findings), len(checkable))
	}
	return result, nil
}

// checkFile runs one model call under its own timeout. A compliant file or a
// failed call both come back as empty feedback; failures are logged.
func (s *ConventionService) checkFile(ctx context.Context, ruleText string, f models.ChangedFile) string {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.llm.Complete(cctx, conventionSystemPrompt, conventionUserPrompt(ruleText, f))
	if err != nil {
		log.Printf("convention: check failed for %s: %v", f.Filename, err)
		return "Convention check did not complete for this file."
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, compliantSentinel) {
		return ""
	}
	return out
}

func renderRules(rules models.ConventionRules) string {
	var b strings.Builder
	write := func(label, rule string) {
		if rule != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, rule)
		}
	}
	write("File names", rules.FileNames)
	write("Function names", rules.FunctionNames)
	write("Variable names", rules.VariableNames)
	write("Class names", rules.ClassNames)
	write("Constant names", rules.ConstantNames)
	return b.String()
}

const conventionSystemPrompt = `You check code changes against a team's naming conventions.
Only flag violations of the listed rules; ignore style issues the rules do not cover.
If the change fully complies with every rule, respond with exactly: COMPLIANT
Otherwise respond with a short plain-text list of the violations and how to fix them.`

func conventionUserPrompt(ruleText string, f models.ChangedFile) string {
	var b strings.Builder
	b.WriteString("Team conventions:\n")
	b.WriteString(ruleText)
	fmt.Fprintf(&b, "\nFile: %s\nDiff:\n%s\n", f.Filename, f.Patch)
	return b.String()
}
