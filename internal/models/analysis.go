package models

// ChangeScale buckets a group's change volume.
type ChangeScale string

const (
	ScaleSmall  ChangeScale = "small"
	ScaleMedium ChangeScale = "medium"
	ScaleLarge  ChangeScale = "large"
)

// Complexity buckets a group's file count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// PriorityLevel is the severity attached to a priority candidate.
type PriorityLevel string

const (
	PriorityCritical PriorityLevel = "CRITICAL"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityLow      PriorityLevel = "LOW"
)

// Valid reports whether the level is one of the four defined values.
func (l PriorityLevel) Valid() bool {
	switch l {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// FunctionalGroup is a cluster of changed files sharing a directory or
// semantic category. Classification partitions a PR's files: every file
// belongs to exactly one group.
type FunctionalGroup struct {
	Category   string      `json:"category"`
	Files      []string    `json:"files"`
	Volume     int         `json:"volume"` // sum of additions+deletions
	Scale      ChangeScale `json:"scale"`
	Complexity Complexity  `json:"complexity"`
	Indicators []string    `json:"indicators,omitempty"`
}

// PatternRecord is one stored embedding + metadata fact about a historical
// PR, review, or reviewer. Records are written once at ingest time and only
// read afterwards; Similarity is filled in at retrieval.
type PatternRecord struct {
	ID         string      `json:"id" bson:"_id"`
	Repository string      `json:"repository" bson:"repository"`
	Category   string      `json:"category" bson:"category"`
	Reviewer   string      `json:"reviewer,omitempty" bson:"reviewer,omitempty"`
	Reviewers  []string    `json:"reviewers,omitempty" bson:"reviewers,omitempty"`
	Scale      ChangeScale `json:"scale,omitempty" bson:"scale,omitempty"`
	Complexity Complexity  `json:"complexity,omitempty" bson:"complexity,omitempty"`
	Indicators []string    `json:"indicators,omitempty" bson:"indicators,omitempty"`
	// Expertise holds the per-category review experience counters of a
	// reviewer record.
	Expertise    map[string]int `json:"expertise,omitempty" bson:"expertise,omitempty"`
	TotalReviews int            `json:"totalReviews,omitempty" bson:"total_reviews,omitempty"`
	Document     string         `json:"document,omitempty" bson:"document,omitempty"`
	Embedding    []float32      `json:"-" bson:"embedding,omitempty"`
	Similarity   float64        `json:"similarity,omitempty" bson:"similarity,omitempty"`
}

// Candidate is one of the exactly-three review priority suggestions returned
// per PR.
type Candidate struct {
	Title         string        `json:"title"`
	PriorityLevel PriorityLevel `json:"priority_level"`
	Reason        string        `json:"reason"`
	RelatedFiles  []string      `json:"related_files,omitempty"`
}

// SchemaValid reports whether the candidate satisfies the output contract:
// non-empty title and reason, level within the enum.
func (c Candidate) SchemaValid() bool {
	return c.Title != "" && c.Reason != "" && c.PriorityLevel.Valid()
}

// ReviewerRationale is the supporting evidence behind one recommendation.
type ReviewerRationale struct {
	SimilarPRsReviewed int      `json:"similar_prs_reviewed"`
	AvgSimilarity      float64  `json:"avg_similarity"`
	ExpertiseAreas     []string `json:"expertise_areas"`
	TotalReviews       int      `json:"total_reviews"`
	Summary            string   `json:"summary,omitempty"`
}

// ReviewerRecommendation is one ranked reviewer suggestion.
type ReviewerRecommendation struct {
	Username  string            `json:"reviewer"`
	Email     string            `json:"email,omitempty"`
	Score     float64           `json:"score"`
	Rationale ReviewerRationale `json:"rationale"`
}

// ConventionRules selects the naming convention expected per identifier kind.
// Empty fields are not checked.
type ConventionRules struct {
	FileNames     string `json:"file_names,omitempty"`
	FunctionNames string `json:"function_names,omitempty"`
	VariableNames string `json:"variable_names,omitempty"`
	ClassNames    string `json:"class_names,omitempty"`
	ConstantNames string `json:"constant_names,omitempty"`
}

// Empty reports whether no convention is configured at all.
func (r ConventionRules) Empty() bool {
	return r.FileNames == "" && r.FunctionNames == "" && r.VariableNames == "" &&
		r.ClassNames == "" && r.ConstantNames == ""
}
