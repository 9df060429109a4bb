package models

// ChangedFile is one file entry of a PR's compare result. Field names mirror
// the backend's JSON payload, so they stay camelCase on the wire.
type ChangedFile struct {
	Filename  string `json:"filename" bson:"filename"`
	Status    string `json:"status" bson:"status"` // added, modified, deleted
	Additions int    `json:"additions" bson:"additions"`
	Deletions int    `json:"deletions" bson:"deletions"`
	Changes   int    `json:"changes,omitempty" bson:"changes,omitempty"`
	Patch     string `json:"patch,omitempty" bson:"patch,omitempty"`
}

// Changed returns additions+deletions for ranking files by change volume.
func (f ChangedFile) Changed() int {
	return f.Additions + f.Deletions
}

// Commit captures the commit fields the pipelines care about.
type Commit struct {
	SHA         string `json:"sha" bson:"sha"`
	Message     string `json:"message" bson:"message"`
	AuthorName  string `json:"authorName" bson:"author_name"`
	AuthorEmail string `json:"authorEmail" bson:"author_email"`
	Additions   int    `json:"additions,omitempty" bson:"additions,omitempty"`
	Deletions   int    `json:"deletions,omitempty" bson:"deletions,omitempty"`
}

// User identifies a platform user by their GitHub identity.
type User struct {
	ID       int64  `json:"id" bson:"id"`
	Username string `json:"githubUsername" bson:"github_username"`
	Email    string `json:"githubEmail" bson:"github_email"`
}

// Repo identifies the repository a PR belongs to.
type Repo struct {
	ID       int64  `json:"id" bson:"id"`
	FullName string `json:"fullName" bson:"full_name"`
}

// PreparationResult is the canonical PR payload the backend stages in Redis
// before a PR is opened. Every core component depends on this one shape only.
type PreparationResult struct {
	Source     string        `json:"source"`
	Target     string        `json:"target"`
	Title      string        `json:"title,omitempty"`
	Body       string        `json:"body,omitempty"`
	Commits    []Commit      `json:"commits"`
	Files      []ChangedFile `json:"files"`
	Reviewers  []User        `json:"reviewers,omitempty"`
	Author     *User         `json:"author,omitempty"`
	Repository *Repo         `json:"repository,omitempty"`
}

// AuthorNames returns the distinct commit author names of the PR, in first
// occurrence order. Used to keep commit authors out of reviewer rankings.
func (p *PreparationResult) AuthorNames() []string {
	seen := make(map[string]struct{}, len(p.Commits))
	var names []string
	for _, c := range p.Commits {
		if c.AuthorName == "" {
			continue
		}
		if _, ok := seen[c.AuthorName]; ok {
			continue
		}
		seen[c.AuthorName] = struct{}{}
		names = append(names, c.AuthorName)
	}
	if p.Author != nil && p.Author.Username != "" {
		if _, ok := seen[p.Author.Username]; !ok {
			names = append(names, p.Author.Username)
		}
	}
	return names
}

// RepositoryName returns the repository full name, or empty when the backend
// left it unset.
func (p *PreparationResult) RepositoryName() string {
	if p.Repository == nil {
		return ""
	}
	return p.Repository.FullName
}

// Review is one submitted review on a merged PR, as delivered on the ingest
// path.
type Review struct {
	Reviewer string          `json:"reviewer" bson:"reviewer"`
	State    string          `json:"state" bson:"state"` // APPROVED, CHANGES_REQUESTED, COMMENTED
	Body     string          `json:"body" bson:"body"`
	Comments []ReviewComment `json:"comments,omitempty" bson:"comments,omitempty"`
}

// ReviewComment is an inline comment attached to a review.
type ReviewComment struct {
	Path string `json:"path" bson:"path"`
	Body string `json:"body" bson:"body"`
}

// PRDetail is the merged-PR payload the backend posts for vector-store
// ingestion.
type PRDetail struct {
	ID             int64         `json:"id"`
	GithubPrNumber int           `json:"githubPrNumber"`
	Title          string        `json:"title"`
	Body           string        `json:"body,omitempty"`
	State          string        `json:"state"`
	Merged         bool          `json:"merged"`
	Base           string        `json:"base"`
	Head           string        `json:"head"`
	Author         User          `json:"author"`
	Repo           Repo          `json:"repo"`
	Files          []ChangedFile `json:"files"`
	Commits        []Commit      `json:"commits"`
	Reviewers      []User        `json:"reviewers,omitempty"`
	Reviews        []Review      `json:"reviews,omitempty"`
}
