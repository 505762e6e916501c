package store

import (
	"time"

	"deep-research-be/pkg/research/progress"
)

// SearchPlanItem is a single planned lookup produced by the planner.
type SearchPlanItem struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

// SearchPlan is the ordered output of the planning stage.
type SearchPlan struct {
	Searches []SearchPlanItem `json:"searches"`
}

// Report is the structured output of the write stage.
type Report struct {
	ShortSummary      string   `json:"short_summary"`
	MarkdownReport    string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// VerificationResult is produced by the optional verify stage.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Issues   string `json:"issues"`
}

// Session is the in-memory state of one research run.
// Mutated only by its owning pipeline goroutine.
type Session struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Variant   string    `json:"variant"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`

	Plan          *SearchPlan         `json:"plan,omitempty"`
	SearchResults []string            `json:"search_results,omitempty"`
	Report        *Report             `json:"report,omitempty"`
	Verification  *VerificationResult `json:"verification,omitempty"`

	Log *progress.Log `json:"-"`
}

const (
	StageCreated   = "CREATED"
	StagePlanning  = "PLANNING"
	StageSearching = "SEARCHING"
	StageWriting   = "WRITING"
	StageVerifying = "VERIFYING"
	StageDone      = "DONE"
	StageFailed    = "FAILED"
)

// Terminal reports whether no further stage will execute.
func (s *Session) Terminal() bool {
	return s.Stage == StageDone || s.Stage == StageFailed
}
