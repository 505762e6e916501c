package dto

import "deep-research-be/pkg/research/progress"

type StartResearchRequest struct {
	Query   string `json:"query" validate:"required"`
	Variant string `json:"variant" validate:"omitempty,oneof=general financial"`
}

type StartResearchResponse struct {
	ResearchId string `json:"research_id"`
}

type PollUpdatesResponse struct {
	Updates []progress.UpdateRecord `json:"updates"`
	Cursor  int                     `json:"cursor"`
}

type SessionSnapshotResponse struct {
	ResearchId        string   `json:"research_id"`
	Variant           string   `json:"variant"`
	Query             string   `json:"query"`
	Stage             string   `json:"stage"`
	ShortSummary      string   `json:"short_summary,omitempty"`
	MarkdownReport    string   `json:"markdown_report,omitempty"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	Verified          *bool    `json:"verified,omitempty"`
	Issues            string   `json:"issues,omitempty"`
}
