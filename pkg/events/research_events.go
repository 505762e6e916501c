package events

import "time"

const (
	TypeResearchCompleted = "RESEARCH_COMPLETED"
)

// NewResearchCompletedEvent announces a finished research run to
// external consumers on the event bus.
func NewResearchCompletedEvent(sessionId, variant, query, shortSummary string) Event {
	return BaseEvent{
		Type: TypeResearchCompleted,
		Data: map[string]interface{}{
			"session_id":    sessionId,
			"variant":       variant,
			"query":         query,
			"short_summary": shortSummary,
		},
		OccurredAt: time.Now(),
	}
}
