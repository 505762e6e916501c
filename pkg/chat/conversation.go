package chat

import (
	"sync"
	"time"

	"deep-research-be/pkg/llm"
	"deep-research-be/pkg/research/progress"
)

// Agent names used for routing and handoffs.
const (
	AgentTriage      = "Triage Agent"
	AgentFAQ         = "FAQ Agent"
	AgentSeatBooking = "Seat Booking Agent"
)

// AirlineContext carries the state the support tools read and write.
type AirlineContext struct {
	PassengerName      string `json:"passenger_name,omitempty"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	SeatNumber         string `json:"seat_number,omitempty"`
	FlightNumber       string `json:"flight_number,omitempty"`
}

// Conversation is one multi-turn support session. The engine is the only
// writer; its progress log is tailed by the transport like a research log.
type Conversation struct {
	ID           string
	CurrentAgent string
	Context      AirlineContext
	History      []llm.Message
	Log          *progress.Log
	CreatedAt    time.Time

	// One turn at a time per conversation.
	Mu sync.Mutex
}
