package dto

import (
	"deep-research-be/pkg/chat"
	"deep-research-be/pkg/research/progress"
)

type StartConversationResponse struct {
	ConversationId string `json:"conversation_id"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	ConversationId string `json:"conversation_id"`
	Reply          string `json:"reply"`
	CurrentAgent   string `json:"current_agent"`
}

type ConversationSnapshotResponse struct {
	ConversationId string                  `json:"conversation_id"`
	CurrentAgent   string                  `json:"current_agent"`
	Context        chat.AirlineContext     `json:"context"`
	Updates        []progress.UpdateRecord `json:"updates"`
}
