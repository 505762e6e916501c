// FILE: internal/service/conversation_service.go
package service

import (
	"context"
	"errors"

	"deep-research-be/internal/dto"
	"deep-research-be/internal/pkg/logger"
	"deep-research-be/pkg/chat"
	"deep-research-be/pkg/research/progress"
)

var ErrConversationNotFound = errors.New("conversation not found")

type IConversationService interface {
	Create() (*dto.StartConversationResponse, error)
	SendMessage(ctx context.Context, conversationID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	Poll(conversationID string, cursor int) (*dto.PollUpdatesResponse, error)
	Snapshot(conversationID string) (*dto.ConversationSnapshotResponse, error)
	Conversation(conversationID string) (*chat.Conversation, bool)
}

type conversationService struct {
	registry  *chat.Registry
	engine    *chat.Engine
	publisher IPublisherService
	sysLogger logger.ILogger
}

func NewConversationService(registry *chat.Registry, engine *chat.Engine, publisher IPublisherService, sysLogger logger.ILogger) IConversationService {
	return &conversationService{
		registry:  registry,
		engine:    engine,
		publisher: publisher,
		sysLogger: sysLogger,
	}
}

func (s *conversationService) Create() (*dto.StartConversationResponse, error) {
	conv := s.registry.Create()

	conv.Log.SetNotifier(func(record progress.UpdateRecord) {
		s.publisher.PublishUpdate(conv.ID, record)
	})

	s.sysLogger.Info("Conversation", "Conversation started", map[string]interface{}{
		"conversation_id": conv.ID,
	})

	return &dto.StartConversationResponse{ConversationId: conv.ID}, nil
}

// SendMessage runs a full agent turn synchronously; the reply is both
// returned and appended to the conversation log.
func (s *conversationService) SendMessage(ctx context.Context, conversationID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	conv, found := s.registry.Get(conversationID)
	if !found {
		return nil, ErrConversationNotFound
	}

	reply, err := s.engine.HandleMessage(ctx, conv, req.Message)
	if err != nil {
		s.sysLogger.Error("Conversation", "Turn failed", map[string]interface{}{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
		return nil, err
	}

	return &dto.SendMessageResponse{
		ConversationId: conv.ID,
		Reply:          reply,
		CurrentAgent:   conv.CurrentAgent,
	}, nil
}

func (s *conversationService) Poll(conversationID string, cursor int) (*dto.PollUpdatesResponse, error) {
	conv, found := s.registry.Get(conversationID)
	if !found {
		return nil, ErrConversationNotFound
	}

	records, next := conv.Log.ReadFrom(cursor)
	return &dto.PollUpdatesResponse{
		Updates: records,
		Cursor:  next,
	}, nil
}

func (s *conversationService) Snapshot(conversationID string) (*dto.ConversationSnapshotResponse, error) {
	conv, found := s.registry.Get(conversationID)
	if !found {
		return nil, ErrConversationNotFound
	}

	conv.Mu.Lock()
	currentAgent := conv.CurrentAgent
	airlineContext := conv.Context
	conv.Mu.Unlock()

	records, _ := conv.Log.ReadFrom(0)
	return &dto.ConversationSnapshotResponse{
		ConversationId: conv.ID,
		CurrentAgent:   currentAgent,
		Context:        airlineContext,
		Updates:        records,
	}, nil
}

func (s *conversationService) Conversation(conversationID string) (*chat.Conversation, bool) {
	return s.registry.Get(conversationID)
}
