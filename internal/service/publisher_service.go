// FILE: internal/service/publisher_service.go
package service

import (
	"encoding/json"
	"log"

	"deep-research-be/pkg/research/progress"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// UpdateEnvelope carries one progress record plus its session on the bus.
type UpdateEnvelope struct {
	SessionID string                `json:"session_id"`
	Update    progress.UpdateRecord `json:"update"`
}

type IPublisherService interface {
	PublishUpdate(sessionID string, record progress.UpdateRecord)
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// PublishUpdate pushes a progress record onto the in-process bus.
// Delivery is best effort; the progress log itself stays authoritative.
func (ps *publisherService) PublishUpdate(sessionID string, record progress.UpdateRecord) {
	payload, err := json.Marshal(UpdateEnvelope{
		SessionID: sessionID,
		Update:    record,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal update envelope: %v", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := ps.pubSub.Publish(ps.topicName, msg); err != nil {
		log.Printf("[ERROR] Failed to publish update for session %s: %v", sessionID, err)
	}
}
