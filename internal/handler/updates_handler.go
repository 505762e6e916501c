// FILE: internal/handler/updates_handler.go
package handler

import (
	"deep-research-be/internal/pkg/logger"
	"deep-research-be/internal/service"
	internalWS "deep-research-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UpdatesHandler upgrades websocket clients onto the hub so they
// receive progress records pushed through the update bus.
type UpdatesHandler struct {
	researchService     service.IResearchService
	conversationService service.IConversationService
	hub                 *internalWS.Hub
	logger              logger.ILogger
}

func NewUpdatesHandler(researchService service.IResearchService, conversationService service.IConversationService, hub *internalWS.Hub, log logger.ILogger) *UpdatesHandler {
	return &UpdatesHandler{
		researchService:     researchService,
		conversationService: conversationService,
		hub:                 hub,
		logger:              log,
	}
}

// ServeResearchWs attaches a client to a research session's update feed.
func (h *UpdatesHandler) ServeResearchWs(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, found := h.researchService.Session(sessionID); !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "research session not found"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("UpdatesHandler", "Starting research WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("UpdatesHandler", "Research WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// ServeConversationWs attaches a client to a conversation's update feed.
// Conversations share the hub; their ids never collide with session ids.
func (h *UpdatesHandler) ServeConversationWs(c *fiber.Ctx) error {
	conversationID := c.Params("id")
	if _, found := h.conversationService.Conversation(conversationID); !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "conversation not found"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, conversationID)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *UpdatesHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/research/:id", h.ServeResearchWs)
	router.Get("/ws/conversation/:id", h.ServeConversationWs)
}
