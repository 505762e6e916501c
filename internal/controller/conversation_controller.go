// FILE: internal/controller/conversation_controller.go
package controller

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"deep-research-be/internal/dto"
	"deep-research-be/internal/pkg/serverutils"
	"deep-research-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Poll(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversation/v1")
	h.Post("", c.Start)
	h.Post(":id/message", c.SendMessage)
	h.Get(":id", c.Show)
	h.Get(":id/poll", c.Poll)
	h.Get(":id/stream", c.Stream)
}

func (c *conversationController) Start(ctx *fiber.Ctx) error {
	res, err := c.conversationService.Create()
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Conversation started", res))
}

func (c *conversationController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.SendMessage(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "conversation not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Message handled", res))
}

func (c *conversationController) Poll(ctx *fiber.Ctx) error {
	cursor := ctx.QueryInt("cursor", 0)

	res, err := c.conversationService.Poll(ctx.Params("id"), cursor)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "conversation not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Updates", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	res, err := c.conversationService.Snapshot(ctx.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "conversation not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation", res))
}

// Stream tails the conversation log over SSE. Conversations never close
// their log, so the tail runs until the client disconnects.
func (c *conversationController) Stream(ctx *fiber.Ctx) error {
	conv, found := c.conversationService.Conversation(ctx.Params("id"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	log := conv.Log
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		cursor := 0
		for {
			records, next := log.ReadFrom(cursor)
			cursor = next

			for _, record := range records {
				if !writeSSERecord(w, record) {
					return
				}
			}

			if len(records) == 0 {
				// Heartbeat comment keeps intermediaries from
				// timing out the idle stream.
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				if w.Flush() != nil {
					return
				}
				time.Sleep(streamPollInterval)
			}
		}
	}))
	return nil
}
