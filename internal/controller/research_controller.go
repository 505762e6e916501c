// FILE: internal/controller/research_controller.go
package controller

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deep-research-be/internal/dto"
	"deep-research-be/internal/pkg/serverutils"
	"deep-research-be/internal/service"
	"deep-research-be/pkg/research/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// streamPollInterval is how often an SSE tail checks the log for new
// records once it has caught up.
const streamPollInterval = 500 * time.Millisecond

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Poll(ctx *fiber.Ctx) error
	StreamUpdates(ctx *fiber.Ctx) error
}

type researchController struct {
	researchService service.IResearchService
}

func NewResearchController(researchService service.IResearchService) IResearchController {
	return &researchController{
		researchService: researchService,
	}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/research/v1")
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Get(":id/poll", c.Poll)
	h.Get(":id/updates", c.StreamUpdates)
}

func (c *researchController) Start(ctx *fiber.Ctx) error {
	var req dto.StartResearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if req.Variant == "" {
		req.Variant = "general"
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.researchService.Start(&req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Research started", res))
}

func (c *researchController) Show(ctx *fiber.Ctx) error {
	res, err := c.researchService.Snapshot(ctx.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "research session not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Research session", res))
}

// Poll returns records past the caller's cursor. A known session with
// nothing new yields an empty updates list, never a 404.
func (c *researchController) Poll(ctx *fiber.Ctx) error {
	cursor := ctx.QueryInt("cursor", 0)

	res, err := c.researchService.Poll(ctx.Params("id"), cursor)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "research session not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Updates", res))
}

// StreamUpdates replays the full log over SSE, then tails it until the
// session goes terminal or the client disconnects.
func (c *researchController) StreamUpdates(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	sess, found := c.researchService.Session(sessionID)
	if !found {
		ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			fmt.Fprintf(w, "event: error\ndata: {\"message\": \"research session not found\"}\n\n")
			w.Flush()
		}))
		return nil
	}

	log := sess.Log
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

			if len(records) == 0 && log.Closed() {
				return
			}
			if len(records) == 0 {
				time.Sleep(streamPollInterval)
			}
		}
	}))
	return nil
}

// writeSSERecord emits one record as an SSE data frame. A false return
// means the client went away.
func writeSSERecord(w *bufio.Writer, record progress.UpdateRecord) bool {
	payload, err := json.Marshal(record)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	return w.Flush() == nil
}
