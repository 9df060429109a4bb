package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/service"
)

// AssistHandler wires HTTP → AssistService: title suggestion, PR summary,
// and comment softening.
type AssistHandler struct {
	svc *service.AssistService
	src service.PRSource
}

func NewAssistHandler(svc *service.AssistService, src service.PRSource) *AssistHandler {
	return &AssistHandler{svc: svc, src: src}
}

// Register mounts the assist endpoints on the given router group.
func (h *AssistHandler) Register(r fiber.Router) {
	r.Post("/pull_requests/title", h.suggestTitle)
	r.Post("/pull_requests/summary", h.summarize)
	r.Post("/review/cushion", h.cushion)
}

func (h *AssistHandler) suggestTitle(c *fiber.Ctx) error {
	var ref prRef
	if err := c.BodyParser(&ref); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	prep, err := loadPreparation(c, h.src, ref)
	if err != nil {
		return err
	}

	title, err := h.svc.SuggestTitle(c.UserContext(), prep)
	if err != nil {
		if errors.Is(err, service.ErrNoChangedFiles) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "pull request has no commits or changed files")
		}
		log.Printf("Title suggestion failed for repo %d: %v", ref.RepoID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "title suggestion failed")
	}

	return c.JSON(fiber.Map{"result": title})
}

func (h *AssistHandler) summarize(c *fiber.Ctx) error {
	var ref prRef
	if err := c.BodyParser(&ref); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	prep, err := loadPreparation(c, h.src, ref)
	if err != nil {
		return err
	}

	summary, err := h.svc.Summarize(c.UserContext(), prep)
	if err != nil {
		if errors.Is(err, service.ErrNoChangedFiles) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "pull request has no changed files")
		}
		log.Printf("Summary generation failed for repo %d: %v", ref.RepoID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "summary generation failed")
	}

	return c.JSON(fiber.Map{"result": summary})
}

func (h *AssistHandler) cushion(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	softened, err := h.svc.Cushion(c.UserContext(), req.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyComment) {
			return fiber.NewError(fiber.StatusBadRequest, "content is required")
		}
		log.Printf("Comment rephrasing failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "comment rephrasing failed")
	}

	return c.JSON(fiber.Map{"content": softened})
}
