package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/service"
)

// PriorityHandler wires HTTP → PriorityService.
type PriorityHandler struct {
	svc *service.PriorityService
	src service.PRSource
}

func NewPriorityHandler(svc *service.PriorityService, src service.PRSource) *PriorityHandler {
	return &PriorityHandler{svc: svc, src: src}
}

// Register mounts POST /priority/recommend on the given router group.
func (h *PriorityHandler) Register(r fiber.Router) {
	r.Post("/priority/recommend", h.recommend)
}

func (h *PriorityHandler) recommend(c *fiber.Ctx) error {
	var ref prRef
	if err := c.BodyParser(&ref); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	prep, err := loadPreparation(c, h.src, ref)
	if err != nil {
		return err
	}

	result, err := h.svc.Recommend(c.UserContext(), prep)
	if err != nil {
		if errors.Is(err, service.ErrNoChangedFiles) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "pull request has no changed files")
		}
		log.Printf("Priority recommendation failed for repo %d: %v", ref.RepoID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "priority recommendation failed")
	}

	return c.JSON(fiber.Map{"result": result})
}
