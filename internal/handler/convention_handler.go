package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/service"
)

// ConventionHandler wires HTTP → ConventionService.
type ConventionHandler struct {
	svc *service.ConventionService
	src service.PRSource
}

func NewConventionHandler(svc *service.ConventionService, src service.PRSource) *ConventionHandler {
	return &ConventionHandler{svc: svc, src: src}
}

// Register mounts POST /coding-convention/check on the given router group.
func (h *ConventionHandler) Register(r fiber.Router) {
	r.Post("/coding-convention/check", h.check)
}

func (h *ConventionHandler) check(c *fiber.Ctx) error {
	var req struct {
		RepoID int64                  `json:"repo_id"`
		Source string                 `json:"source"`
		Target string                 `json:"target"`
		Rules  models.ConventionRules `json:"rules"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Rules.Empty() {
		return fiber.NewError(fiber.StatusBadRequest, "at least one convention rule is required")
	}

	prep, err := loadPreparation(c, h.src, prRef{RepoID: req.RepoID, Source: req.Source, Target: req.Target})
	if err != nil {
		return err
	}

	result, err := h.svc.Analyze(c.UserContext(), req.Rules, prep.Files)
	if err != nil {
		if errors.Is(err, service.ErrNoConventionRules) {
			return fiber.NewError(fiber.StatusBadRequest, "at least one convention rule is required")
		}
		log.Printf("Convention check failed for repo %d: %v", req.RepoID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "convention check failed")
	}

	return c.JSON(fiber.Map{"result": result})
}
