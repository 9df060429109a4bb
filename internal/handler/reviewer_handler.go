package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/service"
)

// ReviewerHandler wires HTTP → ReviewerService.
type ReviewerHandler struct {
	svc *service.ReviewerService
	src service.PRSource
}

func NewReviewerHandler(svc *service.ReviewerService, src service.PRSource) *ReviewerHandler {
	return &ReviewerHandler{svc: svc, src: src}
}

// Register mounts POST /reviewers/recommend on the given router group.
func (h *ReviewerHandler) Register(r fiber.Router) {
	r.Post("/reviewers/recommend", h.recommend)
}

func (h *ReviewerHandler) recommend(c *fiber.Ctx) error {
	var req struct {
		RepoID int64  `json:"repo_id"`
		Source string `json:"source"`
		Target string `json:"target"`
		Limit  int    `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	prep, err := loadPreparation(c, h.src, prRef{RepoID: req.RepoID, Source: req.Source, Target: req.Target})
	if err != nil {
		return err
	}

	recs, err := h.svc.Recommend(c.UserContext(), prep, req.Limit)
	if err != nil {
		if errors.Is(err, service.ErrNoChangedFiles) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "pull request has no changed files")
		}
		log.Printf("Reviewer recommendation failed for repo %d: %v", req.RepoID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "reviewer recommendation failed")
	}

	return c.JSON(fiber.Map{"result": fiber.Map{"reviewers": recs}})
}
