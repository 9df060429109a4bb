package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/service"
)

// IngestHandler wires HTTP → IngestService. The backend posts every merged
// PR here so its patterns become retrievable for future recommendations.
type IngestHandler struct {
	svc *service.IngestService
}

func NewIngestHandler(svc *service.IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Register mounts POST /vector-db/store on the given router group.
func (h *IngestHandler) Register(r fiber.Router) {
	r.Post("/vector-db/store", h.ingest)
}

func (h *IngestHandler) ingest(c *fiber.Ctx) error {
	var pr models.PRDetail
	if err := c.BodyParser(&pr); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if pr.Repo.FullName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "repo.fullName is required")
	}

	result, err := h.svc.Ingest(c.UserContext(), &pr)
	if err != nil {
		if errors.Is(err, service.ErrNoChangedFiles) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "pull request has no changed files")
		}
		log.Printf("Ingest failed for %s #%d: %v", pr.Repo.FullName, pr.GithubPrNumber, err)
		return fiber.NewError(fiber.StatusInternalServerError, "pattern ingest failed")
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"pr_patterns":       result.PRPatterns,
		"review_patterns":   result.ReviewPatterns,
		"reviewer_patterns": result.ReviewerPatterns,
	})
}
