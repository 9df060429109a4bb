package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/models"
	"github.com/ottereview/ottereview-ai/internal/repository"
	"github.com/ottereview/ottereview-ai/internal/service"
)

// prRef identifies a staged PR: the backend stages the preparation payload
// under (repo, source branch, target branch) before calling us.
type prRef struct {
	RepoID int64  `json:"repo_id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (r prRef) validate() error {
	if r.RepoID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "repo_id is required")
	}
	if r.Source == "" || r.Target == "" {
		return fiber.NewError(fiber.StatusBadRequest, "source and target branches are required")
	}
	return nil
}

// loadPreparation resolves a prRef against the staged-PR source, translating
// the not-found case into a 404.
func loadPreparation(c *fiber.Ctx, src service.PRSource, ref prRef) (*models.PreparationResult, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	prep, err := src.Preparation(c.UserContext(), ref.RepoID, ref.Source, ref.Target)
	if err != nil {
		if errors.Is(err, repository.ErrPRNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound,
				"no staged pull request for the given repository and branches")
		}
		log.Printf("Failed to load staged PR %d %s->%s: %v", ref.RepoID, ref.Source, ref.Target, err)
		return nil, fiber.NewError(fiber.StatusBadGateway, "staged PR store unavailable")
	}
	return prep, nil
}
