package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ottereview/ottereview-ai/internal/service"
)

func RegisterRoutes(app *fiber.App,
	prioritySvc *service.PriorityService,
	reviewerSvc *service.ReviewerService,
	conventionSvc *service.ConventionService,
	ingestSvc *service.IngestService,
	assistSvc *service.AssistService,
	prSource service.PRSource,
) {

	ai := app.Group("/ai")
	NewPriorityHandler(prioritySvc, prSource).Register(ai)
	NewReviewerHandler(reviewerSvc, prSource).Register(ai)
	NewConventionHandler(conventionSvc, prSource).Register(ai)
	NewIngestHandler(ingestSvc).Register(ai)
	NewAssistHandler(assistSvc, prSource).Register(ai)
}
