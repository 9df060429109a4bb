package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	patternDB *mongo.Client
	prStore   *redis.Client
}

func NewHealthHandler(patternDB *mongo.Client, prStore *redis.Client) *HealthHandler {
	return &HealthHandler{
		patternDB: patternDB,
		prStore:   prStore,
	}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "ok",
		"deps": fiber.Map{
			"patterns": h.checkMongo(c),
			"prs":      h.checkRedis(c),
		},
	}

	return c.JSON(status)
}

func (h *HealthHandler) checkMongo(c *fiber.Ctx) string {
	if h.patternDB == nil {
		return "not_configured"
	}
	if err := h.patternDB.Ping(c.UserContext(), nil); err != nil {
		return "error"
	}
	return "connected"
}

func (h *HealthHandler) checkRedis(c *fiber.Ctx) string {
	if h.prStore == nil {
		return "not_configured"
	}
	if err := h.prStore.Ping(c.UserContext()).Err(); err != nil {
		return "error"
	}
	return "connected"
}
