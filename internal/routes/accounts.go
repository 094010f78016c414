package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/glorycast/shekelz/internal/account"
)

// RegisterAccountRoutes wires account-related endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId/balance", h.Balance)
}
