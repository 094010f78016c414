package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/glorycast/shekelz/internal/cashout"
)

// RegisterCashOutRoutes wires the cash-out workflow endpoints.
func RegisterCashOutRoutes(r fiber.Router, h *cashout.Handler, rateLimit fiber.Handler) {
	r.Get("/accounts/:accountId/cashout/eligibility", h.Eligibility)
	r.Post("/accounts/:accountId/cashout", rateLimit, h.Request)
	r.Get("/accounts/:accountId/cashouts", h.List)
	r.Post("/cashouts/:requestId/callback", h.Callback)
}
