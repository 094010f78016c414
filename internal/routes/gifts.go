package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/glorycast/shekelz/internal/gift"
)

// RegisterGiftRoutes wires gift settlement, the transaction feed, and
// thank-you dispatch.
func RegisterGiftRoutes(r fiber.Router, h *gift.Handler) {
	r.Post("/gifts", h.Send)
	r.Post("/gifts/:giftId/thank-you", h.ThankYou)
	r.Get("/accounts/:accountId/transactions", h.Transactions)
}
