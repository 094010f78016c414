package gift

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/glorycast/shekelz/internal/account"
)

// Handler exposes gift HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a gift HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendRequest struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
	Type        string `json:"gift_type"`
	Anonymous   bool   `json:"is_anonymous"`
}

type giftResponse struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
	Type        string `json:"gift_type"`
	Anonymous   bool   `json:"is_anonymous"`
	Status      string `json:"status"`
}

type transactionResponse struct {
	GiftID       string    `json:"gift_id"`
	Direction    string    `json:"direction"`
	Amount       int64     `json:"amount"`
	Counterparty string    `json:"counterparty"`
	Type         string    `json:"gift_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Send settles a peer-to-peer gift.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	g, err := h.service.Send(c.UserContext(), SendInput{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Type:        Type(req.Type),
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInsufficientBalance):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(giftResponse{
		ID:          g.ID,
		SenderID:    g.SenderID,
		RecipientID: g.RecipientID,
		Amount:      g.Amount,
		Type:        string(g.Type),
		Anonymous:   g.Anonymous,
		Status:      string(g.Status),
	})
}

// Transactions returns the account's transaction feed.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	feed, err := h.service.Transactions(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]transactionResponse, 0, len(feed))
	for _, tx := range feed {
		out = append(out, transactionResponse{
			GiftID:       tx.GiftID,
			Direction:    tx.Direction,
			Amount:       tx.Amount,
			Counterparty: tx.Counterparty,
			Type:         string(tx.Type),
			CreatedAt:    tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

type thankYouRequest struct {
	AccountID string `json:"account_id"`
}

// ThankYou dispatches a thank-you notification for a received gift.
func (h *Handler) ThankYou(c *fiber.Ctx) error {
	giftID := c.Params("giftId")
	var req thankYouRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.service.SendThankYou(c.UserContext(), giftID, req.AccountID)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{"thanked": true})
	case errors.Is(err, ErrAlreadyThanked):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAnonymousGift), errors.Is(err, ErrNotRecipient):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNoSenderContact):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
