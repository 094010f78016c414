package cashout

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/glorycast/shekelz/internal/account"
)

// Handler exposes cash-out HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a cash-out HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type eligibilityResponse struct {
	Eligible  bool   `json:"eligible"`
	Balance   int64  `json:"balance"`
	MinAmount int64  `json:"min_amount"`
	Reason    string `json:"reason,omitempty"`
}

// Eligibility reports whether the account may request a cash-out.
func (h *Handler) Eligibility(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	elig := h.service.CheckEligibility(c.UserContext(), accountID)
	return c.Status(http.StatusOK).JSON(eligibilityResponse{
		Eligible:  elig.Eligible,
		Balance:   elig.Balance,
		MinAmount: elig.MinAmount,
		Reason:    elig.Reason,
	})
}

type requestCashOutBody struct {
	Amount int64 `json:"amount"`
}

type requestResponse struct {
	ID              string     `json:"id"`
	AccountID       string     `json:"account_id"`
	Amount          int64      `json:"amount"`
	CashAmountCents int64      `json:"cash_amount_cents"`
	Status          string     `json:"status"`
	TransferRef     string     `json:"transfer_ref,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

// Request creates a cash-out request and runs it to processing or failed.
func (h *Handler) Request(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	var body requestCashOutBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	req, err := h.service.RequestCashOut(c.UserContext(), accountID, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotEligible):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, account.ErrInsufficientBalance):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrTransferFailed):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toRequestResponse(req))
}

// List returns the account's cash-out history.
func (h *Handler) List(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	requests, err := h.service.ListByAccount(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"cash_outs": out})
}

type callbackBody struct {
	TransferRef string `json:"transfer_ref"`
}

// Callback handles the processor's settlement notification.
func (h *Handler) Callback(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	var body callbackBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.service.CompleteTransfer(c.UserContext(), requestID, body.TransferRef)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": string(StatusCompleted)})
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotProcessing):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

func toRequestResponse(req Request) requestResponse {
	return requestResponse{
		ID:              req.ID,
		AccountID:       req.AccountID,
		Amount:          req.Amount,
		CashAmountCents: req.CashAmountCents,
		Status:          string(req.Status),
		TransferRef:     req.TransferRef,
		ErrorMessage:    req.ErrorMessage,
		CreatedAt:       req.CreatedAt,
		ProcessedAt:     req.ProcessedAt,
	}
}
