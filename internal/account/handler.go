package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler builds an account HTTP handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	DisplayName      string `json:"display_name"`
	Verified         bool   `json:"verified"`
	PayoutAccountRef string `json:"payout_account_ref"`
	Balance          int64  `json:"balance"`
}

type accountResponse struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Balance          int64  `json:"balance"`
	Verified         bool   `json:"verified"`
	PayoutAccountRef string `json:"payout_account_ref,omitempty"`
}

// Create provisions an account record.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct := Account{
		ID:               uuid.NewString(),
		DisplayName:      req.DisplayName,
		Balance:          req.Balance,
		Verified:         req.Verified,
		PayoutAccountRef: req.PayoutAccountRef,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.store.Create(c.UserContext(), acct); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(accountResponse{
		ID:               acct.ID,
		DisplayName:      acct.DisplayName,
		Balance:          acct.Balance,
		Verified:         acct.Verified,
		PayoutAccountRef: acct.PayoutAccountRef,
	})
}

// Balance returns the current Shekelz balance for an account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	acct, err := h.store.Get(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": acct.ID,
		"balance":    acct.Balance,
		"timestamp":  time.Now().UTC(),
	})
}
