package cashout

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/glorycast/shekelz/internal/account"
)

func setupHandlerApp(t *testing.T) (*fiber.App, account.Store) {
	t.Helper()
	accounts := account.NewMemoryStore()
	svc := NewService(accounts, NewMemoryRepository(), StaticProcessor{}, nil, 2000, time.Second)
	h := NewHandler(svc)

	app := fiber.New()
	app.Get("/accounts/:accountId/cashout/eligibility", h.Eligibility)
	app.Post("/accounts/:accountId/cashout", h.Request)
	app.Post("/cashouts/:requestId/callback", h.Callback)
	return app, accounts
}

func TestHandlerRequestCashOut(t *testing.T) {
	app, accounts := setupHandlerApp(t)
	acct := newPayableAccount(t, accounts, 5_000)

	req := httptest.NewRequest(fiber.MethodPost, "/accounts/"+acct.ID+"/cashout", strings.NewReader(`{"amount":3000}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != string(StatusProcessing) {
		t.Fatalf("expected processing, got %s", out.Status)
	}
}

func TestHandlerRequestCashOutNotEligible(t *testing.T) {
	app, accounts := setupHandlerApp(t)
	acct := seedUnverified(t, accounts)

	req := httptest.NewRequest(fiber.MethodPost, "/accounts/"+acct.ID+"/cashout", strings.NewReader(`{"amount":3000}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "User not verified") {
		t.Fatalf("expected verification reason, got %s", body)
	}
}

func TestHandlerEligibility(t *testing.T) {
	app, accounts := setupHandlerApp(t)
	acct := newPayableAccount(t, accounts, 5_000)

	req := httptest.NewRequest(fiber.MethodGet, "/accounts/"+acct.ID+"/cashout/eligibility", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out eligibilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Eligible || out.Balance != 5_000 || out.MinAmount != 2_000 {
		t.Fatalf("unexpected eligibility: %+v", out)
	}
}

func seedUnverified(t *testing.T, accounts account.Store) account.Account {
	t.Helper()
	acct := account.Account{ID: uuid.NewString(), Balance: 5_000, CreatedAt: time.Now().UTC()}
	if err := accounts.Create(context.Background(), acct); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}
