package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/glorycast/shekelz/internal/account"
	"github.com/glorycast/shekelz/internal/cashout"
	"github.com/glorycast/shekelz/internal/config"
	"github.com/glorycast/shekelz/internal/gift"
	"github.com/glorycast/shekelz/internal/middleware"
	"github.com/glorycast/shekelz/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Processor cashout.Processor
	Logger    *slog.Logger
}

// Services exposes the wired domain services so the caller can run
// background work (the cash-out recovery sweep) against the same instances
// the handlers use.
type Services struct {
	Accounts account.Store
	Gifts    *gift.Service
	CashOuts *cashout.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Services, error) {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return Services{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return Services{}, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores
	var accounts account.Store
	var giftRepo gift.Repository
	var cashOutRepo cashout.Repository
	if d.DB != nil {
		accounts = account.NewPostgresStore(d.DB)
		giftRepo = gift.NewPostgresRepository(d.DB)
		cashOutRepo = cashout.NewPostgresRepository(d.DB)
	} else {
		accounts = account.NewMemoryStore()
		giftRepo = gift.NewMemoryRepository()
		cashOutRepo = cashout.NewMemoryRepository()
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	giftSvc := gift.NewService(accounts, giftRepo, notifier)
	cashOutSvc := cashout.NewService(accounts, cashOutRepo, d.Processor, notifier, d.Cfg.MinCashOut, d.Cfg.TransferTimeout)

	accountHandler := account.NewHandler(accounts)
	giftHandler := gift.NewHandler(giftSvc)
	cashOutHandler := cashout.NewHandler(cashOutSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)
	RegisterGiftRoutes(api, giftHandler)
	RegisterCashOutRoutes(api, cashOutHandler, middleware.CashOutRateLimit(d.Cache, 3))

	return Services{Accounts: accounts, Gifts: giftSvc, CashOuts: cashOutSvc}, nil
}
