package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// CashOutRateLimit caps cash-out attempts per account per minute using
// Redis if available. Two back-to-back requests draining one balance is
// already handled by the conditional debit; this just keeps a stuck client
// from hammering the processor.
func CashOutRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 3
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		accountID := c.Params("accountId")
		if accountID == "" {
			accountID = c.IP()
		}
		key := "rl:cashout:" + accountID
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many cash out attempts, try again later")
		}
		return c.Next()
	}
}
