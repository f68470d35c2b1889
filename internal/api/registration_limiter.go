package api

import (
	"sync"
	"time"

	"github.com/fipacademy/cronograma/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	registrationRate     = rate.Limit(1.0 / 6)
	registrationBurst    = 5
	clientLimiterIdleTTL = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRateLimiter keeps one token bucket per client key.
type clientRateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

func newClientRateLimiter(limit rate.Limit, burst int) *clientRateLimiter {
	return &clientRateLimiter{
		limit:   limit,
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

func (limiter *clientRateLimiter) allow(key string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for other, client := range limiter.clients {
		if now.Sub(client.lastSeen) > clientLimiterIdleTTL {
			delete(limiter.clients, other)
		}
	}

	client, ok := limiter.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// RegistrationRateLimit throttles registration attempts per client IP.
func (handler *Handler) RegistrationRateLimit(c *fiber.Ctx) error {
	if handler.registrationLimiter.allow(requestLimiterKey(c), handler.now()) {
		return c.Next()
	}

	handler.metrics.Registration(metrics.OutcomeThrottled)
	handler.logger.Warn("registration throttled", "ip", c.IP(), "request_id", requestID(c))
	if wantsJSON(c) || isHTMX(c) {
		return apiError(c, fiber.StatusTooManyRequests, msgTooManyRequests)
	}
	handler.setFlashCookie(c, FlashPayload{AuthError: msgTooManyRequests})
	return c.Redirect("/cronograma/registro", fiber.StatusSeeOther)
}
