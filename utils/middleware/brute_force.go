package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/utils/cache"
	"github.com/biblio-app/biblio-api/utils/response"
)

// BruteForceProtection throttles repeated failed logins per client IP
// using Redis counters with progressive lockouts.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

// CheckLockout rejects requests from IPs that are currently locked out
func (b *BruteForceProtection) CheckLockout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		lockKey := fmt.Sprintf("login:lock:%s", ip)

		locked, err := b.redisCache.Exists(c.UserContext(), lockKey)
		if err != nil {
			// Redis being down must not lock everyone out of login
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(c.UserContext(), lockKey)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailure counts a failed login and applies a progressive lockout.
// Counters live in a 15 minute window.
func (b *BruteForceProtection) RecordFailure(c *fiber.Ctx, ip string) error {
	ctx := c.UserContext()
	attemptKey := fmt.Sprintf("login:attempts:%s", ip)
	lockKey := fmt.Sprintf("login:lock:%s", ip)

	attempts, err := b.redisCache.Increment(ctx, attemptKey)
	if err != nil {
		return nil
	}

	if attempts == 1 {
		b.redisCache.Expire(ctx, attemptKey, 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = 1 * time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return nil
	}

	return b.redisCache.Set(ctx, lockKey, "locked", lockDuration)
}

// RecordSuccess clears the failure counter and any lock after a good login
func (b *BruteForceProtection) RecordSuccess(c *fiber.Ctx, ip string) error {
	ctx := c.UserContext()
	b.redisCache.Delete(ctx, fmt.Sprintf("login:attempts:%s", ip))
	b.redisCache.Delete(ctx, fmt.Sprintf("login:lock:%s", ip))
	return nil
}

// ClearAttempts manually clears attempts for an IP (admin function)
func (b *BruteForceProtection) ClearAttempts(c *fiber.Ctx, ip string) error {
	return b.RecordSuccess(c, ip)
}
