package httpapi

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// IdempotencyKeyHeader is the client-supplied idempotency header name
// (spec.md §6: "All mutating endpoints accept an optional
// X-Idempotency-Key header").
const IdempotencyKeyHeader = "X-Idempotency-Key"

// DeriveIdempotencyKey returns the caller-supplied header value, or a
// SHA-256 hash of the raw request body when the header is absent.
//
// spec.md §9 Open Questions: the source derives a fallback key from the
// current timestamp, which defeats idempotency on retries with a new
// timestamp. This implementation never does that — the fallback is always
// a hash of the body, so two genuinely identical retries collide on the
// same key.
func DeriveIdempotencyKey(c *fiber.Ctx) string {
	if key := c.Get(IdempotencyKeyHeader); key != "" {
		return key
	}

	return HashBody(c.Body())
}

// HashBody returns the hex-encoded SHA-256 digest of body.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
