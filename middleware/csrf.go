package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
)

// CSRFConfig holds CSRF protection configuration
type CSRFConfig struct {
	TokenLength  int
	CookieName   string
	HeaderName   string
	FormField    string
	ContextKey   string
	CookieMaxAge int
	Skipper      func(*fiber.Ctx) bool
}

// DefaultCSRFConfig returns default CSRF configuration
func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		TokenLength:  32,
		CookieName:   "csrf_token",
		HeaderName:   "X-CSRF-Token",
		FormField:    "_csrf",
		ContextKey:   "csrf",
		CookieMaxAge: 3600 * 12,
	}
}

// CSRFProtection is a double-submit check: safe requests get a token cookie
// (exposed to templates through Locals), unsafe ones must echo it in the
// header or a form field.
func CSRFProtection(config ...CSRFConfig) fiber.Handler {
	cfg := DefaultCSRFConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skipper != nil && cfg.Skipper(c) {
			return c.Next()
		}

		cookieToken := c.Cookies(cfg.CookieName)

		if c.Method() == fiber.MethodGet ||
			c.Method() == fiber.MethodHead ||
			c.Method() == fiber.MethodOptions {
			if cookieToken == "" {
				GenerateCSRFToken(c, cfg)
			} else {
				c.Locals(cfg.ContextKey, cookieToken)
			}
			return c.Next()
		}

		submitted := c.Get(cfg.HeaderName)
		if submitted == "" {
			submitted = c.FormValue(cfg.FormField)
		}

		if cookieToken == "" || submitted == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "CSRF token missing",
			})
		}
		if !tokensEqual(cookieToken, submitted) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "CSRF token mismatch",
			})
		}

		c.Locals(cfg.ContextKey, cookieToken)
		return c.Next()
	}
}

// GenerateCSRFToken generates a new CSRF token and sets it in a cookie
func GenerateCSRFToken(c *fiber.Ctx, config ...CSRFConfig) string {
	cfg := DefaultCSRFConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	token := generateToken(cfg.TokenLength)

	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cfg.CookieMaxAge,
		HTTPOnly: true,
		SameSite: "Strict",
	})
	c.Locals(cfg.ContextKey, token)

	return token
}

func generateToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}

// tokensEqual performs constant-time comparison of tokens
func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
