package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"jobmail/models"
	"jobmail/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// AccessCookie carries the unlock token
	AccessCookie = "jobmail_unlock"
	// HeaderAccessPIN lets API clients authorize a single request
	HeaderAccessPIN = "X-Access-PIN"

	unlockSubject = "unlock"
)

// PINSource returns the configured access PIN
type PINSource interface {
	Get(key string) string
}

// VerifyPIN accepts anything when configured is empty, otherwise only an exact match
func VerifyPIN(configured, submitted string) error {
	if configured == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) != 1 {
		return fmt.Errorf("%w: invalid PIN", utils.ErrAuthorization)
	}
	return nil
}

// AccessGuard gates every mutating route behind the access PIN
type AccessGuard struct {
	settings PINSource
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAccessGuard creates a guard. An empty secret is replaced by random bytes,
// so unlock tokens do not survive a restart.
func NewAccessGuard(settings PINSource, secret string, ttl time.Duration) *AccessGuard {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate access secret: %v", err))
		}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AccessGuard{
		settings: settings,
		secret:   key,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Enabled reports whether a PIN is configured
func (g *AccessGuard) Enabled() bool {
	return g.settings.Get(models.KeyAccessPIN) != ""
}

// Verify checks pin against the current settings
func (g *AccessGuard) Verify(pin string) error {
	return VerifyPIN(g.settings.Get(models.KeyAccessPIN), pin)
}

// Unlock verifies pin and stores an unlock token cookie
func (g *AccessGuard) Unlock(c *fiber.Ctx, pin string) error {
	if err := g.Verify(pin); err != nil {
		utils.Log.Warn("Unlock rejected from %s", c.IP())
		return err
	}
	if !g.Enabled() {
		return nil
	}

	token, err := g.issue()
	if err != nil {
		return utils.InternalServerError("Failed to create unlock token", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  g.now().Add(g.ttl),
		HTTPOnly: true,
		SameSite: "Strict",
	})
	utils.Log.Info("Unlocked from %s", c.IP())
	return nil
}

// Lock drops the unlock cookie
func (g *AccessGuard) Lock(c *fiber.Ctx) {
	c.ClearCookie(AccessCookie)
}

// Unlocked reports whether the request may use protected routes
func (g *AccessGuard) Unlocked(c *fiber.Ctx) bool {
	if !g.Enabled() {
		return true
	}
	if pin := c.Get(HeaderAccessPIN); pin != "" {
		return g.Verify(pin) == nil
	}
	if token := c.Cookies(AccessCookie); token != "" {
		return g.valid(token)
	}
	return false
}

// Require blocks locked requests: 401 JSON for API calls, a redirect to /unlock for pages
func (g *AccessGuard) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.Unlocked(c) {
			return c.Next()
		}
		if IsAPIRequest(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": utils.T(Localizer(c), "status_invalid_pin"),
			})
		}
		return c.Redirect("/unlock")
	}
}

// signingKey derives the token key from the secret and the current PIN, so
// changing the PIN invalidates every issued token.
func (g *AccessGuard) signingKey() ([]byte, error) {
	pinHash := sha256.Sum256([]byte(g.settings.Get(models.KeyAccessPIN)))
	r := hkdf.New(sha256.New, g.secret, pinHash[:], []byte("jobmail unlock token"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (g *AccessGuard) issue() (string, error) {
	key, err := g.signingKey()
	if err != nil {
		return "", err
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   unlockSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (g *AccessGuard) valid(token string) bool {
	key, err := g.signingKey()
	if err != nil {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
	if err != nil || !parsed.Valid {
		utils.Log.Debug("Unlock token rejected: %v", err)
		return false
	}
	return claims.Subject == unlockSubject
}

// IsAPIRequest reports whether the caller expects JSON rather than a page
func IsAPIRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}
	if c.Get("HX-Request") != "" {
		return true
	}
	return strings.HasPrefix(c.Path(), "/api")
}
