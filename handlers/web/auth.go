package web

import (
	"errors"
	"jobmail/middleware"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves the PIN gate
type AuthHandler struct {
	guard *middleware.AccessGuard
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(guard *middleware.AccessGuard) *AuthHandler {
	return &AuthHandler{guard: guard}
}

// ShowUnlock renders the PIN page, or goes straight to the app when already unlocked
func (h *AuthHandler) ShowUnlock(c *fiber.Ctx) error {
	if h.guard.Unlocked(c) {
		return c.Redirect("/")
	}
	return c.Render("unlock", pageData(c, h.guard, nil))
}

// HandleUnlock checks the submitted PIN
func (h *AuthHandler) HandleUnlock(c *fiber.Ctx) error {
	err := h.guard.Unlock(c, c.FormValue("pin"))
	if errors.Is(err, utils.ErrAuthorization) {
		return c.Status(fiber.StatusUnauthorized).Render("unlock", pageData(c, h.guard, fiber.Map{
			"Error": t(c, "status_invalid_pin"),
		}))
	}
	if err != nil {
		return err
	}
	return c.Redirect("/")
}

// HandleLock forgets the unlock token
func (h *AuthHandler) HandleLock(c *fiber.Ctx) error {
	h.guard.Lock(c)
	return c.Redirect("/unlock")
}
