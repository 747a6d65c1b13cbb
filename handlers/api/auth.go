package api

import (
	"jobmail/middleware"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes the PIN gate to API clients
type AuthHandler struct {
	guard *middleware.AccessGuard
}

func NewAuthHandler(guard *middleware.AccessGuard) *AuthHandler {
	return &AuthHandler{guard: guard}
}

// UnlockRequest is the body of POST /api/unlock
type UnlockRequest struct {
	PIN string `json:"pin"`
}

// HandleUnlock verifies the PIN and sets the unlock cookie
func (h *AuthHandler) HandleUnlock(c *fiber.Ctx) error {
	var req UnlockRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	if err := h.guard.Unlock(c, req.PIN); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"guarded": h.guard.Enabled(),
	})
}
