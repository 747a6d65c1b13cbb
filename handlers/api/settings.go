package api

import (
	"fmt"
	"jobmail/models"
	"jobmail/storage"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler reads and updates settings over JSON
type SettingsHandler struct {
	settings *storage.SettingsStorage
}

func NewSettingsHandler(settings *storage.SettingsStorage) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings returns the current settings with secrets masked
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(h.settings.Current().Masked())
}

// UpdateSettings merges the posted keys; only keys from the default set are accepted
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var fields map[string]string
	if err := parseJSON(c, &fields); err != nil {
		return err
	}

	known := models.DefaultSettings()
	for k := range fields {
		if _, ok := known[k]; !ok {
			return errorJSON(c, fmt.Errorf("%w: unknown setting %q", utils.ErrValidation, k))
		}
	}

	if err := h.settings.Update(fields); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": t(c, "status_settings_saved"),
	})
}
