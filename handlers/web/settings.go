package web

import (
	"jobmail/middleware"
	"jobmail/models"
	"jobmail/storage"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
	futils "github.com/gofiber/fiber/v2/utils"
)

// EditableSettings are the keys the settings screen may change
var EditableSettings = []string{
	models.KeySendGridAPIKey,
	models.KeySenderEmail,
	models.KeySMTPPassword,
	models.KeySMTPServer,
	models.KeySMTPPort,
	models.KeyAccessPIN,
	models.KeyEmailBody,
}

type SettingsHandler struct {
	settings  *storage.SettingsStorage
	guard     *middleware.AccessGuard
	transport string
}

func NewSettingsHandler(settings *storage.SettingsStorage, guard *middleware.AccessGuard, transport string) *SettingsHandler {
	return &SettingsHandler{
		settings:  settings,
		guard:     guard,
		transport: transport,
	}
}

// ShowSettings renders the settings page
func (h *SettingsHandler) ShowSettings(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusOK, "")
}

// UpdateSettings saves the submitted fields. Keys missing from the form keep their value.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	fields := make(map[string]string)
	for _, key := range EditableSettings {
		if formHas(c, key) {
			// FormValue points into the pooled request buffer
			fields[key] = futils.CopyString(c.FormValue(key))
		}
	}

	if err := h.settings.Update(fields); err != nil {
		utils.Log.Error("Failed to save settings: %v", err)
		return h.render(c, fiber.StatusInternalServerError, t(c, "status_settings_failed")+": "+err.Error())
	}

	// a new PIN invalidates the current token, re-issue it for this browser
	if pin, ok := fields[models.KeyAccessPIN]; ok && pin != "" {
		if err := h.guard.Unlock(c, pin); err != nil {
			return err
		}
	}

	return h.render(c, fiber.StatusOK, t(c, "status_settings_saved"))
}

func (h *SettingsHandler) render(c *fiber.Ctx, code int, status string) error {
	return c.Status(code).Render("settings", pageData(c, h.guard, fiber.Map{
		"Settings":  h.settings.Current(),
		"Transport": h.transport,
		"Status":    status,
	}))
}

// formHas reports whether the submitted form carries key, even with an empty value
func formHas(c *fiber.Ctx, key string) bool {
	if c.Request().PostArgs().Has(key) {
		return true
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		_, ok := form.Value[key]
		return ok
	}
	return false
}
