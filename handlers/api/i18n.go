package api

import (
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
)

// TranslationKeys are sent to clients that render statuses themselves
var TranslationKeys = []string{
	"status_draft_generated",
	"status_please_wait",
	"status_email_sent",
	"status_send_failed",
	"status_settings_saved",
	"status_settings_failed",
	"status_resumes_refreshed",
	"status_resumes_failed",
	"status_recipient_required",
	"status_invalid_pin",
	"error_404",
	"error_500",
}

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns the status translations for :lang
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := c.Params("lang")
	if !utils.IsSupportedLanguage(lang) {
		lang = "en"
	}

	localizer := utils.GetLocalizer(lang)
	translations := make(map[string]string, len(TranslationKeys))
	for _, key := range TranslationKeys {
		translations[key] = utils.T(localizer, key)
	}
	return c.JSON(translations)
}
