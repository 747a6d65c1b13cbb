package middleware

import (
	"jobmail/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// LocaleMiddleware picks the language from ?lang=, the lang cookie, then
// Accept-Language, and stores a localizer in Locals
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := c.Query("lang")
		if lang != "" && utils.IsSupportedLanguage(lang) {
			c.Cookie(&fiber.Cookie{Name: "lang", Value: lang, Path: "/"})
		}

		if lang == "" {
			lang = c.Cookies("lang")
		}

		if lang == "" {
			if strings.HasPrefix(c.Get("Accept-Language"), "ja") {
				lang = "ja"
			}
		}

		if !utils.IsSupportedLanguage(lang) {
			lang = "en"
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		return c.Next()
	}
}

// Localizer returns the request localizer, or the default one outside LocaleMiddleware
func Localizer(c *fiber.Ctx) *i18n.Localizer {
	if l, ok := c.Locals("localizer").(*i18n.Localizer); ok {
		return l
	}
	return utils.Localizer
}
