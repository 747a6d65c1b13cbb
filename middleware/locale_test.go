package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocaleMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(LocaleMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		assert.NotNil(t, Localizer(c))
		return c.SendString(c.Locals("lang").(string))
	})

	lang := func(target string, mod func(*http.Request)) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if mod != nil {
			mod(req)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Equal(t, "en", lang("/", nil))
	assert.Equal(t, "ja", lang("/", func(r *http.Request) { r.Header.Set("Accept-Language", "ja-JP,ja;q=0.9") }))
	assert.Equal(t, "en", lang("/", func(r *http.Request) { r.Header.Set("Accept-Language", "fr-FR") }))
	assert.Equal(t, "ja", lang("/", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "lang", Value: "ja"}) }))
	assert.Equal(t, "en", lang("/?lang=en", func(r *http.Request) { r.Header.Set("Accept-Language", "ja") }))
	assert.Equal(t, "ja", lang("/?lang=ja", nil))
	assert.Equal(t, "en", lang("/?lang=xx", nil))
}
