package middleware

import (
	"io"
	"jobmail/models"
	"jobmail/utils"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSettings map[string]string

func (m mapSettings) Get(key string) string { return m[key] }

func TestVerifyPIN(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		submitted  string
		ok         bool
	}{
		{"disabled accepts empty", "", "", true},
		{"disabled accepts anything", "", "whatever", true},
		{"exact match", "1234", "1234", true},
		{"mismatch", "1234", "4321", false},
		{"empty submission", "1234", "", false},
		{"prefix is not enough", "1234", "123", false},
		{"no trimming", "1234", " 1234", false},
		{"case differs", "abCD", "ABCD", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPIN(tt.configured, tt.submitted)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, utils.ErrAuthorization)
		})
	}
}

func newGuardApp(g *AccessGuard) *fiber.App {
	app := fiber.New()
	app.Post("/unlock", func(c *fiber.Ctx) error {
		if err := g.Unlock(c, c.FormValue("pin")); err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/", g.Require(), func(c *fiber.Ctx) error { return c.SendString("home") })
	app.Get("/api/thing", g.Require(), func(c *fiber.Ctx) error { return c.SendString("thing") })
	return app
}

func unlock(t *testing.T, app *fiber.App, pin string) (*http.Response, *http.Cookie) {
	t.Helper()
	form := url.Values{"pin": {pin}}
	req := httptest.NewRequest(http.MethodPost, "/unlock", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == AccessCookie {
			return resp, c
		}
	}
	return resp, nil
}

func get(t *testing.T, app *fiber.App, path string, mod func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mod != nil {
		mod(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAccessGuard_Disabled(t *testing.T) {
	g := NewAccessGuard(mapSettings{}, "secret", time.Hour)
	app := newGuardApp(g)

	assert.False(t, g.Enabled())
	resp := get(t, app, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, cookie := unlock(t, app, "anything")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, cookie, "no token is needed when the guard is off")
}

func TestAccessGuard_Locked(t *testing.T) {
	g := NewAccessGuard(mapSettings{models.KeyAccessPIN: "1234"}, "secret", time.Hour)
	app := newGuardApp(g)

	resp := get(t, app, "/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/unlock", resp.Header.Get("Location"))

	resp = get(t, app, "/api/thing", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "error")

	resp, cookie := unlock(t, app, "0000")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, cookie)
}

func TestAccessGuard_UnlockCookie(t *testing.T) {
	g := NewAccessGuard(mapSettings{models.KeyAccessPIN: "1234"}, "secret", time.Hour)
	app := newGuardApp(g)

	resp, cookie := unlock(t, app, "1234")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	resp = get(t, app, "/", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, app, "/", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookie, Value: cookie.Value + "x"})
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode, "tampered token is rejected")
}

func TestAccessGuard_HeaderPIN(t *testing.T) {
	g := NewAccessGuard(mapSettings{models.KeyAccessPIN: "1234"}, "secret", time.Hour)
	app := newGuardApp(g)

	resp := get(t, app, "/api/thing", func(r *http.Request) { r.Header.Set(HeaderAccessPIN, "1234") })
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, app, "/api/thing", func(r *http.Request) { r.Header.Set(HeaderAccessPIN, "9") })
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAccessGuard_PINChangeInvalidatesToken(t *testing.T) {
	settings := mapSettings{models.KeyAccessPIN: "1234"}
	g := NewAccessGuard(settings, "secret", time.Hour)
	app := newGuardApp(g)

	_, cookie := unlock(t, app, "1234")
	require.NotNil(t, cookie)

	settings[models.KeyAccessPIN] = "5678"
	resp := get(t, app, "/", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAccessGuard_TokenExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	g := NewAccessGuard(mapSettings{models.KeyAccessPIN: "1234"}, "secret", time.Hour)
	g.now = func() time.Time { return now }
	app := newGuardApp(g)

	_, cookie := unlock(t, app, "1234")
	require.NotNil(t, cookie)

	now = now.Add(30 * time.Minute)
	resp := get(t, app, "/", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	now = now.Add(time.Hour)
	resp = get(t, app, "/", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAccessGuard_OtherSecretRejected(t *testing.T) {
	settings := mapSettings{models.KeyAccessPIN: "1234"}
	_, cookie := unlock(t, newGuardApp(NewAccessGuard(settings, "one", time.Hour)), "1234")
	require.NotNil(t, cookie)

	resp := get(t, newGuardApp(NewAccessGuard(settings, "two", time.Hour)), "/", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestIsAPIRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/*", func(c *fiber.Ctx) error {
		if IsAPIRequest(c) {
			return c.SendString("api")
		}
		return c.SendString("page")
	})

	check := func(path string, htmx bool, want string) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if htmx {
			req.Header.Set("HX-Request", "true")
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body), path)
	}
	check("/api/generate", false, "api")
	check("/settings", false, "page")
	check("/settings", true, "api")
}
