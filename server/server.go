// Package server assembles the fiber application: template engine, middleware
// chain, sessions and routes.
package server

import (
	"errors"
	"fmt"
	"jobmail/compose"
	"jobmail/config"
	"jobmail/handlers/api"
	"jobmail/handlers/web"
	"jobmail/locales"
	"jobmail/mailer"
	"jobmail/middleware"
	"jobmail/storage"
	"jobmail/templates"
	"jobmail/utils"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Config    *config.Config
	Settings  *storage.SettingsStorage
	Resumes   *storage.ResumeStorage
	Generator *compose.Generator
	Sender    *mailer.Sender
	Guard     *middleware.AccessGuard

	// Sessions falls back to fiber's memory storage when nil
	Sessions fiber.Storage

	// Limiter is built from Config.Server.RateLimit when nil
	Limiter *middleware.IPRateLimiter

	Version string
}

func (d *Deps) validate() error {
	switch {
	case d.Config == nil:
		return errors.New("config is required")
	case d.Settings == nil:
		return errors.New("settings storage is required")
	case d.Resumes == nil:
		return errors.New("resume storage is required")
	case d.Generator == nil:
		return errors.New("generator is required")
	case d.Sender == nil:
		return errors.New("sender is required")
	case d.Guard == nil:
		return errors.New("access guard is required")
	}
	return nil
}

// New builds the application with every route registered
func New(d Deps) (*fiber.App, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if utils.Bundle == nil {
		if err := utils.InitI18n(locales.FS); err != nil {
			return nil, fmt.Errorf("failed to initialize i18n: %w", err)
		}
	}

	engine := html.NewFileSystem(http.FS(templates.FS), ".html")
	engine.AddFunc("t", func(lang interface{}, messageID string) string {
		l, _ := lang.(string)
		return utils.T(utils.GetLocalizer(l), messageID)
	})

	app := fiber.New(fiber.Config{
		AppName:               "jobmail " + d.Version,
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline';",
	}))
	app.Use(middleware.LocaleMiddleware())

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewIPRateLimiter(d.Config.Server.RateLimit, time.Minute)
	}
	app.Use(limiter.Handler())

	// pages post forms and need the double-submit token, JSON clients do not
	app.Use(middleware.CSRFProtection(middleware.CSRFConfig{
		TokenLength:  32,
		CookieName:   "csrf_token",
		HeaderName:   "X-CSRF-Token",
		FormField:    "_csrf",
		ContextKey:   "csrf",
		CookieMaxAge: 3600 * 12,
		Skipper:      middleware.IsAPIRequest,
	}))

	hours := d.Config.Server.SessionHours
	if hours <= 0 {
		hours = 24
	}
	store := session.New(session.Config{
		Storage:        d.Sessions,
		Expiration:     time.Duration(hours) * time.Hour,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})

	webAuth := web.NewAuthHandler(d.Guard)
	webCompose := web.NewComposeHandler(store, d.Guard, d.Generator, d.Sender, d.Resumes)
	webSettings := web.NewSettingsHandler(d.Settings, d.Guard, d.Config.Mail.Transport)

	apiAuth := api.NewAuthHandler(d.Guard)
	apiCompose := api.NewComposeHandler(d.Generator, d.Sender, d.Resumes)
	apiSettings := api.NewSettingsHandler(d.Settings)
	i18nHandler := &api.I18nHandler{}

	// public routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"transport": d.Sender.Transport().Name(),
			"time":      time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/unlock", webAuth.ShowUnlock)
	app.Post("/unlock", webAuth.HandleUnlock)
	app.Get("/lock", webAuth.HandleLock)
	app.Post("/api/unlock", apiAuth.HandleUnlock)
	app.Get("/api/i18n/:lang", i18nHandler.GetTranslations)

	protected := app.Group("", d.Guard.Require())

	protected.Get("/", webCompose.ShowCompose)
	protected.Post("/generate", webCompose.HandleGenerate)
	protected.Post("/resumes/refresh", webCompose.HandleRefresh)
	protected.Post("/send", webCompose.HandleSend)
	protected.Get("/settings", webSettings.ShowSettings)
	protected.Post("/settings", webSettings.UpdateSettings)

	apiRoutes := protected.Group("/api")
	{
		apiRoutes.Post("/generate", apiCompose.HandleGenerate)
		apiRoutes.Get("/resumes", apiCompose.HandleResumes)
		apiRoutes.Post("/send", apiCompose.HandleSend)
		apiRoutes.Get("/settings", apiSettings.GetSettings)
		apiRoutes.Put("/settings", apiSettings.UpdateSettings)
	}

	app.Use(func(c *fiber.Ctx) error {
		msg := utils.T(middleware.Localizer(c), "error_404")
		if middleware.IsAPIRequest(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
		}
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Error": msg,
			"Code":  fiber.StatusNotFound,
			"Lang":  c.Locals("lang"),
		})
	})

	return app, nil
}

// errorHandler answers JSON for API callers and the error page otherwise
func errorHandler(c *fiber.Ctx, err error) error {
	code := utils.StatusCode(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		utils.Log.Error("Request %s %s failed: %v", c.Method(), c.Path(), err)
	}

	if middleware.IsAPIRequest(c) {
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(code).Render("error", fiber.Map{
		"Error": err.Error(),
		"Code":  code,
		"Lang":  c.Locals("lang"),
	})
}
