package compose

import (
	"jobmail/models"
	"jobmail/utils"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum gap between two successful generations
const DefaultInterval = 3 * time.Second

// Status message IDs returned with a Result; handlers localize them
const (
	StatusDraftGenerated = "status_draft_generated"
	StatusPleaseWait     = "status_please_wait"
)

// SettingsSource gives read access to the current settings
type SettingsSource interface {
	Get(key string) string
}

// Request is the generate form input
type Request struct {
	Posting string `json:"posting"`
	To      string `json:"to"`
	Cc      string `json:"cc"`
}

// Result is a ready-to-edit draft, or the untouched inputs when Limited
type Result struct {
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Status  string `json:"status"`
	Limited bool   `json:"limited"`
}

// Generator produces drafts and enforces the interval between them.
// One Generator serves the whole process.
type Generator struct {
	settings SettingsSource
	limiter  *rate.Limiter
	now      func() time.Time
}

// Option customizes a Generator
type Option func(*Generator)

// WithInterval changes the minimum gap between generations
func WithInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator reading the default body from settings
func NewGenerator(settings SettingsSource, opts ...Option) *Generator {
	g := &Generator{
		settings: settings,
		limiter:  rate.NewLimiter(rate.Every(DefaultInterval), 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a draft from the posting. A call that arrives before the
// interval has passed since the last successful one returns the inputs with
// an empty subject and body and leaves the limiter untouched.
func (g *Generator) Generate(req Request) Result {
	if !g.limiter.AllowN(g.now(), 1) {
		utils.Log.Debug("Draft generation throttled")
		return Result{
			To:      req.To,
			Cc:      req.Cc,
			Status:  StatusPleaseWait,
			Limited: true,
		}
	}

	extracted := Extract(req.Posting)
	to := req.To
	if to == "" {
		to = extracted.Email
	}

	utils.Log.WithFields(map[string]interface{}{
		"role":      extracted.Role,
		"extracted": extracted.Email != "",
	}).Info("Draft generated")

	return Result{
		To:      to,
		Cc:      req.Cc,
		Subject: Subject(extracted.Role),
		Body:    g.settings.Get(models.KeyEmailBody),
		Status:  StatusDraftGenerated,
	}
}
