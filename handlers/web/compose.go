package web

import (
	"errors"
	"jobmail/compose"
	"jobmail/mailer"
	"jobmail/middleware"
	"jobmail/models"
	"jobmail/storage"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// ComposeHandler serves the main screen: generate, edit, attach, send
type ComposeHandler struct {
	store     *session.Store
	guard     *middleware.AccessGuard
	generator *compose.Generator
	sender    *mailer.Sender
	resumes   *storage.ResumeStorage
}

func NewComposeHandler(store *session.Store, guard *middleware.AccessGuard, generator *compose.Generator, sender *mailer.Sender, resumes *storage.ResumeStorage) *ComposeHandler {
	return &ComposeHandler{
		store:     store,
		guard:     guard,
		generator: generator,
		sender:    sender,
		resumes:   resumes,
	}
}

// ShowCompose renders the draft kept in the session
func (h *ComposeHandler) ShowCompose(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}
	d := loadDraft(sess)

	choices, err := h.resumes.Choices()
	if err != nil {
		utils.Log.Warn("Failed to list resumes: %v", err)
		d.Status = t(c, "status_resumes_failed")
	}
	if d.Resume == "" {
		d.Resume = h.resumes.Default()
	}

	return c.Render("compose", pageData(c, h.guard, fiber.Map{
		"Draft":   d,
		"Choices": choices,
		"Status":  d.Status,
	}))
}

// HandleGenerate fills the draft from the pasted posting
func (h *ComposeHandler) HandleGenerate(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}

	req := compose.Request{
		Posting: c.FormValue("posting"),
		To:      c.FormValue("to"),
		Cc:      c.FormValue("cc"),
	}
	res := h.generator.Generate(req)

	d := loadDraft(sess)
	d.Posting = req.Posting
	d.To = res.To
	d.Cc = res.Cc
	d.Subject = res.Subject
	d.Body = res.Body
	d.Status = t(c, res.Status)
	if resume := c.FormValue("resume"); resume != "" {
		d.Resume = resume
	}

	if err := saveDraft(sess, d); err != nil {
		return utils.InternalServerError("Session error", err)
	}
	return c.Redirect("/")
}

// HandleRefresh keeps the edited fields and resets the attachment to the default
func (h *ComposeHandler) HandleRefresh(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}

	d := draftFromForm(c)
	d.Resume = h.resumes.Default()
	if _, err := h.resumes.List(); err != nil {
		d.Status = t(c, "status_resumes_failed")
	} else {
		d.Status = t(c, "status_resumes_refreshed")
	}

	if err := saveDraft(sess, d); err != nil {
		return utils.InternalServerError("Session error", err)
	}
	return c.Redirect("/")
}

// HandleSend sends the edited draft and clears it on success
func (h *ComposeHandler) HandleSend(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}

	d := draftFromForm(c)
	err = h.sender.Send(c.UserContext(), d)
	switch {
	case err == nil:
		d = models.Draft{
			Posting: d.Posting,
			Resume:  d.Resume,
			Status:  t(c, "status_email_sent"),
		}
	case errors.Is(err, utils.ErrValidation):
		d.Status = t(c, "status_recipient_required")
	default:
		d.Status = t(c, "status_send_failed") + ": " + err.Error()
	}

	if err := saveDraft(sess, d); err != nil {
		return utils.InternalServerError("Session error", err)
	}
	return c.Redirect("/")
}

func draftFromForm(c *fiber.Ctx) models.Draft {
	return models.Draft{
		Posting: c.FormValue("posting"),
		To:      c.FormValue("to"),
		Cc:      c.FormValue("cc"),
		Subject: c.FormValue("subject"),
		Body:    c.FormValue("body"),
		Resume:  c.FormValue("resume"),
	}
}
