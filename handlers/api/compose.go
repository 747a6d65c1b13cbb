package api

import (
	"jobmail/compose"
	"jobmail/mailer"
	"jobmail/models"
	"jobmail/storage"

	"github.com/gofiber/fiber/v2"
)

// ComposeHandler is the JSON mirror of the main screen
type ComposeHandler struct {
	generator *compose.Generator
	sender    *mailer.Sender
	resumes   *storage.ResumeStorage
}

func NewComposeHandler(generator *compose.Generator, sender *mailer.Sender, resumes *storage.ResumeStorage) *ComposeHandler {
	return &ComposeHandler{
		generator: generator,
		sender:    sender,
		resumes:   resumes,
	}
}

// GenerateResponse is compose.Result with a localized status line
type GenerateResponse struct {
	compose.Result
	Message string `json:"message"`
}

// HandleGenerate runs the draft generator. A throttled call still answers 200
// with limited=true and the inputs echoed back.
func (h *ComposeHandler) HandleGenerate(c *fiber.Ctx) error {
	var req compose.Request
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	res := h.generator.Generate(req)
	return c.JSON(GenerateResponse{Result: res, Message: t(c, res.Status)})
}

// HandleResumes lists attachment choices and the default selection
func (h *ComposeHandler) HandleResumes(c *fiber.Ctx) error {
	choices, err := h.resumes.Choices()
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"choices": choices,
		"default": h.resumes.Default(),
	})
}

// HandleSend delivers the posted draft
func (h *ComposeHandler) HandleSend(c *fiber.Ctx) error {
	var d models.Draft
	if err := parseJSON(c, &d); err != nil {
		return err
	}

	if err := h.sender.Send(c.UserContext(), d); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   t(c, "status_email_sent"),
		"transport": h.sender.Transport().Name(),
	})
}
