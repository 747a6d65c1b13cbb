package web

import (
	"encoding/json"
	"jobmail/middleware"
	"jobmail/models"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const draftKey = "draft"

// loadDraft returns the draft kept in the session, zero value if none
func loadDraft(sess *session.Session) models.Draft {
	var d models.Draft
	raw, ok := sess.Get(draftKey).(string)
	if !ok || raw == "" {
		return d
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		utils.Log.Warn("Discarding unreadable draft in session: %v", err)
		return models.Draft{}
	}
	return d
}

// saveDraft stores d in the session and persists it
func saveDraft(sess *session.Session, d models.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	sess.Set(draftKey, string(raw))
	return sess.Save()
}

// pageData adds the values every layout needs
func pageData(c *fiber.Ctx, guard *middleware.AccessGuard, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	lang, _ := c.Locals("lang").(string)
	data["Lang"] = lang
	data["CSRFToken"] = c.Locals("csrf")
	data["Guarded"] = guard.Enabled()
	return data
}

// t localizes a message ID for the current request
func t(c *fiber.Ctx, id string) string {
	return utils.T(middleware.Localizer(c), id)
}
