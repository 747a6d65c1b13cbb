package mailer

import (
	"bytes"
	"context"
	"fmt"
	"jobmail/config"
	"jobmail/models"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Archiver files a copy of a sent message
type Archiver interface {
	Archive(ctx context.Context, raw []byte) error
}

// IMAPArchiver appends sent messages to the first Sent folder that exists.
// It logs in with the sender email and SMTP password from settings.
type IMAPArchiver struct {
	server   string
	port     int
	folders  []string
	settings SettingsSource
}

// NewIMAPArchiver creates an archiver from the [imap] config section
func NewIMAPArchiver(cfg config.IMAPConfig, settings SettingsSource) *IMAPArchiver {
	folders := cfg.SentFolders
	if len(folders) == 0 {
		folders = []string{"Sent", "Sent Items", "Sent Mail"}
	}
	return &IMAPArchiver{
		server:   cfg.Server,
		port:     cfg.Port,
		folders:  folders,
		settings: settings,
	}
}

// Archive implements Archiver
func (a *IMAPArchiver) Archive(_ context.Context, raw []byte) error {
	email := a.settings.Get(models.KeySenderEmail)
	password := a.settings.Get(models.KeySMTPPassword)
	if email == "" || password == "" {
		return fmt.Errorf("imap credentials not set")
	}

	c, err := client.DialTLS(fmt.Sprintf("%s:%d", a.server, a.port), nil)
	if err != nil {
		return fmt.Errorf("connection error: %v", err)
	}
	defer c.Logout()

	if err := c.Login(email, password); err != nil {
		return fmt.Errorf("login error: %v", err)
	}

	var selected string
	for _, folder := range a.folders {
		if _, err := c.Select(folder, false); err == nil {
			selected = folder
			break
		}
	}
	if selected == "" {
		return fmt.Errorf("could not find Sent folder")
	}

	return c.Append(selected, []string{imap.SeenFlag}, time.Now(), bytes.NewReader(raw))
}
