package mailer

import (
	"context"
	"fmt"
	"jobmail/models"
	"jobmail/utils"
	"time"
)

// ResumeSource resolves a resume choice to a file path
type ResumeSource interface {
	Path(name string) (string, error)
}

// Sender turns a draft into a message and hands it to the transport once
type Sender struct {
	transport Transport
	settings  SettingsSource
	resumes   ResumeSource
	archiver  Archiver
	now       func() time.Time
}

// NewSender creates a sender; archiver may be nil
func NewSender(transport Transport, settings SettingsSource, resumes ResumeSource, archiver Archiver) *Sender {
	return &Sender{
		transport: transport,
		settings:  settings,
		resumes:   resumes,
		archiver:  archiver,
		now:       time.Now,
	}
}

// Transport returns the configured transport
func (s *Sender) Transport() Transport {
	return s.transport
}

// Compose builds the outgoing message for d, loading the attachment if one is chosen
func (s *Sender) Compose(d models.Draft) (*Message, error) {
	to := SplitAddresses(d.To)
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: recipient is required", utils.ErrValidation)
	}

	msg := &Message{
		From:    s.settings.Get(models.KeySenderEmail),
		To:      to,
		Cc:      SplitAddresses(d.Cc),
		Subject: d.Subject,
		Body:    d.Body,
	}

	if d.HasAttachment() {
		path, err := s.resumes.Path(d.Resume)
		if err != nil {
			return nil, err
		}
		att, err := LoadAttachment(path)
		if err != nil {
			return nil, err
		}
		msg.Attachment = att
	}
	return msg, nil
}

// Send delivers d. There is no retry; the first failure is returned.
func (s *Sender) Send(ctx context.Context, d models.Draft) error {
	msg, err := s.Compose(d)
	if err != nil {
		return err
	}

	log := utils.Log.WithFields(map[string]interface{}{
		"transport":  s.transport.Name(),
		"to":         d.To,
		"attachment": msg.Attachment != nil,
	})

	if err := s.transport.Send(ctx, msg); err != nil {
		log.Warn("Email send failed: %v", err)
		return err
	}
	log.Info("Email sent: subject=%q", msg.Subject)

	if s.archiver != nil {
		s.archive(ctx, msg)
	}
	return nil
}

func (s *Sender) archive(ctx context.Context, msg *Message) {
	raw, err := BuildMIME(msg, s.now())
	if err != nil {
		utils.Log.Warn("Failed to render message for Sent copy: %v", err)
		return
	}
	if err := s.archiver.Archive(ctx, raw); err != nil {
		utils.Log.Warn("Failed to save copy to Sent folder: %v", err)
	}
}
