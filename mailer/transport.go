// Package mailer delivers composed applications through a configured transport.
package mailer

import (
	"context"
	"fmt"
	"jobmail/config"
	"jobmail/utils"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// errNotConfigured marks missing transport settings. It matches both
// ErrTransport and ErrConfiguration.
var errNotConfigured = fmt.Errorf("%w: %w", utils.ErrTransport, utils.ErrConfiguration)

// Transport hands a complete message to a delivery service
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// SettingsSource gives read access to the current settings
type SettingsSource interface {
	Get(key string) string
}

// Message is a plain-text email with at most one attachment
type Message struct {
	From       string
	To         []string
	Cc         []string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Recipients returns To followed by Cc
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc))
	out = append(out, m.To...)
	return append(out, m.Cc...)
}

// Attachment represents a file attachment
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// LoadAttachment reads path and guesses its media type
func LoadAttachment(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	name := filepath.Base(path)
	return &Attachment{
		Filename:    name,
		ContentType: DetectContentType(name),
		Data:        data,
	}, nil
}

// DefaultContentType is used when the type cannot be guessed
const DefaultContentType = "application/octet-stream"

// DetectContentType guesses a media type from the file extension
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".rtf":
		return "application/rtf"
	case ".odt":
		return "application/vnd.oasis.opendocument.text"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultContentType
}

// SplitAddresses turns a comma or semicolon separated field into addresses
func SplitAddresses(field string) []string {
	parts := strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewTransport builds the transport named in cfg. Credentials are read from
// settings on every send so edits on the settings screen apply immediately.
func NewTransport(cfg config.MailConfig, settings SettingsSource) (Transport, error) {
	switch cfg.Transport {
	case config.TransportSendGrid:
		return NewSendGrid(settings, SendGridOptions{
			Endpoint: cfg.SendGridEndpoint,
			Timeout:  cfg.Timeout(),
		}), nil
	case config.TransportSMTP:
		return NewSMTP(settings), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
