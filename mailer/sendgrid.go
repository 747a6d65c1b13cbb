package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"jobmail/config"
	"jobmail/models"
	"jobmail/utils"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// SendGridOptions tunes the relay client
type SendGridOptions struct {
	Endpoint string
	Timeout  time.Duration
}

// SendGrid delivers through the SendGrid v3 mail send API
type SendGrid struct {
	settings SettingsSource
	endpoint string
	timeout  time.Duration
	client   *fasthttp.Client
}

// NewSendGrid creates a relay transport; the API key and sender come from settings
func NewSendGrid(settings SettingsSource, opts SendGridOptions) *SendGrid {
	if opts.Endpoint == "" {
		opts.Endpoint = config.DefaultSendGridEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &SendGrid{
		settings: settings,
		endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		client:   &fasthttp.Client{Name: "jobmail"},
	}
}

// Name implements Transport
func (s *SendGrid) Name() string { return config.TransportSendGrid }

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To      []sgAddress `json:"to"`
	Cc      []sgAddress `json:"cc,omitempty"`
	Subject string      `json:"subject"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

type sgPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Content          []sgContent         `json:"content"`
	Attachments      []sgAttachment      `json:"attachments,omitempty"`
}

// Send posts msg to the relay. msg.From is ignored; the configured sender is used.
func (s *SendGrid) Send(ctx context.Context, msg *Message) error {
	apiKey := s.settings.Get(models.KeySendGridAPIKey)
	from := s.settings.Get(models.KeySenderEmail)
	if apiKey == "" || from == "" {
		return fmt.Errorf("%w: SendGrid API key or sender email not set", errNotConfigured)
	}

	body, err := json.Marshal(buildPayload(from, msg))
	if err != nil {
		return fmt.Errorf("failed to marshal SendGrid payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+apiKey)
	req.SetBody(body)

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: SendGrid request failed: %v", utils.ErrTransport, err)
	}

	if code := resp.StatusCode(); code >= 400 {
		return fmt.Errorf("%w: SendGrid error: %d %s", utils.ErrTransport, code,
			strings.TrimSpace(utils.StripHTML(string(resp.Body()))))
	}

	utils.Log.Debug("SendGrid accepted message, status %d", resp.StatusCode())
	return nil
}

func buildPayload(from string, msg *Message) sgPayload {
	p := sgPersonalization{Subject: msg.Subject}
	for _, addr := range msg.To {
		p.To = append(p.To, sgAddress{Email: addr})
	}
	for _, addr := range msg.Cc {
		p.Cc = append(p.Cc, sgAddress{Email: addr})
	}

	payload := sgPayload{
		Personalizations: []sgPersonalization{p},
		From:             sgAddress{Email: from},
		Content:          []sgContent{{Type: "text/plain", Value: msg.Body}},
	}

	if att := msg.Attachment; att != nil {
		ctype := att.ContentType
		if ctype == "" {
			ctype = DefaultContentType
		}
		payload.Attachments = []sgAttachment{{
			Content:  base64.StdEncoding.EncodeToString(att.Data),
			Type:     ctype,
			Filename: att.Filename,
		}}
	}
	return payload
}
