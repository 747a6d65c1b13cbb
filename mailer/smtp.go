package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"jobmail/config"
	"jobmail/models"
	"jobmail/utils"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// DialFunc opens the raw connection to the SMTP server
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// SMTP submits mail directly to an SMTP server with STARTTLS and PLAIN auth
type SMTP struct {
	settings SettingsSource
	dial     DialFunc
	now      func() time.Time

	// tlsConfig is cloned for STARTTLS; ServerName defaults to the SMTP server
	tlsConfig *tls.Config
}

// NewSMTP creates an SMTP transport; server, port and credentials come from settings
func NewSMTP(settings SettingsSource) *SMTP {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	return &SMTP{
		settings: settings,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
		now: time.Now,
	}
}

// Name implements Transport
func (c *SMTP) Name() string { return config.TransportSMTP }

// Send builds the MIME message and submits it in one SMTP session
func (c *SMTP) Send(ctx context.Context, msg *Message) error {
	email := c.settings.Get(models.KeySenderEmail)
	password := c.settings.Get(models.KeySMTPPassword)
	if email == "" || password == "" {
		return fmt.Errorf("%w: SMTP email or password not set", errNotConfigured)
	}
	server := c.settings.Get(models.KeySMTPServer)
	if server == "" {
		return fmt.Errorf("%w: SMTP server not set", errNotConfigured)
	}
	port, err := strconv.Atoi(c.settings.Get(models.KeySMTPPort))
	if err != nil || port <= 0 {
		return fmt.Errorf("%w: invalid SMTP port %q", errNotConfigured, c.settings.Get(models.KeySMTPPort))
	}

	out := *msg
	out.From = email
	raw, err := BuildMIME(&out, c.now())
	if err != nil {
		return err
	}

	utils.Log.Debug("Connecting to %s:%d as %s", server, port, email)
	if err := c.submit(ctx, server, port, email, password, out.Recipients(), raw); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrTransport, err)
	}
	return nil
}

func (c *SMTP) submit(ctx context.Context, server string, port int, email, password string, rcpts []string, raw []byte) error {
	addr := net.JoinHostPort(server, strconv.Itoa(port))
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial failed: %v", err)
	}

	client, err := smtp.NewClient(conn, server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("greeting failed: %v", err)
	}
	defer client.Close()

	if err := client.Hello(domainOf(email)); err != nil {
		return fmt.Errorf("hello failed: %v", err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fmt.Errorf("server %s does not offer STARTTLS", server)
	}
	tlsConfig := &tls.Config{}
	if c.tlsConfig != nil {
		tlsConfig = c.tlsConfig.Clone()
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = server
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starttls failed: %v", err)
	}

	if err := client.Auth(smtp.PlainAuth("", email, password, server)); err != nil {
		return fmt.Errorf("auth failed: %v", err)
	}

	if err := client.Mail(email); err != nil {
		return fmt.Errorf("mail from failed: %v", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s failed: %v", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data failed: %v", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("data write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close failed: %v", err)
	}

	return client.Quit()
}
