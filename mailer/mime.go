package mailer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// BuildMIME renders msg as a multipart/mixed message: a text/plain part and,
// when present, one base64 attachment part.
func BuildMIME(msg *Message, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(msg.Subject)
	h.SetMessageID(uuid.NewString() + "@" + domainOf(msg.From))
	h.SetAddressList("From", []*mail.Address{{Address: msg.From}})
	h.SetAddressList("To", toAddresses(msg.To))
	if len(msg.Cc) > 0 {
		h.SetAddressList("Cc", toAddresses(msg.Cc))
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	th.Set("Content-Transfer-Encoding", "quoted-printable")
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := io.WriteString(tw, msg.Body); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close text part: %w", err)
	}

	if att := msg.Attachment; att != nil {
		ctype := att.ContentType
		if ctype == "" {
			ctype = DefaultContentType
		}
		var ah mail.AttachmentHeader
		ah.SetContentType(ctype, map[string]string{"name": att.Filename})
		ah.SetFilename(att.Filename)
		ah.Set("Content-Transfer-Encoding", "base64")

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		if _, err := aw.Write(att.Data); err != nil {
			return nil, fmt.Errorf("failed to write attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close attachment: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func toAddresses(list []string) []*mail.Address {
	out := make([]*mail.Address, 0, len(list))
	for _, a := range list {
		out = append(out, &mail.Address{Address: a})
	}
	return out
}

// domainOf returns the part after @, or "localhost"
func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
