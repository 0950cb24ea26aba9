package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errHeaderInjection = errors.New("header value contains a line break")

// Message is a single outgoing email.
type Message struct {
	ID      string // Message-ID without angle brackets
	From    *mail.Address
	To      *mail.Address
	Subject string
	Text    string
	HTML    string
	Date    time.Time
}

// NewMessage wraps a rendered template into a message with a fresh Message-ID.
func NewMessage(from, to *mail.Address, rendered Rendered) *Message {
	return &Message{
		ID:      uuid.NewString() + "@" + domainOf(from.Address),
		From:    from,
		To:      to,
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
		Date:    time.Now(),
	}
}

// Bytes encodes the message as a multipart/alternative MIME document.
func (m *Message) Bytes() ([]byte, error) {
	headers := []struct{ name, value string }{
		{"From", m.From.String()},
		{"To", m.To.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", m.Date.Format(time.RFC1123Z)},
		{"Message-ID", "<" + m.ID + ">"},
		{"MIME-Version", "1.0"},
	}

	var msg bytes.Buffer
	for _, h := range headers {
		if strings.ContainsAny(h.value, "\r\n") {
			return nil, fmt.Errorf("%s: %w", h.name, errHeaderInjection)
		}
		fmt.Fprintf(&msg, "%s: %s\r\n", h.name, h.value)
	}

	boundary := "alt-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)
	for _, part := range []struct{ contentType, body string }{
		{"text/plain", m.Text},
		{"text/html", m.HTML},
	} {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=UTF-8\r\n", part.contentType)
		msg.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&msg)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		msg.WriteString("\r\n")
	}
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes(), nil
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
