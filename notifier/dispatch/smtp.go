package dispatch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// DefaultTimeout bounds both the TCP connect and the whole SMTP session.
const DefaultTimeout = 30 * time.Second

// Transport is an open mail transport.
type Transport interface {
	// Verify greets the server and authenticates.
	Verify(ctx context.Context) error
	// Send delivers msg. Verify must have succeeded first.
	Send(ctx context.Context, msg *Message) error
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, cfg notifier.DeliveryConfig) (Transport, error)
}

// SMTPDialer dials SMTP relays. Port 465 gets implicit TLS; every other port starts
// in plain text and upgrades with STARTTLS when the server offers it.
// The zero value is ready to use.
type SMTPDialer struct {
	Timeout   time.Duration
	LocalName string      // EHLO name, net/smtp's default when empty
	TLSConfig *tls.Config // cloned per connection, ServerName is filled in
}

// Dial implements Dialer.
func (d *SMTPDialer) Dial(ctx context.Context, cfg notifier.DeliveryConfig) (Transport, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tlsConfig := d.tlsConfig(cfg.Host)
	dialer := &net.Dialer{Timeout: timeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.ImplicitTLS() {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", cfg.Addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Addr())
	}
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &smtpTransport{
		client:    client,
		cfg:       cfg,
		tlsConfig: tlsConfig,
		localName: d.LocalName,
	}, nil
}

func (d *SMTPDialer) tlsConfig(host string) *tls.Config {
	cfg := &tls.Config{}
	if d.TLSConfig != nil {
		cfg = d.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	return cfg
}

type smtpTransport struct {
	client    *smtp.Client
	cfg       notifier.DeliveryConfig
	tlsConfig *tls.Config
	localName string
}

func (t *smtpTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.localName != "" {
		if err := t.client.Hello(t.localName); err != nil {
			return err
		}
	}
	if !t.cfg.ImplicitTLS() {
		if ok, _ := t.client.Extension("STARTTLS"); ok {
			if err := t.client.StartTLS(t.tlsConfig); err != nil {
				return fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	auth, err := t.auth()
	if err != nil {
		return err
	}
	if err := t.client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

// auth prefers PLAIN and falls back to LOGIN for relays that only offer that.
func (t *smtpTransport) auth() (smtp.Auth, error) {
	ok, mechanisms := t.client.Extension("AUTH")
	if !ok {
		return nil, errors.New("server does not support AUTH")
	}
	offered := strings.Fields(strings.ToUpper(mechanisms))
	if contains(offered, "PLAIN") || !contains(offered, "LOGIN") {
		return smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host), nil
	}
	return &loginAuth{username: t.cfg.Username, password: t.cfg.Password, host: t.cfg.Host}, nil
}

func (t *smtpTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := t.client.Mail(msg.From.Address); err != nil {
		return err
	}
	if err := t.client.Rcpt(msg.To.Address); err != nil {
		return err
	}
	w, err := t.client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

func (t *smtpTransport) Close() error {
	if err := t.client.Quit(); err != nil {
		return t.client.Close()
	}
	return nil
}

// loginAuth implements the LOGIN SMTP auth mechanism.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && !isLocalhost(server.Name) {
		return "", nil, errors.New("unencrypted connection")
	}
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(string(fromServer)) {
	case "username:", "user:":
		return []byte(a.username), nil
	case "password:", "pass:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge: %s", string(fromServer))
	}
}

func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
