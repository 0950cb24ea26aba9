package dispatch_test

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/dispatch"
)

// smtpServerMock speaks just enough SMTP for net/smtp's client.
type smtpServerMock struct {
	ln         net.Listener
	mechanisms string
	rejectAuth bool

	mu  sync.Mutex
	rec smtpRecord
}

// smtpRecord is what the mock server saw.
type smtpRecord struct {
	auth     []string
	mailFrom string
	rcptTo   []string
	data     string
	sessions int
}

func startSMTPServerMock(t *testing.T, mechanisms string, rejectAuth bool) *smtpServerMock {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &smtpServerMock{ln: ln, mechanisms: mechanisms, rejectAuth: rejectAuth}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *smtpServerMock) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpServerMock) config() notifier.DeliveryConfig {
	return notifier.DeliveryConfig{
		Host:        "127.0.0.1",
		Port:        s.port(),
		Username:    "mailer",
		Password:    "secret",
		FromAddress: notifier.DefaultFromAddress,
	}
}

func (s *smtpServerMock) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpServerMock) handle(conn net.Conn) {
	defer conn.Close()
	s.record(func() { s.rec.sessions++ })

	r := bufio.NewReader(conn)
	reply := func(line string) { fmt.Fprintf(conn, "%s\r\n", line) }
	read := func() (string, bool) {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", false
		}
		return strings.TrimRight(line, "\r\n"), true
	}

	reply("220 localhost ESMTP mock")
	for {
		line, ok := read()
		if !ok {
			return
		}
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "EHLO"):
			reply("250-localhost")
			reply("250 AUTH " + s.mechanisms)
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			s.record(func() { s.rec.auth = append(s.rec.auth, line) })
			s.authResult(reply)
		case strings.HasPrefix(upper, "AUTH LOGIN"):
			reply("334 " + base64.StdEncoding.EncodeToString([]byte("Username:")))
			user, _ := read()
			reply("334 " + base64.StdEncoding.EncodeToString([]byte("Password:")))
			pass, _ := read()
			decodedUser, _ := base64.StdEncoding.DecodeString(user)
			decodedPass, _ := base64.StdEncoding.DecodeString(pass)
			s.record(func() { s.rec.auth = append(s.rec.auth, "LOGIN "+string(decodedUser)+":"+string(decodedPass)) })
			s.authResult(reply)
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.record(func() { s.rec.mailFrom = line[len("MAIL FROM:"):] })
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.record(func() { s.rec.rcptTo = append(s.rec.rcptTo, line[len("RCPT TO:"):]) })
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var data strings.Builder
			for {
				body, ok := read()
				if !ok {
					return
				}
				if body == "." {
					break
				}
				data.WriteString(body + "\n")
			}
			s.record(func() { s.rec.data = data.String() })
			reply("250 OK queued")
		case upper == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func (s *smtpServerMock) authResult(reply func(string)) {
	if s.rejectAuth {
		reply("535 5.7.8 Authentication credentials invalid")
		return
	}
	reply("235 2.7.0 Authentication successful")
}

func (s *smtpServerMock) record(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *smtpServerMock) snapshot() smtpRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return smtpRecord{
		auth:     append([]string(nil), s.rec.auth...),
		mailFrom: s.rec.mailFrom,
		rcptTo:   append([]string(nil), s.rec.rcptTo...),
		data:     s.rec.data,
		sessions: s.rec.sessions,
	}
}

func welcomeMessage(t *testing.T, to string) *dispatch.Message {
	t.Helper()
	rendered, err := dispatch.NewWelcomeTemplate().Render(notifier.RecipientInfo{FirstName: "Ana", Email: to})
	require.NoError(t, err)
	from, err := mail.ParseAddress(notifier.DefaultFromAddress)
	require.NoError(t, err)
	return dispatch.NewMessage(from, &mail.Address{Address: to}, rendered)
}

func TestSMTPDialerSend(t *testing.T) {
	cases := []struct {
		name         string
		mechanisms   string
		expectedAuth string
	}{
		{
			name:         "plain",
			mechanisms:   "PLAIN LOGIN",
			expectedAuth: "AUTH PLAIN " + base64.StdEncoding.EncodeToString([]byte("\x00mailer\x00secret")),
		},
		{
			name:         "login only",
			mechanisms:   "LOGIN",
			expectedAuth: "LOGIN mailer:secret",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := startSMTPServerMock(t, tc.mechanisms, false)
			dialer := &dispatch.SMTPDialer{Timeout: 5 * time.Second}
			ctx := context.Background()

			transport, err := dialer.Dial(ctx, server.config())
			require.NoError(t, err)
			require.NoError(t, transport.Verify(ctx))

			msg := welcomeMessage(t, "ana@x.com")
			require.NoError(t, transport.Send(ctx, msg))
			require.NoError(t, transport.Close())

			got := server.snapshot()
			assert.Equal(t, []string{tc.expectedAuth}, got.auth)
			assert.Equal(t, "<noreply@openstart.com>", got.mailFrom)
			assert.Equal(t, []string{"<ana@x.com>"}, got.rcptTo)
			assert.Contains(t, got.data, "Subject: "+dispatch.WelcomeSubject)
			assert.Contains(t, got.data, "Message-ID: <"+msg.ID+">")
		})
	}
}

func TestSMTPDialerAuthRejected(t *testing.T) {
	server := startSMTPServerMock(t, "PLAIN", true)
	dialer := &dispatch.SMTPDialer{Timeout: 5 * time.Second}

	transport, err := dialer.Dial(context.Background(), server.config())
	require.NoError(t, err)
	defer transport.Close()

	err = transport.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestDispatchOverSMTP(t *testing.T) {
	server := startSMTPServerMock(t, "PLAIN", false)
	dispatcher := &dispatch.Dispatcher{
		Dialer:   &dispatch.SMTPDialer{Timeout: 5 * time.Second},
		Template: dispatch.NewWelcomeTemplate(),
		Logger:   zerolog.Nop(),
	}

	result, err := dispatcher.Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "Ana", Email: "ana@x.com"}, server.config())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ana@x.com", result.Recipient)
	assert.NotEmpty(t, result.EmailID)

	got := server.snapshot()
	assert.Equal(t, 1, got.sessions)
	assert.Equal(t, []string{"<ana@x.com>"}, got.rcptTo)
}

func TestDispatchOverSMTPAuthRejected(t *testing.T) {
	server := startSMTPServerMock(t, "PLAIN", true)
	dispatcher := &dispatch.Dispatcher{
		Dialer: &dispatch.SMTPDialer{Timeout: 5 * time.Second},
		Logger: zerolog.Nop(),
	}

	result, err := dispatcher.Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "Ana", Email: "ana@x.com"}, server.config())
	require.ErrorIs(t, err, notifier.ErrTransport)
	assert.False(t, result.Success)

	got := server.snapshot()
	assert.Equal(t, 1, got.sessions)
	assert.Empty(t, got.mailFrom)
	assert.Empty(t, got.rcptTo)
}

func TestDispatchConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dispatcher := dispatch.NewDispatcher(zerolog.Nop())
	cfg := notifier.DeliveryConfig{Host: "127.0.0.1", Port: port, Username: "u", Password: "p", FromAddress: notifier.DefaultFromAddress}

	result, err := dispatcher.Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "Ana", Email: "ana@x.com"}, cfg)
	require.ErrorIs(t, err, notifier.ErrTransport)
	assert.False(t, result.Success)
}
