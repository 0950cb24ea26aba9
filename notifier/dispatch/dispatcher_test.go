package dispatch_test

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/dispatch"
)

type transportMock struct {
	verifyErr error
	sendErr   error

	verified bool
	sent     []*dispatch.Message
	closed   bool
}

func (t *transportMock) Verify(_ context.Context) error {
	t.verified = true
	return t.verifyErr
}

func (t *transportMock) Send(_ context.Context, msg *dispatch.Message) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *transportMock) Close() error {
	t.closed = true
	return nil
}

type dialerMock struct {
	dialErr   error
	transport *transportMock
	dials     int
}

func (d *dialerMock) Dial(_ context.Context, _ notifier.DeliveryConfig) (dispatch.Transport, error) {
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.transport, nil
}

var deliveryConfig = notifier.DeliveryConfig{
	Host:        "smtp.example.com",
	Port:        587,
	Username:    "mailer",
	Password:    "secret",
	FromAddress: notifier.DefaultFromAddress,
}

func newDispatcher(dialer dispatch.Dialer) *dispatch.Dispatcher {
	return &dispatch.Dispatcher{
		Dialer:   dialer,
		Template: dispatch.NewWelcomeTemplate(),
		Logger:   zerolog.Nop(),
	}
}

func TestDispatch(t *testing.T) {
	transport := &transportMock{}
	dialer := &dialerMock{transport: transport}

	result, err := newDispatcher(dialer).Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "Ana", Email: "ana@x.com"}, deliveryConfig)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, notifier.DispatchResult{
		Success:   true,
		Message:   dispatch.SuccessMessage,
		Recipient: "ana@x.com",
		EmailID:   msg.ID,
	}, result)

	assert.Equal(t, 1, dialer.dials)
	assert.True(t, transport.verified)
	assert.True(t, transport.closed)
	assert.Equal(t, "noreply@openstart.com", msg.From.Address)
	assert.Equal(t, "OpenStart", msg.From.Name)
	assert.Equal(t, "ana@x.com", msg.To.Address)
	assert.Equal(t, dispatch.WelcomeSubject, msg.Subject)
	assert.Contains(t, msg.Text, "Hi Ana,")
	assert.True(t, strings.HasSuffix(msg.ID, "@openstart.com"), msg.ID)
}

func TestDispatchFailures(t *testing.T) {
	cases := []struct {
		name        string
		dialer      *dialerMock
		cfg         notifier.DeliveryConfig
		expectedErr error
		dials       int
	}{
		{
			name:        "dial failure",
			dialer:      &dialerMock{dialErr: errors.New("connection refused")},
			cfg:         deliveryConfig,
			expectedErr: notifier.ErrTransport,
			dials:       1,
		},
		{
			name:        "verify failure",
			dialer:      &dialerMock{transport: &transportMock{verifyErr: errors.New("535 authentication failed")}},
			cfg:         deliveryConfig,
			expectedErr: notifier.ErrTransport,
			dials:       1,
		},
		{
			name:        "send failure",
			dialer:      &dialerMock{transport: &transportMock{sendErr: errors.New("550 mailbox unavailable")}},
			cfg:         deliveryConfig,
			expectedErr: notifier.ErrSend,
			dials:       1,
		},
		{
			name:   "invalid sender",
			dialer: &dialerMock{transport: &transportMock{}},
			cfg: notifier.DeliveryConfig{
				Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", FromAddress: "not an address",
			},
			expectedErr: notifier.ErrInvalidConfig,
			dials:       0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := newDispatcher(tc.dialer).Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "Ana", Email: "ana@x.com"}, tc.cfg)
			require.ErrorIs(t, err, tc.expectedErr)
			assert.False(t, result.Success)
			assert.Equal(t, err.Error(), result.Error)
			assert.Empty(t, result.EmailID)
			assert.Equal(t, tc.dials, tc.dialer.dials)

			if transport := tc.dialer.transport; transport != nil {
				assert.Empty(t, transport.sent)
				assert.Equal(t, tc.dials > 0, transport.closed)
			}
		})
	}
}

func TestDispatchVerifyFailureSkipsSend(t *testing.T) {
	transport := &transportMock{verifyErr: errors.New("tls handshake failed")}
	dialer := &dialerMock{transport: transport}

	_, err := newDispatcher(dialer).Dispatch(context.Background(), notifier.RecipientInfo{FirstName: "there", Email: "b@x.com"}, deliveryConfig)
	require.ErrorIs(t, err, notifier.ErrTransport)
	assert.Equal(t, 1, dialer.dials)
	assert.Empty(t, transport.sent)
}

func TestWelcomeTemplateEscapesName(t *testing.T) {
	rendered, err := dispatch.NewWelcomeTemplate().Render(notifier.RecipientInfo{FirstName: `<script>alert("x")</script>`, Email: "x@x.com"})
	require.NoError(t, err)

	assert.Equal(t, dispatch.WelcomeSubject, rendered.Subject)
	assert.NotContains(t, rendered.HTML, "<script>")
	assert.Contains(t, rendered.HTML, "&lt;script&gt;")
	assert.Contains(t, rendered.Text, `Hi <script>alert("x")</script>,`)
}

func TestMessageBytes(t *testing.T) {
	rendered, err := dispatch.NewWelcomeTemplate().Render(notifier.RecipientInfo{FirstName: "Grace", Email: "g@x.com"})
	require.NoError(t, err)

	from, err := mail.ParseAddress(notifier.DefaultFromAddress)
	require.NoError(t, err)
	msg := dispatch.NewMessage(from, &mail.Address{Name: "Grace", Address: "g@x.com"}, rendered)

	data, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, dispatch.WelcomeSubject, parsed.Header.Get("Subject"))
	assert.Equal(t, "<"+msg.ID+">", parsed.Header.Get("Message-ID"))
	assert.Contains(t, parsed.Header.Get("From"), "noreply@openstart.com")
	assert.Contains(t, parsed.Header.Get("To"), "g@x.com")
	assert.Contains(t, parsed.Header.Get("Content-Type"), "multipart/alternative")
	assert.Contains(t, string(data), "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, string(data), "Content-Type: text/html; charset=UTF-8")
}
