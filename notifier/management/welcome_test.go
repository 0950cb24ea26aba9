package management

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

type handlerMock struct {
	envelopes []notifier.TriggerEnvelope
}

func (h *handlerMock) Handle(_ context.Context, envelope notifier.TriggerEnvelope) (notifier.DispatchResult, int) {
	h.envelopes = append(h.envelopes, envelope)
	return notifier.DispatchResult{Success: true, Message: "sent", Recipient: "ana@x.com", EmailID: "id@openstart.com"}, http.StatusOK
}

func TestHandlers(t *testing.T) {
	server := &Server{Logger: zerolog.Nop(), Handler: &handlerMock{}}
	handlers := server.Handlers()

	assert.Len(t, handlers, 1)
	assert.Contains(t, handlers, notifier.WelcomeCall)
}

func TestWelcomeHandler(t *testing.T) {
	handler := &handlerMock{}
	server := &Server{Logger: zerolog.Nop(), Handler: handler}

	data := server.welcomeHandler(context.Background(), []byte(`{
		"source": "direct_object",
		"body": {"first_name": "Ana", "email": "ana@x.com"},
		"variables": {"SMTP_HOST": "relay.example.org"}
	}`))

	var response Response
	require.NoError(t, json.Unmarshal(data, &response))
	assert.Equal(t, Response{
		Status: http.StatusOK,
		DispatchResult: notifier.DispatchResult{
			Success:   true,
			Message:   "sent",
			Recipient: "ana@x.com",
			EmailID:   "id@openstart.com",
		},
	}, response)

	require.Len(t, handler.envelopes, 1)
	envelope := handler.envelopes[0]
	assert.Equal(t, notifier.DirectObject, envelope.Source)
	assert.Equal(t, map[string]interface{}{"first_name": "Ana", "email": "ana@x.com"}, envelope.RawBody)
	assert.Equal(t, map[string]string{"SMTP_HOST": "relay.example.org"}, envelope.Variables)
}

func TestWelcomeHandlerRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not json", data: "first_name=Ana"},
		{name: "unknown source", data: `{"source":"carrier_pigeon","body":{"email":"ana@x.com"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &handlerMock{}
			server := &Server{Logger: zerolog.Nop(), Handler: handler}

			var response Response
			require.NoError(t, json.Unmarshal(server.welcomeHandler(context.Background(), []byte(tc.data)), &response))
			assert.Equal(t, http.StatusBadRequest, response.Status)
			assert.False(t, response.Success)
			assert.Contains(t, response.Error, notifier.ErrNoData.Error())
			assert.Empty(t, handler.envelopes)
		})
	}
}
