package webhook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Headers carrying the name of a database event.
var eventHeaders = []string{"X-Appwrite-Event", "X-Event-Name"}

// welcomeHandler passes the raw request body to the resolver untouched. Requests
// without a body use their query string instead.
func (api *API) welcomeHandler(c *gin.Context) {
	logger := api.Logger.With().Str("module", "handler").Logger()
	logger.Debug().Msg("Request received")

	body, err := c.GetRawData()
	if err != nil {
		logger.Err(err).Msg("Error reading request body")
		c.AbortWithStatusJSON(400, notifier.Failure(notifier.ErrNoData))
		return
	}

	var raw interface{}
	if len(bytes.TrimSpace(body)) > 0 {
		raw = string(body)
	} else if query := c.Request.URL.RawQuery; query != "" {
		raw = query
	}

	result, status := api.Handler.Handle(c.Request.Context(), notifier.TriggerEnvelope{
		Source:  notifier.HTTPBody,
		RawBody: raw,
		Headers: requestHeaders(c),
	})
	c.JSON(status, result)
}

// eventHandler receives database events relayed over HTTP. The body must be the
// JSON document that was created.
func (api *API) eventHandler(c *gin.Context) {
	logger := api.Logger.With().Str("module", "handler").Logger()

	body, err := c.GetRawData()
	if err != nil {
		logger.Err(err).Msg("Error reading request body")
		c.AbortWithStatusJSON(400, notifier.Failure(notifier.ErrNoData))
		return
	}

	var document map[string]interface{}
	if err := notifier.Unmarshal(body, &document); err != nil || document == nil {
		err = fmt.Errorf("%w: event body is not a JSON document", notifier.ErrNoData)
		logger.Err(err).Bytes("data", body).Msg("Error decoding event")
		c.AbortWithStatusJSON(400, notifier.Failure(err))
		return
	}

	var eventName string
	for _, header := range eventHeaders {
		if eventName = c.GetHeader(header); eventName != "" {
			break
		}
	}

	result, status := api.Handler.Handle(c.Request.Context(), notifier.TriggerEnvelope{
		Source:    notifier.DatabaseEvent,
		RawBody:   document,
		EventName: eventName,
		Headers:   requestHeaders(c),
	})
	c.JSON(status, result)
}

func requestHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}
	return headers
}
