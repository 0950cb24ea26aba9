package webhook

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// API describes the HTTP trigger of the welcome notifier.
type API struct {
	Logger  zerolog.Logger
	Handler notifier.Handler
}

// Engine builds the gin engine serving the API.
func (api *API) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/welcome", api.welcomeHandler)
	r.POST("/welcome", api.welcomeHandler)
	r.POST("/events", api.eventHandler)

	return r
}

// Run runs the API instance at a given bind address.
func (api *API) Run(bind string) error {
	gin.SetMode(gin.ReleaseMode)
	api.Logger.Info().Str("bind", bind).Msg("Webhook started")
	return api.Engine().Run(bind)
}

func (api *API) requestLogger() gin.HandlerFunc {
	logger := api.Logger.With().Str("module", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
