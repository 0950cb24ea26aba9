package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rakeshkumar9142/OpenStart-sub000/internal/cli"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/events"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/management"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/welcome"
)

func main() {
	app := kingpin.New("welcome-worker", "Database event consumer and RPC server for the OpenStart welcome notifier")

	AMQPURI := app.Flag("amqp-uri", "The AMQP URI to connect to").Envar("AMQP_URI").Short('u').Required().String()
	envFile := app.Flag("env-file", "Path to an env file with the SMTP settings").Envar("ENV_FILE").Short('e').String()

	verbose := app.Flag("verbose", "Enables debug logging").Short('v').Bool()
	pretty := app.Flag("pretty", "Enables pretty logging").Short('p').Bool()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := cli.Logger(*verbose, *pretty)

	if err := cli.LoadEnvFile(*envFile); err != nil {
		logger.Fatal().Err(err).Msg("Error loading env file.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := welcome.New(logger)

	consumer := &events.Consumer{
		MQURI:   *AMQPURI,
		Logger:  logger,
		Handler: handler,
	}
	if err := consumer.New(); err != nil {
		logger.Fatal().Err(err).Msg("Error initializing consumer.")
	}
	defer consumer.Close()

	server := &management.Server{
		Logger:     logger,
		Connection: consumer.Connection(),
		Handler:    handler,
	}

	errs := make(chan error, 2)
	go func() { errs <- server.Run(ctx) }()
	go func() { errs <- consumer.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-errs:
		if ctx.Err() != nil {
			logger.Info().Msg("Shutdown signal received")
			return
		}
		if err == nil {
			err = errors.New("worker stopped without a shutdown signal")
		}
		logger.Fatal().Err(err).Msg("Error running worker.")
	}
}
