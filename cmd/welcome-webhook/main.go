package main

import (
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rakeshkumar9142/OpenStart-sub000/internal/cli"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/ingress/webhook"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/welcome"
)

func main() {
	app := kingpin.New("welcome-webhook", "HTTP trigger for the OpenStart welcome notifier")

	bind := app.Flag("bind", "The address to bind to").Default("[::]:8080").Envar("BIND").Short('b').String()
	envFile := app.Flag("env-file", "Path to an env file with the SMTP settings").Envar("ENV_FILE").Short('e').String()

	verbose := app.Flag("verbose", "Enables debug logging").Short('v').Bool()
	pretty := app.Flag("pretty", "Enables pretty logging").Short('p').Bool()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := cli.Logger(*verbose, *pretty)

	if err := cli.LoadEnvFile(*envFile); err != nil {
		logger.Fatal().Err(err).Msg("Error loading env file.")
	}

	api := &webhook.API{
		Logger:  logger,
		Handler: welcome.New(logger),
	}

	if err := api.Run(*bind); err != nil {
		logger.Fatal().Err(err).Msg("Error running webhook.")
	}
}
