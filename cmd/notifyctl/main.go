package main

import (
	"context"
	"fmt"
	"os"

	"github.com/streadway/amqp"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rakeshkumar9142/OpenStart-sub000/internal/cli"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/management"
	"github.com/rakeshkumar9142/OpenStart-sub000/rpc"
)

func main() {
	app := kingpin.New("notifyctl", "Sends an OpenStart welcome email through a running welcome-worker")

	AMQPURI := app.Flag("amqp-uri", "The AMQP URI to connect to").Envar("AMQP_URI").Short('u').Required().String()
	timeout := app.Flag("timeout", "How long to wait for the worker").Default(notifier.DefaultRPCTimeout.String()).Duration()
	variables := app.Flag("var", "Configuration override passed to the worker (KEY=VALUE)").StringMap()

	verbose := app.Flag("verbose", "Enables debug logging").Short('v').Bool()
	pretty := app.Flag("pretty", "Enables pretty logging").Short('p').Bool()

	firstName := app.Flag("first-name", "Recipient first name").String()
	email := app.Flag("email", "Recipient email address").String()
	body := app.Flag("body", "Raw trigger body, resolved like an HTTP request body").String()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := cli.Logger(*verbose, *pretty)

	envelope := notifier.TriggerEnvelope{Variables: *variables}
	if *body != "" {
		envelope.Source = notifier.HTTPBody
		envelope.RawBody = *body
	} else {
		object := map[string]interface{}{}
		if *firstName != "" {
			object["first_name"] = *firstName
		}
		if *email != "" {
			object["email"] = *email
		}
		envelope.Source = notifier.DirectObject
		envelope.RawBody = object
	}

	request, err := notifier.Marshal(envelope)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error encoding trigger.")
	}

	conn, err := amqp.Dial(*AMQPURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error connecting to message broker.")
	}
	defer conn.Close()

	client := &rpc.Client{
		Logger:             logger,
		Connection:         conn,
		Exchange:           notifier.Exchange,
		RequestRoutingKey:  notifier.RPCRoutingKey,
		ResponseRoutingKey: notifier.RPCResponseRoutingKey,
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	data, err := client.Call(ctx, notifier.WelcomeCall, request)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error calling welcome worker.")
	}

	var response management.Response
	if err := notifier.Unmarshal(data, &response); err != nil {
		logger.Fatal().Err(err).Bytes("data", data).Msg("Error decoding response.")
	}
	fmt.Println(string(data))

	if !response.Success {
		os.Exit(1)
	}
}
