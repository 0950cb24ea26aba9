// Package cli holds the setup shared by the notifier binaries.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Logger builds the process logger the way every binary configures it.
func Logger(verbose, pretty bool) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}

// LoadEnvFile loads variables from path into the process environment. Variables
// already set win. An empty path is a no-op.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("godotenv.Load failed: %w", err)
	}
	return nil
}
