// Command respondentctl manages respondent records from the terminal against
// the configured store.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/bootstrap"
	"github.com/noah-isme/respondent-registry-api/internal/config"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	root := newRootCmd(func(ctx context.Context) (*session, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return openSession(ctx, cfg, logger)
	}, logger)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openSession(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*session, error) {
	resources, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	respondents, _, err := bootstrap.Services(resources, cfg, logger)
	if err != nil {
		_ = resources.Close(ctx)
		return nil, err
	}

	return &session{
		store:   respondents,
		variant: respondents.Variant(),
		close:   func() error { return resources.Close(context.Background()) },
	}, nil
}
