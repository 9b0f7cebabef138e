package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/brightlane/prospect-cli/internal/email"
	"github.com/brightlane/prospect-cli/internal/store"
	"github.com/brightlane/prospect-cli/pkg/places"
)

// initStore opens the configured snapshot store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPlaces builds the Places API client from config.
func initPlaces() (places.Client, error) {
	if cfg.Places.Key == "" {
		return nil, eris.New("places api key is required (places.key)")
	}
	opts := []places.Option{
		places.WithPageDelay(cfg.Places.PageDelay()),
		places.WithRateLimit(cfg.Places.RateLimitRPS),
	}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	return places.NewClient(cfg.Places.Key, opts...), nil
}

// initEmail builds the contact-email discoverer from config.
func initEmail() *email.Discoverer {
	var opts []email.Option
	if cfg.Email.Workers > 0 {
		opts = append(opts, email.WithWorkers(cfg.Email.Workers))
	}
	if len(cfg.Email.Paths) > 0 {
		opts = append(opts, email.WithPaths(cfg.Email.Paths))
	}
	return email.NewDiscoverer(opts...)
}
