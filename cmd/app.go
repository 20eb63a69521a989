package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamSellers/oakley-bookings/internal/auth"
	"github.com/adamSellers/oakley-bookings/internal/cache"
	"github.com/adamSellers/oakley-bookings/internal/calendar"
	"github.com/adamSellers/oakley-bookings/internal/config"
	"github.com/adamSellers/oakley-bookings/internal/db"
	"github.com/adamSellers/oakley-bookings/internal/engine"
	"github.com/adamSellers/oakley-bookings/internal/migrate"
	"github.com/adamSellers/oakley-bookings/internal/places"
	"github.com/adamSellers/oakley-bookings/internal/platform"
	"github.com/adamSellers/oakley-bookings/internal/resy"
	"github.com/adamSellers/oakley-bookings/internal/store"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

// app wires the full stack for a single CLI invocation.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	db     *db.DB
	store  *store.Store
	cache  *cache.Cache
	auth   *auth.Resolver
	resy   *resy.Client
	engine *engine.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.AppEnv)

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, err
	}
	st := store.New(d)

	resolver, err := auth.NewResolver(st, cfg.SecretKey, cfg.GoogleAPIKey, cfg.ResyAPIKey, cfg.ResyAuthToken)
	if err != nil {
		d.Close()
		return nil, err
	}

	creds, err := resolver.ResyCredentials(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("resy credentials unavailable, continuing without")
	}
	resyClient := resy.New(creds, cfg.RequestTimeout)

	googleKey, err := resolver.GoogleKey(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("google key unavailable, discovery disabled")
	}
	discovery := places.New(googleKey, cfg.RequestTimeout)

	// detection only consults the resy directory when credentials exist
	var dir platform.ResyDirectory
	if creds.Configured() {
		dir = resyClient
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		db:    d,
		store: st,
		cache: cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log),
		auth:  resolver,
		resy:  resyClient,
	}
	a.engine = engine.New(
		st,
		strategy.NewSet(resyClient),
		platform.NewDetector(dir),
		discovery,
		calendar.New(cfg.CalendarWebhookURL, cfg.RequestTimeout, log),
		a.cache,
		log,
		engine.Options{
			DefaultLat:     cfg.DefaultLat,
			DefaultLng:     cfg.DefaultLng,
			DefaultRadiusM: cfg.DefaultRadiusM,
			Location:       time.Local,
			Now:            time.Now,
		},
	)
	return a, nil
}

func (a *app) Close() {
	a.cache.Close()
	a.db.Close()
}

// runApp handles the bootstrap/teardown boilerplate shared by every command.
func runApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func out(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
