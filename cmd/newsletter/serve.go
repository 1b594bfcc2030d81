package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/newsletter/modules/newsletter"
	"github.com/dmitrymomot/newsletter/pkg/async"
	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/httpserver"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/pkg/ratelimiter"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
	"github.com/dmitrymomot/newsletter/svc/broadcast"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg Config) error {
	log := newLogger(cfg)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	go b.purgeLoop(ctx, cfg.App.PurgeInterval, log)

	m := metrics.New()
	mailer, err := email.NewService(cfg.Email,
		email.WithLogger(log),
		email.WithSendObserver(func(kind string, r email.Result, took time.Duration) {
			m.EmailSend(r.Provider, kind, r.Success, took)
		}),
	)
	if err != nil {
		b.close()
		return err
	}
	if !mailer.SupportsNewsletter() {
		log.Warn("email provider cannot send newsletters, broadcasts will fail",
			"provider", mailer.ProviderName())
	}

	subs := subscriber.NewService(b.store, mailer,
		subscriber.WithLogger(log),
		subscriber.WithMetrics(m),
	)
	group := async.NewGroup()
	broadcasts := broadcast.NewCoordinator(subs, mailer, group,
		broadcast.WithLogger(log),
		broadcast.WithMetrics(m),
		broadcast.WithStagger(cfg.Broadcast.Stagger),
		broadcast.WithSendTimeout(cfg.Broadcast.SendTimeout),
	)
	auth := adminauth.NewService(b.store, cfg.Admin, adminauth.WithLogger(log))

	var limiter *ratelimiter.Bucket
	if cfg.App.RateLimit {
		store := ratelimiter.NewMemoryStore()
		defer store.Close()
		if limiter, err = ratelimiter.NewBucket(store, cfg.RateLimit); err != nil {
			b.close()
			return err
		}
	}

	router := newsletter.Router(cfg.Web, newsletter.Deps{
		Subscribers: subs,
		Broadcasts:  broadcasts,
		Auth:        auth,
		Metrics:     m,
		Limiter:     limiter,
		Logger:      log,
		Ready:       b.checks,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		// Running broadcasts finish before the store goes away.
		httpserver.WithStopHook(group.Shutdown),
		httpserver.WithStopHook(func(context.Context) error {
			b.close()
			return nil
		}),
	)
	return srv.Run(ctx, router)
}
