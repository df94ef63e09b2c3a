package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/gusto-eats/internal/bot"
	"github.com/iliyamo/gusto-eats/internal/config"
	"github.com/iliyamo/gusto-eats/internal/database"
	"github.com/iliyamo/gusto-eats/internal/handler"
	"github.com/iliyamo/gusto-eats/internal/middleware"
	"github.com/iliyamo/gusto-eats/internal/queue"
	"github.com/iliyamo/gusto-eats/internal/repository"
	"github.com/iliyamo/gusto-eats/internal/router"
	"github.com/iliyamo/gusto-eats/internal/utils"
)

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, webhook and order notification consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg := config.Load()
	logger := newLogger("server", cfg)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable: response cache and rate limit disabled, bot sessions kept in memory")
	} else {
		defer rdb.Close()
	}

	images := utils.ImageStore{Root: cfg.MediaDir, MaxSize: cfg.MaxFileSize}
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	reviews := repository.NewReviewRepo(db)
	orders := repository.NewOrderRepo(db)
	events := queue.NewPublisher(cfg.RabbitURL)

	var (
		photos  handler.PhotoSender
		webhook *handler.WebhookHandler
	)
	notifier := bot.NewNotifier(nil, cfg.OwnerChatID, images)
	if cfg.BotEnabled() {
		api, err := bot.NewClient(cfg.BotToken)
		if err != nil {
			return err
		}
		notifier.API = api
		photos = notifier

		tg := bot.New(api, bot.NewSessionStore(rdb), users, products, orders, cfg.WebhookURL, cfg.BcryptCost)
		tg.Events = events
		tg.Photos = notifier
		tg.Logger.SetLevel(logLevel(cfg.Env))
		webhook = handler.NewWebhookHandler(cfg.BotToken, tg)

		go func() {
			rctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if err := bot.Register(rctx, api, cfg.WebhookURL, cfg.BotToken); err != nil {
				logger.Errorf("telegram registration: %v", err)
				return
			}
			logger.Infof("telegram webhook set to %s/bot/<token>", cfg.WebhookURL)
		}()
	} else {
		// order events are still consumed and logged
		notifier.OwnerChatID = 0
		logger.Info("BOT_TOKEN not set: telegram bot disabled")
	}
	queue.StartOrderConsumer(ctx, cfg.RabbitURL, notifier)
	go purgeBlacklist(ctx, tokens, logger)

	e := newEcho(cfg, rdb, logger)
	router.RegisterRoutes(e, router.Handlers{
		Health:     &handler.HealthHandler{DB: db},
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Users:      handler.NewUserHandler(cfg, users, tokens),
		Categories: handler.NewCategoryHandler(categories, images),
		Products:   handler.NewProductHandler(products, reviews, images, photos),
		Orders:     handler.NewOrderHandler(orders, events),
		Reviews:    handler.NewReviewHandler(reviews),
		Media:      handler.NewMediaHandler(images),
		Index:      handler.NewIndexHandler(categories, products),
		Webhook:    webhook,
	}, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Blacklist: tokens,
		Accounts:  users,
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

func newEcho(cfg config.Config, rdb *redis.Client, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.Env))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Errorf("%s %s %d %s %s: %v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			logger.Infof("%s %s %d %s %s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	return e
}

// purgeBlacklist drops expired blacklist rows once an hour.
func purgeBlacklist(ctx context.Context, tokens *repository.TokenRepo, logger *log.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.PurgeExpired(ctx, now.UTC())
			switch {
			case err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, sql.ErrConnDone):
				logger.Warnf("purge blacklist: %v", err)
			case n > 0:
				logger.Debugf("purged %d expired blacklist rows", n)
			}
		}
	}
}
