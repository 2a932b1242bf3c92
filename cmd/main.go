// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/0x0BSoD/crossPoster/internal/config"
	"github.com/0x0BSoD/crossPoster/internal/crosspost"
	"github.com/0x0BSoD/crossPoster/internal/intake"
	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/metrics"
	"github.com/0x0BSoD/crossPoster/internal/model"
	"github.com/0x0BSoD/crossPoster/internal/platform/facebook"
	"github.com/0x0BSoD/crossPoster/internal/platform/telegram"
	"github.com/0x0BSoD/crossPoster/internal/platform/twitter"
	"github.com/0x0BSoD/crossPoster/internal/reporter"
	"github.com/0x0BSoD/crossPoster/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Get()

	lg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Printf("[ERROR] failed to create logger: %v", err)
		return
	}
	defer func() { _ = lg.Sync() }()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		lg.Error("failed to connect to db", logger.Error(err))
		return
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var (
		channelStorage     = storage.NewChannelStorage(db)
		publicationStorage = storage.NewPublicationStorage(db)
		sourceStorage      = storage.NewSourceStorage(db)
	)

	opts := []crosspost.Option{crosspost.WithMetrics(m)}
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			lg.Error("failed to create botAPI", logger.Error(err))
			return
		}
		opts = append(opts, crosspost.WithAlerter(reporter.New(botAPI, cfg.TelegramAdminChatID, lg)))
	}

	coordinator := crosspost.NewCoordinator(
		lg,
		dispatchers(cfg, channelStorage, lg, opts),
		crosspost.WithConcurrentPlatforms(cfg.ConcurrentPlatforms),
		crosspost.WithCoordinatorMetrics(m),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", m.Handler())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var runners sync.WaitGroup

	if cfg.RedisAddr != "" {
		client, err := intake.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			lg.Error("failed to connect to redis", logger.Error(err))
			return
		}
		defer client.Close()

		subscriber := intake.NewSubscriber(client, cfg.RedisChannel, coordinator, lg)
		startRunner(ctx, &runners, lg, "redis subscriber", subscriber.Start)
	}

	if cfg.FeedsEnabled {
		poller := intake.NewFeedPoller(
			publicationStorage,
			sourceStorage,
			coordinator,
			lg,
			cfg.FetchInterval,
			cfg.FilterKeywords,
		)
		startRunner(ctx, &runners, lg, "feed poller", poller.Start)
	}

	// runners finish their in-flight fan-outs before the redis and db closes run
	defer runners.Wait()

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	lg.Info("crossposter started",
		logger.String("listen_addr", cfg.ListenAddr),
		logger.Bool("dry_run", cfg.DryRun),
		logger.Bool("feeds_enabled", cfg.FeedsEnabled),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("failed to run http server", logger.Error(err))
		cancel()
		return
	}
	lg.Info("http server stopped")
}

// startRunner runs start in a goroutine tracked by wg and logs how it ended.
func startRunner(ctx context.Context, wg *sync.WaitGroup, lg logger.Logger, name string, start func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := start(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				lg.Error("failed to run "+name, logger.Error(err))
				return
			}

			lg.Info(name + " stopped")
		}
	}()
}

func dispatchers(cfg config.Config, directory crosspost.ChannelDirectory, lg logger.Logger, opts []crosspost.Option) []crosspost.Dispatcher {
	if cfg.DryRun {
		return []crosspost.Dispatcher{
			crosspost.NewLogDispatcher(model.PlatformFacebook, directory, lg, opts...),
			crosspost.NewLogDispatcher(model.PlatformTelegram, directory, lg, opts...),
			crosspost.NewLogDispatcher(model.PlatformTwitter, directory, lg, opts...),
		}
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	telegramPool := telegram.NewPool("", httpClient)

	return []crosspost.Dispatcher{
		crosspost.NewFacebookDispatcher(directory, func(token string) (crosspost.FacebookClient, error) {
			client, err := facebook.New(cfg.FacebookGraphURL, token, httpClient)
			if err != nil {
				return nil, err
			}
			return client, nil
		}, lg, opts...),
		crosspost.NewTelegramDispatcher(directory, func(token string) (crosspost.TelegramClient, error) {
			client, err := telegramPool.Get(token)
			if err != nil {
				return nil, err
			}
			return client, nil
		}, lg, opts...),
		crosspost.NewTwitterDispatcher(directory, twitter.New(cfg.TwitterAPIURL, cfg.HTTPTimeout), lg, opts...),
	}
}
