// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tcgref/tcgref/lib/alert"
	"github.com/tcgref/tcgref/lib/bot"
	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/lib/command"
	"github.com/tcgref/tcgref/lib/config"
	"github.com/tcgref/tcgref/lib/dataset"
	"github.com/tcgref/tcgref/lib/dispatch"
	"github.com/tcgref/tcgref/lib/github"
	"github.com/tcgref/tcgref/lib/ingest"
	"github.com/tcgref/tcgref/lib/refdata"
	"github.com/tcgref/tcgref/lib/sealed"
	"github.com/tcgref/tcgref/lib/secret"
	"github.com/tcgref/tcgref/lib/service"
	"github.com/tcgref/tcgref/lib/snapshot"
	"github.com/tcgref/tcgref/lib/version"
	"github.com/tcgref/tcgref/messaging"
)

// app holds the running components. Close releases what newApp
// acquired, in reverse order.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	session messaging.Session
	loop    *dispatch.Loop
	intake  *ingest.Ingest
	bot     *bot.Bot
	writer  *snapshot.Writer
	watcher *dataset.Watcher
	webhook *service.HTTPServer
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var identity *secret.Buffer
	if cfg.Age.IdentityFile != "" {
		identity, err = sealed.ReadIdentity(cfg.Age.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("reading age identity: %w", err)
		}
		a.closers = append(a.closers, identity.Close)
	}
	readSecret := func(key, path string) (*secret.Buffer, error) {
		buffer, err := sealed.ReadSecretFile(path, identity)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		a.closers = append(a.closers, buffer.Close)
		return buffer, nil
	}

	matrixToken, err := readSecret("matrix.access_token_file", cfg.Matrix.AccessTokenFile)
	if err != nil {
		return nil, err
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	session, err := client.SessionFromToken(cfg.Matrix.ID(), matrixToken)
	if err != nil {
		return nil, err
	}
	a.session = session
	a.closers = append(a.closers, session.Close)
	if err := bot.VerifyIdentity(ctx, session); err != nil {
		return nil, err
	}

	source, err := a.datasetSource(readSecret)
	if err != nil {
		return nil, err
	}
	loader := dataset.NewLoader(source, logger)
	initial, err := loadInitial(ctx, loader, cfg.Cache.SnapshotPath, logger)
	if err != nil {
		return nil, err
	}

	journal, err := alert.OpenJournal(cfg.Journal.Path, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, journal.Close)
	router := alert.NewRouter(alert.RouterConfig{
		Messenger:    session,
		OperatorRoom: cfg.Bot.LogsRoomID(),
		Journal:      journal,
		Logger:       logger,
	})

	if cfg.Cache.SnapshotPath != "" {
		a.writer = snapshot.NewWriter(snapshot.WriterConfig{
			Path:        cfg.Cache.SnapshotPath,
			Compression: cfg.Cache.CompressionKind(),
			Logger:      logger,
		})
	}
	a.loop = dispatch.NewLoop(dispatch.Config{
		Store:  refdata.NewStore(initial, clock.Real()),
		Router: router,
		Logger: logger,
		OnApply: func(published *refdata.Context, update *refdata.Update) {
			loader.Applied(update)
			if a.writer != nil {
				a.writer.Offer(published)
			}
		},
	})

	registry := command.NewRegistry(command.RegistryConfig{
		Prefix: cfg.Bot.Prefix,
		Dev: command.DevPolicy{
			Admin: cfg.Bot.DevAdminID(),
			Room:  cfg.Bot.DevRoomID(),
			Users: cfg.Bot.DevUserIDs(),
		},
		Messenger: session,
		Logger:    logger,
	})
	registry.MustRegister(command.Builtins(command.BuiltinConfig{
		Reloader:   loader,
		Journal:    journal,
		PicsSource: cfg.Pics.DefaultSource,
	})...)
	logger.Info("commands registered", "prefix", registry.Prefix(), "count", len(registry.Commands()))

	events := bot.NewEventRegistry(a.loop, logger)
	events.On(bot.EventMessage, bot.CommandListener(registry))
	events.On(bot.EventInvite, bot.InviteListener(session))
	events.On(bot.EventReady, bot.ReadyListener(session, cfg.Bot.LogsRoomID(), version.Info()))
	a.bot = bot.New(bot.Config{
		Session: session,
		Events:  events,
		Timeout: cfg.Matrix.SyncTimeoutDuration(),
		Logger:  logger,
	})

	a.intake = ingest.New(ingest.Config{
		Filter: ingest.PushFilter{
			Branches:         cfg.GitHub.Branches,
			AutomationMarker: cfg.GitHub.AutomationMarker,
		},
		Invoker: a.loop,
		Handler: loader.Handler,
		Logger:  logger,
	})

	if cfg.GitHub.WebhookListen != "" {
		webhookSecret, err := readSecret("github.webhook_secret_file", cfg.GitHub.WebhookSecretFile)
		if err != nil {
			return nil, err
		}
		handler := ingest.NewWebhookHandler(webhookSecret.Bytes(), clock.Real(), logger, func(push ingest.Push) {
			a.intake.HandlePush(push)
		})
		a.webhook = service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.GitHub.WebhookListen,
			Handler: handler,
			Health:  a.health,
			Logger:  logger,
		})
	}

	if cfg.Dataset.Source == config.SourceLocal && cfg.Dataset.Watch {
		a.watcher, err = dataset.NewWatcher(dataset.WatcherConfig{
			Root:     cfg.Dataset.Directory,
			Debounce: cfg.Dataset.DebounceDuration(),
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *app) datasetSource(readSecret func(key, path string) (*secret.Buffer, error)) (dataset.Source, error) {
	if a.cfg.Dataset.Source == config.SourceLocal {
		return dataset.DirSource{Root: a.cfg.Dataset.Directory}, nil
	}
	token, err := readSecret("github.token_file", a.cfg.GitHub.TokenFile)
	if err != nil {
		return nil, err
	}
	client, err := github.NewClient(github.Config{Token: token, Logger: a.logger})
	if err != nil {
		return nil, err
	}
	return dataset.GitHubSource{
		Client: client,
		Repo: github.Repository{
			Owner: a.cfg.GitHub.Owner,
			Name:  a.cfg.GitHub.Repo,
			Ref:   a.cfg.GitHub.Ref,
		},
	}, nil
}

// healthReport is served on the webhook listener's health path.
type healthReport struct {
	Ingest    string `json:"ingest"`
	Pending   int    `json:"pending"`
	Revision  uint64 `json:"revision"`
	Cards     int    `json:"cards"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (a *app) health() any {
	current := a.loop.Snapshot()
	report := healthReport{
		Ingest:   a.intake.State().String(),
		Pending:  a.intake.Pending(),
		Revision: current.Revision,
		Cards:    len(current.Babel),
	}
	if !current.UpdatedAt.IsZero() {
		report.UpdatedAt = current.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return report
}

// loadInitial loads the whole dataset, falling back to the last saved
// snapshot when the source is unavailable.
func loadInitial(ctx context.Context, loader *dataset.Loader, snapshotPath string, logger *slog.Logger) (*refdata.Context, error) {
	initial, loadErr := loader.Load(ctx)
	if loadErr == nil {
		logger.Info("dataset loaded", "cards", len(initial.Babel))
		return initial, nil
	}
	if snapshotPath == "" {
		return nil, fmt.Errorf("loading dataset: %w", loadErr)
	}
	cached, err := snapshot.Load(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", errors.Join(loadErr, fmt.Errorf("loading snapshot: %w", err)))
	}
	logger.Warn("dataset unavailable, starting from snapshot",
		"error", loadErr,
		"snapshot", snapshotPath,
		"revision", cached.Revision,
		"cards", len(cached.Babel),
	)
	return cached, nil
}

// Run runs every component until ctx ends or one of them fails.
func (a *app) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return a.loop.Run(groupCtx) })
	group.Go(func() error { return a.intake.Run(groupCtx) })
	if a.writer != nil {
		group.Go(func() error { return a.writer.Run(groupCtx) })
	}
	if a.webhook != nil {
		group.Go(func() error { return a.webhook.Serve(groupCtx) })
		group.Go(func() error {
			select {
			case <-a.webhook.Ready():
				a.logger.Info("webhook listener ready", "address", a.webhook.Addr().String())
			case <-groupCtx.Done():
			}
			return nil
		})
	}
	if a.watcher != nil {
		group.Go(func() error {
			return a.watcher.Run(groupCtx, func(changes ingest.ChangeSet) {
				a.intake.Enqueue(changes, alert.KindWatch)
			})
		})
	}
	group.Go(func() error { return a.bot.Run(groupCtx) })
	return group.Wait()
}

// Close releases secrets, the journal, and the session.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
