package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinance/internal/cache"
	"myfinance/internal/cli"
	"myfinance/internal/console"
	"myfinance/internal/log"
	"myfinance/internal/session"
	"myfinance/internal/taxonomy"
	"myfinance/internal/wizard"
)

const sessionSweepInterval = time.Minute

type runCmd struct {
	User int64 `default:"1" help:"User id the console session belongs to."`
}

func (r *runCmd) Run(g *globals) error {
	cfg, logger := g.Config, g.Logger
	if r.User == 0 {
		return errors.New("user id must not be 0")
	}

	sigCtx, stop := cli.SignalContext(context.Background())
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	tree, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
	}()

	machine, err := wizard.New(wizard.Config{
		Tree:       tree,
		Currencies: cfg.Currencies,
		Recorder:   a.backend.Recorder,
		Logger:     logger,
		Location:   loc,
	})
	if err != nil {
		return err
	}
	sessions := session.NewRegistry(session.Config{
		TTL:      cfg.SessionTTL,
		MaxSize:  cfg.SessionMax,
		Profiles: a.backend.Profiles,
		Logger:   logger,
	})
	host, err := console.New(console.Config{
		Machine:    machine,
		Sessions:   sessions,
		Aggregator: a.aggregator,
		Profiles:   a.backend.Profiles,
		Exporter:   a.exporter,
		UserID:     r.User,
		Location:   loc,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	caches := cache.NewManager(logger)
	caches.Register("sessions", sessions.Cleaner())

	logger.InfoContext(ctx, "Console started",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		log.FieldUserID, r.User)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		return host.Run(egCtx, os.Stdin, os.Stdout)
	})
	eg.Go(func() error {
		caches.StartCleanup(sessionSweepInterval)
		<-egCtx.Done()
		caches.Stop()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	logger.Info("Console stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
