package main

import (
	"context"
	"fmt"

	"myfinance/internal/backend"
	"myfinance/internal/config"
	"myfinance/internal/log"
	"myfinance/internal/report"
	gsheet "myfinance/internal/sheets/google"
	"myfinance/internal/stats"
)

// app holds the collaborators every command shares.
type app struct {
	backend    *backend.BackendResult
	aggregator *stats.Aggregator
	exporter   report.TableWriter
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	a := &app{
		backend:    res,
		aggregator: stats.NewAggregator(res.Store, logger),
		exporter:   report.NewCSVWriter(cfg.ExportDir),
	}

	if cfg.SheetsEnabled() {
		client, err := gsheet.NewClient(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			TransactionsSheet:  cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.WarnContext(ctx, "Google Sheets unavailable, exporting to CSV",
				log.FieldError, err,
				"export_dir", cfg.ExportDir)
		} else {
			a.exporter = client
		}
	}
	return a, nil
}

func (a *app) Close() error {
	if a.backend.Cleanup == nil {
		return nil
	}
	return a.backend.Cleanup()
}
