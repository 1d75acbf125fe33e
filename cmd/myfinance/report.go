package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/report"
	"myfinance/internal/stats"
)

type reportCmd struct {
	Window string `arg:"" optional:"" help:"YYYY, YYYY-MM or YYYY-MM-DD. Defaults to the current month."`
	User   int64  `default:"1" help:"User id to report on."`
	Format string `default:"text" help:"Output format: text, csv or export."`
}

func (r *reportCmd) Run(g *globals) error {
	cfg, logger := g.Config, g.Logger
	ctx := context.Background()

	w, err := r.window(cfg.Timezone)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.aggregator.Aggregate(ctx, r.User, w)
	if err != nil {
		return err
	}

	switch strings.ToLower(r.Format) {
	case "text":
		_, err = fmt.Fprint(os.Stdout, report.ToText(res))
		return err
	case "csv":
		return report.WriteCSV(os.Stdout, report.ToTable(res))
	case "export":
		ref, err := a.exporter.WriteTable(ctx, report.ToTable(res))
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, ref)
		return nil
	default:
		return fmt.Errorf("unknown format %q: use text, csv or export", r.Format)
	}
}

func (r *reportCmd) window(timezone string) (stats.Window, error) {
	if r.Window != "" {
		return stats.ParseWindow(r.Window)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return stats.Window{}, err
	}
	today := core.DateOf(time.Now().In(loc))
	return stats.Month(today.Year(), today.Month()), nil
}
