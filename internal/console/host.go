// Package console drives the wizard and the stats commands over a
// line-oriented terminal session for a single user.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/report"
	"myfinance/internal/session"
	"myfinance/internal/stats"
	"myfinance/internal/store"
	"myfinance/internal/wizard"
)

const helpText = `Commands:
  /start             show the main menu, dropping any draft
  /back              go back one step
  /cancel            drop the draft
  /stats [window]    transactions and totals, today by default
  /table [window]    table report, this month by default
  /pie [window]      expense share per category, this month by default
  /export [window]   write the table report, this month by default
  /currency [label]  show or set the default currency, "none" clears it
  /help              this text
  /quit              exit
A window is YYYY, YYYY-MM or YYYY-MM-DD.`

// ErrQuit is returned by Handle for /quit.
var ErrQuit = errors.New("quit")

type Config struct {
	Machine    *wizard.Machine
	Sessions   *session.Registry
	Aggregator *stats.Aggregator
	Profiles   store.ProfileStore
	// Exporter receives /export tables. Optional.
	Exporter report.TableWriter
	UserID   int64
	Location *time.Location
	Now      func() time.Time
	Logger   *log.Logger
}

type Host struct {
	machine    *wizard.Machine
	sessions   *session.Registry
	aggregator *stats.Aggregator
	profiles   store.ProfileStore
	exporter   report.TableWriter
	userID     int64
	loc        *time.Location
	now        func() time.Time
	logger     *log.Logger
}

func New(cfg Config) (*Host, error) {
	if cfg.Machine == nil || cfg.Sessions == nil || cfg.Aggregator == nil {
		return nil, errors.New("console: machine, sessions and aggregator are required")
	}
	h := &Host{
		machine:    cfg.Machine,
		sessions:   cfg.Sessions,
		aggregator: cfg.Aggregator,
		profiles:   cfg.Profiles,
		exporter:   cfg.Exporter,
		userID:     cfg.UserID,
		loc:        cfg.Location,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = log.Discard()
	}
	h.logger = h.logger.WithComponent(log.ComponentConsole)
	return h, nil
}

// Run greets the user and answers every input line until EOF, /quit or ctx
// is done.
func (h *Host) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	greeting, _ := h.Handle(ctx, "/start")
	fmt.Fprintln(out, greeting)
	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			reply, err := h.Handle(ctx, line)
			if errors.Is(err, ErrQuit) {
				fmt.Fprintln(out, "Bye")
				return nil
			}
			if reply != "" {
				fmt.Fprintln(out, reply)
			}
		}
	}
}

// Handle answers one input line and returns the text to show. Failures are
// reported in the text; the only error is ErrQuit.
func (h *Host) Handle(ctx context.Context, line string) (string, error) {
	ctx = log.WithUser(log.WithLogger(ctx, h.logger), h.userID)
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, "/") {
		return h.answer(ctx, line), nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return "", ErrQuit
	case "/start":
		return h.withSession(ctx, func(s *wizard.Session) string {
			return formatPrompt(h.machine.Cancel(s))
		}), nil
	case "/cancel":
		return h.withSession(ctx, func(s *wizard.Session) string {
			return "Cancelled.\n" + formatPrompt(h.machine.Cancel(s))
		}), nil
	case "/back":
		return h.withSession(ctx, func(s *wizard.Session) string {
			return formatPrompt(h.machine.Back(s))
		}), nil
	case "/stats":
		return h.stats(ctx, arg, stats.Day(h.today())), nil
	case "/table":
		return h.table(ctx, arg), nil
	case "/pie":
		return h.pie(ctx, arg), nil
	case "/export":
		return h.export(ctx, arg), nil
	case "/currency":
		return h.currency(ctx, arg), nil
	case "/help":
		return helpText, nil
	default:
		return fmt.Sprintf("Unknown command %s. Try /help.", cmd), nil
	}
}

func (h *Host) withSession(ctx context.Context, fn func(*wizard.Session) string) string {
	var reply string
	err := h.sessions.Do(ctx, h.userID, func(s *wizard.Session) error {
		reply = fn(s)
		return nil
	})
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Session unavailable", log.FieldError, err)
		return "Something went wrong, please try again."
	}
	return reply
}

// answer feeds free text to the wizard step the session is at.
func (h *Host) answer(ctx context.Context, text string) string {
	return h.withSession(ctx, func(s *wizard.Session) string {
		var err error
		switch s.State() {
		case wizard.AwaitingType:
			err = h.machine.SelectType(s, text)
		case wizard.AwaitingCategory:
			err = h.machine.SelectCategory(s, text)
		case wizard.AwaitingSubcategory:
			err = h.machine.SelectSubcategory(s, text)
		case wizard.AwaitingAmount:
			err = h.machine.EnterAmount(s, text)
		case wizard.AwaitingCurrency:
			err = h.machine.SelectCurrency(s, text)
		case wizard.AwaitingComment:
			var tx core.Transaction
			tx, err = h.machine.EnterComment(ctx, s, text)
			if err == nil {
				return fmt.Sprintf("Saved #%d: %s %s %s %s.\n%s",
					tx.ID, tx.Type, tx.Label(), core.FormatAmount(tx.Amount), tx.Currency,
					formatPrompt(h.machine.Prompt(s)))
			}
		}
		if err == nil {
			return formatPrompt(h.machine.Prompt(s))
		}
		return h.explain(ctx, s, err)
	})
}

func (h *Host) explain(ctx context.Context, s *wizard.Session, err error) string {
	var inputErr *wizard.InputError
	switch {
	case errors.As(err, &inputErr) && errors.Is(err, core.ErrInvalidAmount):
		return fmt.Sprintf("%q is not an amount.\n%s", inputErr.Input, formatPrompt(h.machine.Prompt(s)))
	case errors.As(err, &inputErr):
		return fmt.Sprintf("%q is not one of the options.\n%s", inputErr.Input, formatPrompt(h.machine.Prompt(s)))
	case errors.Is(err, core.ErrPersistence):
		return "Could not save the transaction, send the comment again to retry.\n" +
			formatPrompt(h.machine.Prompt(s))
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Wizard step failed",
			log.FieldState, s.State().String(),
			log.FieldError, err)
		return "The draft no longer matches the categories and was dropped.\n" +
			formatPrompt(h.machine.Cancel(s))
	}
}

func (h *Host) today() core.Date {
	return core.DateOf(h.now().In(h.loc))
}

func (h *Host) window(arg string, def stats.Window) (stats.Window, error) {
	if arg == "" {
		return def, nil
	}
	return stats.ParseWindow(arg)
}

func (h *Host) thisMonth() stats.Window {
	d := h.today()
	return stats.Month(d.Year(), d.Month())
}

func (h *Host) aggregate(ctx context.Context, arg string, def stats.Window) (stats.Result, string) {
	w, err := h.window(arg, def)
	if err != nil {
		return stats.Result{}, fmt.Sprintf("%q is not a window. Use YYYY, YYYY-MM or YYYY-MM-DD.", arg)
	}
	res, err := h.aggregator.Aggregate(ctx, h.userID, w)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Aggregation failed",
			log.FieldWindow, w.String(),
			log.FieldError, err)
		return stats.Result{}, "Could not load transactions, please try again."
	}
	return res, ""
}

func (h *Host) stats(ctx context.Context, arg string, def stats.Window) string {
	res, msg := h.aggregate(ctx, arg, def)
	if msg != "" {
		return msg
	}
	return strings.TrimRight(report.ToText(res), "\n")
}

func (h *Host) table(ctx context.Context, arg string) string {
	res, msg := h.aggregate(ctx, arg, h.thisMonth())
	if msg != "" {
		return msg
	}
	return renderTable(report.ToTable(res))
}

func (h *Host) pie(ctx context.Context, arg string) string {
	res, msg := h.aggregate(ctx, arg, h.thisMonth())
	if msg != "" {
		return msg
	}
	dist, ok := report.ToCategoryDistribution(res)
	if !ok {
		return fmt.Sprintf("No expenses for %s", res.Window)
	}
	return fmt.Sprintf("Expenses for %s:\n%s", res.Window, strings.TrimRight(report.DistributionText(dist), "\n"))
}

func (h *Host) export(ctx context.Context, arg string) string {
	if h.exporter == nil {
		return "Export is not configured."
	}
	res, msg := h.aggregate(ctx, arg, h.thisMonth())
	if msg != "" {
		return msg
	}
	ref, err := h.exporter.WriteTable(ctx, report.ToTable(res))
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldWindow, res.Window.String(),
			log.FieldError, err)
		return "Export failed, please try again."
	}
	log.FromContext(ctx).InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldWindow, res.Window.String(),
		log.FieldSheetsRef, ref)
	return "Exported to " + ref
}

func (h *Host) currency(ctx context.Context, arg string) string {
	options := strings.Join(h.machine.Currencies(), " | ")
	if arg == "" {
		return h.withSession(ctx, func(s *wizard.Session) string {
			current := s.DefaultCurrency()
			if current == "" {
				current = "none"
			}
			return fmt.Sprintf("Default currency: %s\n  %s | none", current, options)
		})
	}

	label := arg
	if strings.EqualFold(label, "none") || label == wizard.NoComment {
		label = ""
	} else if !h.machine.HasCurrency(label) {
		return fmt.Sprintf("%q is not a configured currency.\n  %s | none", arg, options)
	}

	if h.profiles != nil {
		if err := h.profiles.SetDefaultCurrency(ctx, h.userID, label); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Saving default currency failed",
				log.FieldCurrency, label,
				log.FieldError, err)
			return "Could not save the default currency, please try again."
		}
	}
	return h.withSession(ctx, func(s *wizard.Session) string {
		s.SetDefaultCurrency(label)
		if label == "" {
			return "Default currency cleared."
		}
		return "Default currency set to " + label + "."
	})
}

func formatPrompt(p wizard.Prompt) string {
	if len(p.Options) == 0 {
		return p.Text
	}
	return p.Text + "\n  " + strings.Join(p.Options, " | ")
}

func renderTable(t report.Table) string {
	var b strings.Builder
	b.WriteString(t.Title)
	b.WriteByte('\n')
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, rec := range t.Records() {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
