package console_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance/internal/console"
	"myfinance/internal/core"
	"myfinance/internal/report"
	"myfinance/internal/session"
	"myfinance/internal/stats"
	"myfinance/internal/store/memory"
	"myfinance/internal/taxonomy"
	"myfinance/internal/wizard"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type failingRecorder struct{}

func (failingRecorder) Save(context.Context, core.Transaction) (int64, error) {
	return 0, errors.New("disk full")
}

type fixture struct {
	host      *console.Host
	store     *memory.Store
	exportDir string
}

func newFixture(t *testing.T, rec wizard.Recorder) fixture {
	t.Helper()
	st := memory.New()
	if rec == nil {
		rec = st
	}
	m, err := wizard.New(wizard.Config{
		Tree:       taxonomy.Default(),
		Currencies: []string{"UAH", "USD", "EUR"},
		Recorder:   rec,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	dir := t.TempDir()
	h, err := console.New(console.Config{
		Machine:    m,
		Sessions:   session.NewRegistry(session.Config{Profiles: st}),
		Aggregator: stats.NewAggregator(st, nil),
		Profiles:   st,
		Exporter:   report.NewCSVWriter(dir),
		UserID:     42,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{host: h, store: st, exportDir: dir}
}

func (f fixture) send(t *testing.T, lines ...string) string {
	t.Helper()
	var reply string
	for _, line := range lines {
		var err error
		reply, err = f.host.Handle(context.Background(), line)
		require.NoError(t, err, "line %q", line)
	}
	return reply
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := console.New(console.Config{})
	assert.Error(t, err)
}

func TestHandle_FullExpenseFlow(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.send(t, "/start"), "expense | income | investment")
	assert.Contains(t, f.send(t, "expense"), "Food")
	assert.Contains(t, f.send(t, "Food"), "Groceries | Cafe | Delivery | none")
	assert.Contains(t, f.send(t, "Groceries"), "Enter the amount for Food/Groceries")
	assert.Contains(t, f.send(t, "123,45"), "UAH | USD | EUR")
	assert.Contains(t, f.send(t, "UAH"), "Add a comment")

	reply := f.send(t, "-")
	assert.Contains(t, reply, "Saved #1: expense Food/Groceries 123.45 UAH.")
	assert.Contains(t, reply, "Choose the operation type")

	tx, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), tx.UserID)
	assert.Nil(t, tx.Comment)
	assert.Equal(t, "2025-03-14", tx.Date.String())
}

func TestHandle_InvalidInputsReprompt(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.send(t, "/start", "expense", "Nope")
	assert.Contains(t, reply, `"Nope" is not one of the options`)
	assert.Contains(t, reply, "Choose a expense category")

	reply = f.send(t, "Clothes", "abc")
	assert.Contains(t, reply, `"abc" is not an amount`)
	assert.Contains(t, reply, "Enter the amount for Clothes")
}

func TestHandle_BackAndCancel(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/start", "expense", "Food")
	assert.Contains(t, f.send(t, "/back"), "Choose a expense category")
	assert.Contains(t, f.send(t, "/back"), "Choose the operation type")
	assert.Contains(t, f.send(t, "/back"), "Choose the operation type")

	f.send(t, "income", "Salary")
	reply := f.send(t, "/cancel")
	assert.Contains(t, reply, "Cancelled.")
	assert.Contains(t, reply, "Choose the operation type")
	assert.Equal(t, 0, f.store.Len())
}

func TestHandle_DefaultCurrency(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Contains(t, f.send(t, "/currency"), "Default currency: none")
	assert.Contains(t, f.send(t, "/currency XYZ"), `"XYZ" is not a configured currency`)
	assert.Equal(t, "Default currency set to EUR.", f.send(t, "/currency EUR"))

	cur, ok, err := f.store.DefaultCurrency(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "EUR", cur)

	// The currency step is skipped.
	assert.Contains(t, f.send(t, "/start", "expense", "Clothes", "10"), "Add a comment to Clothes 10.00 EUR")
	assert.Contains(t, f.send(t, "new shoes"), "Saved #1: expense Clothes 10.00 EUR.")

	assert.Equal(t, "Default currency cleared.", f.send(t, "/currency none"))
	_, ok, err = f.store.DefaultCurrency(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, f.send(t, "/start", "expense", "Clothes", "10"), "UAH | USD | EUR")
}

func TestHandle_PersistenceFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, failingRecorder{})

	f.send(t, "/start", "expense", "Clothes", "10", "USD")
	reply := f.send(t, "shirt")
	assert.Contains(t, reply, "Could not save the transaction")
	assert.Contains(t, reply, "Add a comment to Clothes 10.00 USD")
}

func TestHandle_Stats(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.send(t, "/stats"), "No transactions for 2025-03-14")
	assert.Contains(t, f.send(t, "/stats 2025-13"), `"2025-13" is not a window`)

	f.send(t, "/start", "expense", "Food", "none", "100", "UAH", "lunch")
	f.send(t, "income", "Salary", "500", "UAH", "-")

	reply := f.send(t, "/stats")
	assert.Contains(t, reply, "Transactions for 2025-03-14:")
	assert.Contains(t, reply, "2025-03-14 expense Food 100.00 UAH (lunch)")
	assert.Contains(t, reply, "Total expense: 100.00")
	assert.Contains(t, reply, "Total income: 500.00")
	assert.Contains(t, reply, "Total investment: 0.00")

	assert.Contains(t, f.send(t, "/stats 2025"), "Transactions for 2025:")
	assert.Contains(t, f.send(t, "/stats 2024-03"), "No transactions for 2024-03")
}

func TestHandle_TablePieExport(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, "No expenses for 2025-03", f.send(t, "/pie"))

	f.send(t, "/start", "expense", "Food", "Cafe", "30", "EUR", "-")
	f.send(t, "expense", "Clothes", "10", "EUR", "-")

	pie := f.send(t, "/pie")
	assert.Contains(t, pie, "Expenses for 2025-03:")
	assert.Contains(t, pie, "Food: 30.00 (75.0%)")
	assert.Contains(t, pie, "Clothes: 10.00 (25.0%)")

	table := f.send(t, "/table")
	assert.True(t, strings.HasPrefix(table, "Transactions 2025-03"))
	assert.Contains(t, table, "Cafe")

	reply := f.send(t, "/export 2025-03")
	require.True(t, strings.HasPrefix(reply, "Exported to "), reply)
	data, err := os.ReadFile(strings.TrimPrefix(reply, "Exported to "))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Food,Cafe,30.00,EUR")
}

func TestHandle_Commands(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.send(t, "/help"), "/stats [window]")
	assert.Equal(t, "Unknown command /nope. Try /help.", f.send(t, "/nope"))
	assert.Empty(t, f.send(t, "   "))

	_, err := f.host.Handle(context.Background(), "/quit")
	assert.ErrorIs(t, err, console.ErrQuit)
}

func TestRun(t *testing.T) {
	f := newFixture(t, nil)

	in := strings.NewReader("expense\nClothes\n5\nUSD\n-\n/quit\nincome\n")
	var out bytes.Buffer
	require.NoError(t, f.host.Run(context.Background(), in, &out))

	assert.Contains(t, out.String(), "Choose the operation type")
	assert.Contains(t, out.String(), "Saved #1: expense Clothes 5.00 USD.")
	assert.Contains(t, out.String(), "Bye")
	assert.Equal(t, 1, f.store.Len())
}

func TestRun_EOF(t *testing.T) {
	f := newFixture(t, nil)
	var out bytes.Buffer
	require.NoError(t, f.host.Run(context.Background(), strings.NewReader("/help\n"), &out))
	assert.Contains(t, out.String(), "Commands:")
}
