package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance/internal/core"
	"myfinance/internal/stats"
)

func sampleResult() stats.Result {
	d := core.NewDate(2025, 3, 14)
	return stats.Summarize(stats.Month(2025, 3), []core.Transaction{
		{ID: 1, UserID: 1, Type: core.TypeIncome, Category: "Salary", Amount: decimal.RequireFromString("1000"), Currency: "UAH", Date: d},
		{ID: 2, UserID: 1, Type: core.TypeExpense, Category: "Food", Subcategory: core.StringPtr("Cafe"),
			Amount: decimal.RequireFromString("123.45"), Currency: "UAH", Comment: core.StringPtr("latte"), Date: d},
		{ID: 3, UserID: 1, Type: core.TypeExpense, Category: "Transport", Amount: decimal.RequireFromString("376.55"), Currency: "USD", Date: d},
	})
}

func TestToText(t *testing.T) {
	t.Parallel()
	got := ToText(sampleResult())
	want := strings.Join([]string{
		"Transactions for 2025-03:",
		"2025-03-14 income Salary 1000.00 UAH",
		"2025-03-14 expense Food/Cafe 123.45 UAH (latte)",
		"2025-03-14 expense Transport 376.55 USD",
		"Total expense: 500.00",
		"Total income: 1000.00",
		"Total investment: 0.00",
	}, "\n") + "\n"
	assert.Equal(t, want, got)
}

func TestToText_EmptyWindowShowsAllTypes(t *testing.T) {
	t.Parallel()
	got := ToText(stats.Summarize(stats.Day(core.NewDate(2025, 1, 1)), nil))
	assert.Equal(t, "No transactions for 2025-01-01\nTotal expense: 0.00\nTotal income: 0.00\nTotal investment: 0.00\n", got)
}

func TestToTable(t *testing.T) {
	t.Parallel()
	tbl := ToTable(sampleResult())

	assert.Equal(t, "Transactions 2025-03", tbl.Title)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"2025-03-14", "expense", "Food", "Cafe", "123.45", "UAH", "latte"}, tbl.Rows[1])
	assert.Equal(t, [][]string{{"expense", "500.00"}, {"income", "1000.00"}, {"investment", "0.00"}}, tbl.Totals)
	assert.Equal(t, [][]string{{"Transport", "376.55", "75.3"}, {"Food", "123.45", "24.7"}}, tbl.Breakdown)

	records := tbl.Records()
	assert.Equal(t, lineItemHeader, records[0])
	assert.Equal(t, []string{"Total", "expense", "500.00"}, records[5])
	assert.Equal(t, []string{"Category", "Amount", "Share %"}, records[9])
}

func TestToCategoryDistribution(t *testing.T) {
	t.Parallel()
	dist, ok := ToCategoryDistribution(sampleResult())
	require.True(t, ok)
	require.Len(t, dist, 2)
	assert.Equal(t, "Transport", dist[0].Name)

	incomeOnly := stats.Summarize(stats.Year(2025), []core.Transaction{
		{UserID: 1, Type: core.TypeIncome, Category: "Salary", Amount: decimal.NewFromInt(5), Currency: "UAH", Date: core.NewDate(2025, 1, 1)},
	})
	dist, ok = ToCategoryDistribution(incomeOnly)
	assert.False(t, ok)
	assert.Empty(t, dist)
	assert.Empty(t, ToTable(incomeOnly).Breakdown)
}

func TestDistributionText(t *testing.T) {
	t.Parallel()
	dist, _ := ToCategoryDistribution(sampleResult())
	assert.Equal(t, "Transport: 376.55 (75.3%)\nFood: 123.45 (24.7%)\n", DistributionText(dist))
	assert.Equal(t, "No expenses in this period\n", DistributionText(nil))
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "exports")
	w := NewCSVWriter(dir)

	ref, err := w.WriteTable(context.Background(), ToTable(sampleResult()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transactions_2025-03.csv"), ref)

	f, err := os.Open(ref)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, lineItemHeader, rows[0])
	assert.Equal(t, "latte", rows[2][6])
}

func TestWriteCSV_QuotesFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tbl := Table{Header: []string{"Comment"}, Rows: [][]string{{"coffee, cake"}}}
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Contains(t, buf.String(), `"coffee, cake"`)
}

func TestFileName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "transactions_2025-03-14", fileName("Transactions 2025-03-14"))
	assert.Equal(t, "report", fileName("  "))
}
