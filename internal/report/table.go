package report

import (
	"myfinance/internal/core"
	"myfinance/internal/stats"
)

var lineItemHeader = []string{"Date", "Type", "Category", "Subcategory", "Amount", "Currency", "Comment"}

// Table is the structured payload handed to document generators.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// Totals holds one [type, amount] row per type in display order.
	Totals [][]string
	// Breakdown holds [category, amount, share] rows for expenses.
	Breakdown [][]string
}

func ToTable(res stats.Result) Table {
	t := Table{
		Title:  "Transactions " + res.Window.String(),
		Header: append([]string(nil), lineItemHeader...),
		Rows:   make([][]string, 0, len(res.LineItems)),
	}
	for _, tx := range res.LineItems {
		t.Rows = append(t.Rows, []string{
			tx.Date.String(),
			tx.Type.String(),
			tx.Category,
			deref(tx.Subcategory),
			core.FormatAmount(tx.Amount),
			tx.Currency,
			deref(tx.Comment),
		})
	}
	for _, typ := range core.Types() {
		t.Totals = append(t.Totals, []string{typ.String(), core.FormatAmount(res.Total(typ))})
	}

	dist, ok := ToCategoryDistribution(res)
	if ok {
		total := res.Total(core.TypeExpense)
		for _, c := range dist {
			t.Breakdown = append(t.Breakdown, []string{c.Name, core.FormatAmount(c.Amount), share(c.Amount, total)})
		}
	}
	return t
}

// Records flattens the table into rows: header, line items, a blank row, the
// totals and, when present, a blank row and the expense breakdown.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+len(t.Totals)+len(t.Breakdown)+4)
	out = append(out, t.Header)
	out = append(out, t.Rows...)
	out = append(out, []string{})
	for _, row := range t.Totals {
		out = append(out, append([]string{"Total"}, row...))
	}
	if len(t.Breakdown) > 0 {
		out = append(out, []string{})
		out = append(out, []string{"Category", "Amount", "Share %"})
		out = append(out, t.Breakdown...)
	}
	return out
}

// ToCategoryDistribution returns the expense amount per category, largest
// first. ok is false when the window has no expense records.
func ToCategoryDistribution(res stats.Result) (dist []core.CategoryAmount, ok bool) {
	dist = res.Categories()
	if len(dist) == 0 {
		return nil, false
	}
	return dist, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
