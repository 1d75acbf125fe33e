// Package report turns aggregation results into text, table payloads and
// category distributions. Drawing documents or charts is left to TableWriter
// implementations and the host.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"myfinance/internal/core"
	"myfinance/internal/stats"
)

// ToText renders one line per transaction in store order, then one total line
// per type in the order expense, income, investment.
func ToText(res stats.Result) string {
	var b strings.Builder
	if res.Empty() {
		fmt.Fprintf(&b, "No transactions for %s\n", res.Window)
	} else {
		fmt.Fprintf(&b, "Transactions for %s:\n", res.Window)
		for _, tx := range res.LineItems {
			b.WriteString(line(tx))
			b.WriteByte('\n')
		}
	}
	for _, t := range core.Types() {
		fmt.Fprintf(&b, "Total %s: %s\n", t, core.FormatAmount(res.Total(t)))
	}
	return b.String()
}

func line(tx core.Transaction) string {
	s := fmt.Sprintf("%s %s %s %s %s", tx.Date, tx.Type, tx.Label(), core.FormatAmount(tx.Amount), tx.Currency)
	if tx.Comment != nil {
		s += " (" + *tx.Comment + ")"
	}
	return s
}

// DistributionText renders a category distribution as one line per category
// with its share of the expense total.
func DistributionText(dist []core.CategoryAmount) string {
	if len(dist) == 0 {
		return "No expenses in this period\n"
	}
	total := decimal.Zero
	for _, c := range dist {
		total = total.Add(c.Amount)
	}
	var b strings.Builder
	for _, c := range dist {
		fmt.Fprintf(&b, "%s: %s (%s%%)\n", c.Name, core.FormatAmount(c.Amount), share(c.Amount, total))
	}
	return b.String()
}

// share returns part as a percentage of total with one decimal.
func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0.0"
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1)
}
