package wizard

import (
	"fmt"

	"myfinance/internal/core"
)

// Prompt is what the host shows for the current state: a message and the
// labels the user may pick. Options is empty for free-text steps.
type Prompt struct {
	State   State
	Text    string
	Options []string
}

// Prompt describes the current step of s.
func (m *Machine) Prompt(s *Session) Prompt {
	p := Prompt{State: s.state}
	switch s.state {
	case AwaitingType:
		p.Text = "Choose the operation type"
		for _, t := range m.tree.Types() {
			p.Options = append(p.Options, t.String())
		}
	case AwaitingCategory:
		p.Text = fmt.Sprintf("Choose a %s category", s.draft.Type)
		p.Options, _ = m.tree.Categories(s.draft.Type)
	case AwaitingSubcategory:
		p.Text = fmt.Sprintf("Choose a subcategory of %s", s.draft.Category)
		subs, _ := m.tree.Subcategories(s.draft.Type, s.draft.Category)
		p.Options = append(subs, NoSubcategory)
	case AwaitingAmount:
		p.Text = fmt.Sprintf("Enter the amount for %s", label(s.draft))
	case AwaitingCurrency:
		p.Text = fmt.Sprintf("Choose the currency for %s", core.FormatAmount(s.draft.Amount.Decimal))
		p.Options = m.Currencies()
	case AwaitingComment:
		p.Text = fmt.Sprintf("Add a comment to %s %s %s, or %s to skip",
			label(s.draft), core.FormatAmount(s.draft.Amount.Decimal), s.draft.Currency, NoComment)
		p.Options = []string{NoComment}
	case Committed:
		p.Text = "Saving..."
	}
	return p
}

func label(d Draft) string {
	if d.Subcategory == nil {
		return d.Category
	}
	return d.Category + "/" + *d.Subcategory
}
