package wizard

import "fmt"

// State is a step of the entry flow.
type State int

const (
	AwaitingType State = iota
	AwaitingCategory
	AwaitingSubcategory
	AwaitingAmount
	AwaitingCurrency
	AwaitingComment
	Committed
)

var stateNames = [...]string{
	AwaitingType:        "awaiting_type",
	AwaitingCategory:    "awaiting_category",
	AwaitingSubcategory: "awaiting_subcategory",
	AwaitingAmount:      "awaiting_amount",
	AwaitingCurrency:    "awaiting_currency",
	AwaitingComment:     "awaiting_comment",
	Committed:           "committed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// transitions lists every state reachable from a given state, forward and
// backward. Every non-initial state may also return to AwaitingType on cancel.
var transitions = map[State][]State{
	AwaitingType:        {AwaitingCategory},
	AwaitingCategory:    {AwaitingSubcategory, AwaitingAmount, AwaitingType},
	AwaitingSubcategory: {AwaitingAmount, AwaitingCategory, AwaitingType},
	AwaitingAmount:      {AwaitingCurrency, AwaitingComment, AwaitingSubcategory, AwaitingCategory, AwaitingType},
	AwaitingCurrency:    {AwaitingComment, AwaitingAmount, AwaitingType},
	AwaitingComment:     {Committed, AwaitingCurrency, AwaitingAmount, AwaitingType},
	Committed:           {AwaitingType, AwaitingComment},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
