package category

import (
	"strings"

	"insights/internal/core"
)

// rule maps merchant keywords to a category. Rules are evaluated in order
// and the first match wins, so more specific keywords must come first.
type rule struct {
	keywords   []string
	categoryID int
}

var rules = []rule{
	{keywords: []string{"rent"}, categoryID: Rent},
	{keywords: []string{"netflix", "spotify"}, categoryID: Subscriptions},
	{keywords: []string{"telus", "rogers", "bell"}, categoryID: CellPhones},
	{keywords: []string{"hydro"}, categoryID: Electricity},
	{keywords: []string{"metro", "iga", "loblaws", "costco"}, categoryID: Groceries},
	{keywords: []string{"tim hortons", "starbucks"}, categoryID: Coffee},
	{keywords: []string{"transfer", "etransfer", "e-transfer"}, categoryID: Transfers},
}

func (r rule) matches(name string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Suggest returns a best-guess category id for a normalized (lowercased)
// merchant name, or false when no rule applies. Income with no keyword match
// falls back to Salary. The suggestion is advisory: callers must prefer an
// explicitly supplied category.
func Suggest(normalizedName string, txType core.TransactionType) (int, bool) {
	name := strings.ToLower(normalizedName)
	for _, r := range rules {
		if r.matches(name) {
			return r.categoryID, true
		}
	}
	if txType == core.Income {
		return Salary, true
	}
	return 0, false
}

// Apply fills in the heuristic suggestion for every candidate that has no
// explicit category. Candidates that still match nothing stay uncategorized.
func Apply(inputs []core.TransactionInput) {
	for i := range inputs {
		if inputs[i].CategoryID != nil {
			continue
		}
		if id, ok := Suggest(inputs[i].NormalizedName, inputs[i].Type); ok {
			suggested := id
			inputs[i].CategoryID = &suggested
		}
	}
}
