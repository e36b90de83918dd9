// Package category holds the static category reference set and the
// best-effort categorization heuristic for imported transactions.
package category

import "insights/internal/core"

// Category is one entry of the read-only reference set.
type Category struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Kind        core.CategoryKind `json:"kind"`
	ParentID    *int              `json:"parentId,omitempty"`
}

// Well-known ids referenced by the heuristic and the aggregator.
const (
	Rent          = 101
	Electricity   = 111
	CellPhones    = 114
	Groceries     = 116
	Coffee        = 118
	Subscriptions = 126
	Salary        = 131
	Transfers     = 138
)

func parent(id int) *int { return &id }

var categories = []Category{
	{ID: 100, Name: "Home", DisplayName: "Home", Kind: core.KindExpense},
	{ID: 101, Name: "Rent", DisplayName: "Rent", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 102, Name: "Pets", DisplayName: "Pets", Kind: core.KindExpense},
	{ID: 103, Name: "Daycare", DisplayName: "Daycare", Kind: core.KindExpense},
	{ID: 104, Name: "Transport", DisplayName: "Transport", Kind: core.KindExpense},
	{ID: 105, Name: "Car", DisplayName: "Car", Kind: core.KindExpense, ParentID: parent(104)},
	{ID: 106, Name: "Bank and other fees", DisplayName: "Bank & fees", Kind: core.KindExpense},
	{ID: 107, Name: "Other bills", DisplayName: "Other bills", Kind: core.KindExpense},
	{ID: 108, Name: "Utilities (Home insurance)", DisplayName: "Home insurance", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 109, Name: "Utilities (Gas)", DisplayName: "Gas utility", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 110, Name: "Utilities (Car insurance)", DisplayName: "Car insurance", Kind: core.KindExpense, ParentID: parent(104)},
	{ID: 111, Name: "Utilities (Electric)", DisplayName: "Electricity", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 112, Name: "Utilities (Water)", DisplayName: "Water", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 113, Name: "Utilities (Utility)", DisplayName: "Utilities", Kind: core.KindExpense, ParentID: parent(100)},
	{ID: 114, Name: "Utilities (Cell phones)", DisplayName: "Cell phones", Kind: core.KindExpense, ParentID: parent(107)},
	{ID: 115, Name: "Utilities (Internet)", DisplayName: "Internet", Kind: core.KindExpense, ParentID: parent(107)},
	{ID: 116, Name: "Groceries", DisplayName: "Groceries", Kind: core.KindExpense},
	{ID: 117, Name: "Eating Out", DisplayName: "Eating out", Kind: core.KindExpense},
	{ID: 118, Name: "Coffee", DisplayName: "Coffee", Kind: core.KindExpense},
	{ID: 119, Name: "Health", DisplayName: "Health", Kind: core.KindExpense},
	{ID: 120, Name: "Travel", DisplayName: "Travel", Kind: core.KindExpense},
	{ID: 121, Name: "Shopping", DisplayName: "Shopping", Kind: core.KindExpense},
	{ID: 122, Name: "Clothes", DisplayName: "Clothes", Kind: core.KindExpense, ParentID: parent(121)},
	{ID: 123, Name: "Beauty", DisplayName: "Beauty", Kind: core.KindExpense},
	{ID: 124, Name: "Education", DisplayName: "Education", Kind: core.KindExpense},
	{ID: 125, Name: "Work", DisplayName: "Work", Kind: core.KindExpense},
	{ID: 126, Name: "Subscriptions", DisplayName: "Subscriptions", Kind: core.KindExpense},
	{ID: 127, Name: "Family & Personal", DisplayName: "Family & personal", Kind: core.KindExpense},
	{ID: 128, Name: "Sport & Hobbies", DisplayName: "Sport & hobbies", Kind: core.KindExpense},
	{ID: 129, Name: "Entertainment", DisplayName: "Entertainment", Kind: core.KindExpense},
	{ID: 130, Name: "Gym membership", DisplayName: "Gym membership", Kind: core.KindExpense},
	{ID: 131, Name: "Salary", DisplayName: "Salary", Kind: core.KindIncome},
	{ID: 132, Name: "Business", DisplayName: "Business", Kind: core.KindIncome},
	{ID: 133, Name: "Loan", DisplayName: "Loan", Kind: core.KindIncome},
	{ID: 134, Name: "Gifts", DisplayName: "Gifts", Kind: core.KindIncome},
	{ID: 135, Name: "Extra income", DisplayName: "Extra income", Kind: core.KindIncome},
	{ID: 136, Name: "Other income", DisplayName: "Other income", Kind: core.KindIncome},
	{ID: 137, Name: "Tax", DisplayName: "Tax", Kind: core.KindOther},
	{ID: 138, Name: "Transfers", DisplayName: "Transfers", Kind: core.KindTransfer},
}

var byID = func() map[int]Category {
	m := make(map[int]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// All returns a copy of the reference set.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ByID looks up a category by id.
func ByID(id int) (Category, bool) {
	c, ok := byID[id]
	return c, ok
}
