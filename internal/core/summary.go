package core

// CashflowPoint is one reporting bucket of the dashboard.
type CashflowPoint struct {
	Period  string `json:"period"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"` // absolute value
	Other   Money  `json:"other"`
}

// CategorySpend is one row of the category breakdown, total as absolute value.
type CategorySpend struct {
	CategoryID   int    `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Total        Money  `json:"total"`
}

type SummaryTotals struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Other    Money `json:"other"`
	Savings  Money `json:"savings"`
}

type BudgetSnapshot struct {
	MonthlyBudget    Money           `json:"monthlyBudget"`
	SpentThisMonth   Money           `json:"spentThisMonth"`
	SavingsThisMonth Money           `json:"savingsThisMonth"`
	Categories       []CategorySpend `json:"categories"`
}

type SavingsSnapshot struct {
	LastPeriod Money  `json:"lastPeriod"`
	SinceStart Money  `json:"sinceStart"`
	Goals      []Goal `json:"goals"`
}

// DashboardSummary is derived fresh per request and never persisted.
type DashboardSummary struct {
	Cashflow          []CashflowPoint `json:"cashflow"`
	CategoryBreakdown []CategorySpend `json:"categoryBreakdown"`
	Totals            SummaryTotals   `json:"totals"`
	Budget            BudgetSnapshot  `json:"budget"`
	Savings           SavingsSnapshot `json:"savings"`
}

// UploadResult reports the outcome of a statement import.
type UploadResult struct {
	Imported []Transaction `json:"imported"`
	Skipped  []SkippedRow  `json:"skipped"`
	Stats    UploadStats   `json:"stats"`
}

// SkippedRow records a statement row that was dropped during normalization,
// together with the raw row for auditing.
type SkippedRow struct {
	Reason string            `json:"reason"`
	Row    map[string]string `json:"row"`
}

type UploadStats struct {
	TotalRows          int `json:"totalRows"`
	ImportedRows       int `json:"importedRows"`
	DetectedDuplicates int `json:"detectedDuplicates"` // duplicate detection is stubbed
	DetectedTransfers  int `json:"detectedTransfers"`
}
