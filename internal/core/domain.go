package core

import (
	"errors"
	"strings"
	"time"
)

// TransactionType classifies a transaction by the direction of money.
type TransactionType string

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
	Other    TransactionType = "OTHER"
)

// CategoryKind mirrors TransactionType for the static category set.
type CategoryKind string

const (
	KindIncome   CategoryKind = "INCOME"
	KindExpense  CategoryKind = "EXPENSE"
	KindTransfer CategoryKind = "TRANSFER"
	KindOther    CategoryKind = "OTHER"
)

// Timeframe selects the dashboard bucket size.
type Timeframe string

const (
	Week    Timeframe = "WEEK"
	Month   Timeframe = "MONTH"
	Quarter Timeframe = "QUARTER"
	Year    Timeframe = "YEAR"
)

// ParseTimeframe returns the timeframe for s, defaulting to Month.
// The second return is false when s named no known timeframe.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(strings.ToUpper(strings.TrimSpace(s))) {
	case Week:
		return Week, true
	case Month, "":
		return Month, true
	case Quarter:
		return Quarter, true
	case Year:
		return Year, true
	default:
		return Month, false
	}
}

type (
	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name,omitempty"`
		Locale       string    `json:"locale"`
		Currency     string    `json:"currency"`
		Province     string    `json:"province,omitempty"`
		Phone        string    `json:"phone,omitempty"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Session struct {
		Token     string
		UserID    string
		CreatedAt time.Time
		ExpiresAt time.Time
	}

	Account struct {
		ID          string    `json:"id"`
		UserID      string    `json:"userId"`
		Name        string    `json:"name"`
		Institution string    `json:"institution"`
		Type        string    `json:"type"`
		Currency    string    `json:"currency"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Transaction is the persisted form of a normalized statement record.
	Transaction struct {
		ID             string          `json:"id"`
		UserID         string          `json:"userId"`
		AccountID      string          `json:"accountId"`
		CategoryID     *int            `json:"categoryId"`
		Description    string          `json:"description"`
		NormalizedName string          `json:"normalizedName"`
		Amount         Money           `json:"amount"`
		Currency       string          `json:"currency"`
		Type           TransactionType `json:"transactionType"`
		CashflowSign   int             `json:"cashflowSign"`
		Date           time.Time       `json:"date"`
		IsTransfer     bool            `json:"isTransfer"`
		IsRecurring    bool            `json:"isRecurring"`
		CreatedAt      time.Time       `json:"createdAt"`
	}

	// TransactionInput is a candidate transaction before it gets identity.
	TransactionInput struct {
		UserID         string
		AccountID      string
		CategoryID     *int
		Description    string
		NormalizedName string
		Amount         Money
		Currency       string
		Type           TransactionType
		CashflowSign   int
		Date           time.Time
		IsTransfer     bool
		IsRecurring    bool
	}

	Goal struct {
		ID       string `json:"id"`
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Target   Money  `json:"target"`
		Progress Money  `json:"progress"`
		Priority int    `json:"priority"`
	}

	Insight struct {
		ID     string         `json:"id"`
		UserID string         `json:"userId"`
		Type   string         `json:"type"`
		Title  string         `json:"title"`
		Body   string         `json:"body"`
		Data   map[string]any `json:"data,omitempty"`
		Status string         `json:"status"`
	}

	InsightModule struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Insights    []Insight `json:"insights"`
	}

	InsightFeedback struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		InsightID string    `json:"insightId"`
		Value     string    `json:"value"`
		Comment   string    `json:"comment,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// TypeForAmount derives the transaction type from a signed amount.
// A zero amount maps to Transfer; zero-amount rows are dropped during
// normalization, so for imports the case is unreachable and kept only
// for completeness.
func TypeForAmount(m Money) TransactionType {
	switch {
	case m.Cents > 0:
		return Income
	case m.Cents < 0:
		return Expense
	default:
		return Transfer
	}
}

// NormalizeName lowercases a description for heuristic matching and search.
func NormalizeName(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// DetectTransfer reports whether a description looks like a movement between
// the user's own accounts.
func DetectTransfer(description string) bool {
	lowered := strings.ToLower(description)
	return strings.Contains(lowered, "transfer") ||
		strings.Contains(lowered, "etransfer") ||
		strings.Contains(lowered, "e-transfer")
}

func (t TransactionInput) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// EnforceSign re-derives the cashflow sign from the amount so a caller cannot
// persist a sign that disagrees with it. Transfers keep the sign they were
// given: statement imports carry sign(amount) while seeded transfers use 0.
func (t *TransactionInput) EnforceSign() {
	if !t.IsTransfer {
		t.CashflowSign = t.Amount.Sign()
	}
}
