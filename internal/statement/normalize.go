package statement

import (
	"time"

	"insights/internal/core"
)

// Column-name synonyms, tried in order; the first matching header wins.
var (
	amountColumns      = []string{"amount", "cad", "value"}
	creditColumns      = []string{"credit", "deposit", "in"}
	debitColumns       = []string{"debit", "withdrawal", "out"}
	dateColumns        = []string{"date", "transaction date", "posted date", "date posted", "timestamp"}
	descriptionColumns = []string{"description", "details", "memo", "transaction", "merchant", "name"}
)

// Date layouts tried in order; the first that yields a valid calendar date
// wins. US month-first is tried before day-first, matching the candidate
// order of the layouts, so "13/05/2024" only parses as day-first.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"Jan 2, 2006",
}

// Free-form fallbacks for dates no fixed layout matched.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"2 Jan 2006",
}

const placeholderDescription = "Transaction"

// Skip reasons reported in the upload result.
const (
	SkipZeroAmount = "zero or missing amount"
	SkipBadDate    = "missing or unparseable date"
)

// Options carries the caller-supplied context of an upload.
type Options struct {
	UserID    string
	AccountID string
	Currency  string // default currency applied to every candidate
}

// Normalize converts raw rows into transaction candidates. Rows whose amount
// resolves to exactly zero or whose date cannot be parsed are dropped and
// reported in skipped; this is policy, not a parse failure. Candidates carry
// no category: the heuristic runs later and an explicit category, when the
// caller supplies one, always takes precedence.
func Normalize(rows []RawRow, opts Options) (candidates []core.TransactionInput, skipped []core.SkippedRow) {
	currency := opts.Currency
	if currency == "" {
		currency = "CAD"
	}
	for _, row := range rows {
		amount, ok := resolveAmount(row)
		if !ok || amount == 0 {
			skipped = append(skipped, core.SkippedRow{Reason: SkipZeroAmount, Row: row})
			continue
		}
		date, ok := resolveDate(row)
		if !ok {
			skipped = append(skipped, core.SkippedRow{Reason: SkipBadDate, Row: row})
			continue
		}
		description := resolveDescription(row)
		money := core.CentsOf(amount)
		candidates = append(candidates, core.TransactionInput{
			UserID:         opts.UserID,
			AccountID:      opts.AccountID,
			Description:    description,
			NormalizedName: core.NormalizeName(description),
			Amount:         money,
			Currency:       currency,
			Type:           core.TypeForAmount(money),
			CashflowSign:   money.Sign(),
			Date:           date,
			IsTransfer:     core.DetectTransfer(description),
		})
	}
	return candidates, skipped
}

// resolveAmount prefers a single signed amount column; otherwise it combines
// separate credit and debit columns as credit − debit, a missing column
// counting as zero.
func resolveAmount(row RawRow) (cents int64, ok bool) {
	if raw, found := row.column(amountColumns); found && raw != "" {
		v, err := core.ParseAmountCents(raw)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	var credit, debit int64
	if raw, found := row.column(creditColumns); found && raw != "" {
		v, err := core.ParseAmountCents(raw)
		if err != nil {
			return 0, false
		}
		credit = v
	}
	if raw, found := row.column(debitColumns); found && raw != "" {
		v, err := core.ParseAmountCents(raw)
		if err != nil {
			return 0, false
		}
		debit = v
	}
	return credit - debit, true
}

func resolveDate(row RawRow) (time.Time, bool) {
	raw, found := row.column(dateColumns)
	if !found || raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func resolveDescription(row RawRow) string {
	raw, found := row.column(descriptionColumns)
	if !found || raw == "" {
		return placeholderDescription
	}
	return raw
}
