package statement

import (
	"testing"
	"time"

	"insights/internal/core"
)

func normalizeCSV(t *testing.T, csv string) ([]core.TransactionInput, []core.SkippedRow) {
	t.Helper()
	rows, err := ParseRows([]byte(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Normalize(rows, Options{UserID: "u1", AccountID: "a1", Currency: "CAD"})
}

func TestNormalizeBasicImport(t *testing.T) {
	candidates, skipped := normalizeCSV(t,
		"Date,Description,Amount\n"+
			"2024-01-05,Netflix,-16.49\n"+
			"2024-01-10,Employer Inc,3985.50\n")
	if len(candidates) != 2 || len(skipped) != 0 {
		t.Fatalf("expected 2 candidates, got %d (skipped %d)", len(candidates), len(skipped))
	}

	nf := candidates[0]
	if nf.Amount.Cents != -1649 || nf.Type != core.Expense || nf.CashflowSign != -1 {
		t.Fatalf("unexpected netflix candidate: %+v", nf)
	}
	if nf.NormalizedName != "netflix" {
		t.Fatalf("normalized name should be lowercased, got %q", nf.NormalizedName)
	}
	if nf.Date != time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected date %v", nf.Date)
	}

	pay := candidates[1]
	if pay.Amount.Cents != 398550 || pay.Type != core.Income || pay.CashflowSign != 1 {
		t.Fatalf("unexpected payroll candidate: %+v", pay)
	}
	if pay.CategoryID != nil {
		t.Fatalf("normalizer must not categorize")
	}
}

func TestNormalizeDropsZeroAndBlankAmount(t *testing.T) {
	candidates, skipped := normalizeCSV(t,
		"Date,Description,Amount\n"+
			"2024-01-05,Fee reversal,0\n"+
			"2024-01-06,Pending hold,\n"+
			"2024-01-07,Groceries,-50.00\n")
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", len(skipped))
	}
	for _, s := range skipped {
		if s.Reason != SkipZeroAmount {
			t.Fatalf("unexpected skip reason %q", s.Reason)
		}
	}
	for _, c := range candidates {
		if c.Amount.Cents == 0 {
			t.Fatalf("zero-amount candidate leaked through")
		}
	}
}

func TestNormalizeDropsUnparseableDate(t *testing.T) {
	candidates, skipped := normalizeCSV(t,
		"Date,Description,Amount\n"+
			"not a date,Netflix,-16.49\n")
	if len(candidates) != 0 || len(skipped) != 1 {
		t.Fatalf("expected drop, got %d candidates %d skipped", len(candidates), len(skipped))
	}
	if skipped[0].Reason != SkipBadDate {
		t.Fatalf("unexpected reason %q", skipped[0].Reason)
	}
}

func TestNormalizeCreditDebitColumns(t *testing.T) {
	candidates, skipped := normalizeCSV(t,
		"Date,Memo,Credit,Debit\n"+
			"2024-02-01,Deposit,100.00,\n"+
			"2024-02-02,Withdrawal,,40.25\n"+
			"2024-02-03,Wash,25.00,25.00\n")
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Amount.Cents != 10000 {
		t.Fatalf("credit-only row: expected 10000, got %d", candidates[0].Amount.Cents)
	}
	if candidates[1].Amount.Cents != -4025 {
		t.Fatalf("debit-only row: expected -4025, got %d", candidates[1].Amount.Cents)
	}
	// credit == debit nets to zero and is dropped
	if len(skipped) != 1 || skipped[0].Reason != SkipZeroAmount {
		t.Fatalf("expected net-zero row to be skipped, got %+v", skipped)
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"01/31/2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"13/05/2024", time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"2024/01/05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05-01-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"Jan 5, 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-05T10:30:00Z", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := resolveDate(RawRow{"Date": tc.raw})
		if !ok || !got.Equal(tc.want) {
			t.Fatalf("%q: expected %v, got %v (ok=%v)", tc.raw, tc.want, got, ok)
		}
	}
}

func TestNormalizeDescriptionFallback(t *testing.T) {
	candidates, _ := normalizeCSV(t,
		"Date,Amount\n"+
			"2024-01-05,-10.00\n")
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Description != "Transaction" {
		t.Fatalf("expected placeholder description, got %q", candidates[0].Description)
	}
}

func TestNormalizeTransferDetection(t *testing.T) {
	candidates, _ := normalizeCSV(t,
		"Date,Description,Amount\n"+
			"2024-01-05,TFSA Transfer,-500.00\n")
	if len(candidates) != 1 || !candidates[0].IsTransfer {
		t.Fatalf("expected transfer detection, got %+v", candidates)
	}
	// The import keeps sign(amount) even for transfers.
	if candidates[0].CashflowSign != -1 {
		t.Fatalf("expected sign -1, got %d", candidates[0].CashflowSign)
	}
}

func TestNormalizeDollarAndThousandsSeparators(t *testing.T) {
	candidates, _ := normalizeCSV(t,
		"Date,Description,Amount\n"+
			`2024-01-05,Bonus,"$1,250.75"`+"\n")
	if len(candidates) != 1 || candidates[0].Amount.Cents != 125075 {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}
