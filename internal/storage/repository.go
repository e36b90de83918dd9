// Package storage is the SQLite persistence backend. Timestamps are stored
// as RFC 3339 UTC text; money as integer cents.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"insights/internal/core"
	"insights/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const userColumns = "id, email, name, locale, currency, province, phone, password_hash, created_at, updated_at"

func (r *SQLiteRepository) CreateUser(ctx context.Context, input store.NewUser) (core.User, error) {
	now := time.Now().UTC()
	user := core.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Name:         input.Name,
		Locale:       input.Locale,
		Currency:     input.Currency,
		PasswordHash: input.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, locale, currency, province, phone, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', '', ?, ?, ?)`,
		user.ID, strings.TrimSpace(user.Email), user.Name, user.Locale, user.Currency,
		user.PasswordHash, encodeTime(now), encodeTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, store.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", strings.TrimSpace(email))
	return scanUser(row)
}

func (r *SQLiteRepository) FindUserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id string, update store.UserUpdate) (core.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{encodeTime(time.Now().UTC())}

	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	add("name", update.Name)
	add("locale", update.Locale)
	add("currency", update.Currency)
	add("province", update.Province)
	add("phone", update.Phone)

	args = append(args, id)
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.User{}, store.ErrNotFound
	}
	return r.FindUserByID(ctx, id)
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, userID string, ttl time.Duration) (core.Session, error) {
	if _, err := r.FindUserByID(ctx, userID); err != nil {
		return core.Session{}, err
	}
	now := time.Now().UTC()
	session := core.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, encodeTime(session.CreatedAt), encodeTime(session.ExpiresAt))
	if err != nil {
		return core.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserBySession(ctx context.Context, token string) (core.User, error) {
	var userID, expiresAt string
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = ?", token).
		Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("query session: %w", err)
	}

	expiry, err := decodeTime(expiresAt)
	if err != nil {
		return core.User{}, fmt.Errorf("decode session expiry: %w", err)
	}
	if time.Now().UTC().After(expiry) {
		_, _ = r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
		return core.User{}, store.ErrNotFound
	}
	return r.FindUserByID(ctx, userID)
}

const accountColumns = "id, user_id, name, institution, type, currency, created_at, updated_at"

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpsertAccount matches on (user, name); the name column is NOCASE so
// "Chequing" and "chequing" resolve to the same row.
func (r *SQLiteRepository) UpsertAccount(ctx context.Context, input store.AccountInput) (core.Account, error) {
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? AND name = ?",
		input.UserID, input.Name)
	account, err := scanAccount(row)
	if err == nil {
		if input.Institution != "" {
			account.Institution = input.Institution
		}
		if input.Type != "" {
			account.Type = input.Type
		}
		if input.Currency != "" {
			account.Currency = input.Currency
		}
		account.UpdatedAt = now
		_, err = r.db.ExecContext(ctx, `
			UPDATE accounts SET institution = ?, type = ?, currency = ?, updated_at = ? WHERE id = ?`,
			account.Institution, account.Type, account.Currency, encodeTime(now), account.ID)
		if err != nil {
			return core.Account{}, fmt.Errorf("update account: %w", err)
		}
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return core.Account{}, err
	}

	account = core.Account{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        input.Name,
		Institution: input.Institution,
		Type:        input.Type,
		Currency:    input.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if account.Currency == "" {
		account.Currency = "CAD"
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, institution, type, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, account.Institution, account.Type,
		account.Currency, encodeTime(now), encodeTime(now))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

const transactionColumns = "id, user_id, account_id, category_id, description, normalized_name, amount_cents, currency, type, cashflow_sign, date, is_transfer, is_recurring, created_at"

func (r *SQLiteRepository) CreateTransactions(ctx context.Context, inputs []core.TransactionInput) ([]core.Transaction, error) {
	for _, input := range inputs {
		if err := input.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction batch: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	created := make([]core.Transaction, 0, len(inputs))
	for _, input := range inputs {
		input.EnforceSign()
		record := core.Transaction{
			ID:             uuid.NewString(),
			UserID:         input.UserID,
			AccountID:      input.AccountID,
			CategoryID:     input.CategoryID,
			Description:    input.Description,
			NormalizedName: input.NormalizedName,
			Amount:         input.Amount,
			Currency:       input.Currency,
			Type:           input.Type,
			CashflowSign:   input.CashflowSign,
			Date:           input.Date.UTC(),
			IsTransfer:     input.IsTransfer,
			IsRecurring:    input.IsRecurring,
			CreatedAt:      now,
		}
		var categoryID any
		if record.CategoryID != nil {
			categoryID = *record.CategoryID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, account_id, category_id, description, normalized_name,
				amount_cents, currency, type, cashflow_sign, date, is_transfer, is_recurring, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.UserID, record.AccountID, categoryID, record.Description,
			record.NormalizedName, record.Amount.Cents, record.Currency, string(record.Type),
			record.CashflowSign, encodeDate(record.Date), boolInt(record.IsTransfer),
			boolInt(record.IsRecurring), encodeTime(now))
		if err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
		created = append(created, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction batch: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, query store.TransactionQuery) ([]core.Transaction, int, error) {
	where := []string{"user_id = ?"}
	args := []any{query.UserID}

	if query.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, query.AccountID)
	}
	if query.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *query.CategoryID)
	}
	if !query.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, encodeDate(query.From))
	}
	if !query.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, encodeDate(query.To))
	}
	if search := strings.ToLower(strings.TrimSpace(query.Search)); search != "" {
		where = append(where, `normalized_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search)+"%")
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	q := "SELECT " + transactionColumns + " FROM transactions WHERE " + clause + " ORDER BY date DESC, created_at DESC"
	if query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
		if query.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, query.Offset)
		}
	} else if query.Offset > 0 {
		q += " LIMIT -1 OFFSET ?"
		args = append(args, query.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, record)
	}
	return items, total, rows.Err()
}

func (r *SQLiteRepository) TransactionsForUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) UpdateTransactionCategory(ctx context.Context, userID, transactionID string, categoryID *int) (core.Transaction, error) {
	var value any
	if categoryID != nil {
		value = *categoryID
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET category_id = ? WHERE id = ? AND user_id = ?",
		value, transactionID, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.Transaction{}, store.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", transactionID)
	return scanTransaction(row)
}

func (r *SQLiteRepository) InsightModules(ctx context.Context, userID string) ([]core.InsightModule, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM insight_modules WHERE user_id = ?", userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query insight modules: %w", err)
	}

	var modules []core.InsightModule
	if err := json.Unmarshal([]byte(payload), &modules); err != nil {
		return nil, fmt.Errorf("decode insight modules: %w", err)
	}
	return modules, nil
}

func (r *SQLiteRepository) PutInsightModules(ctx context.Context, userID string, modules []core.InsightModule) error {
	payload, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("encode insight modules: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO insight_modules (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(payload), encodeTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("upsert insight modules: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecordInsightFeedback(ctx context.Context, feedback core.InsightFeedback) (core.InsightFeedback, error) {
	feedback.ID = uuid.NewString()
	feedback.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insight_feedback (id, user_id, insight_id, value, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		feedback.ID, feedback.UserID, feedback.InsightID, feedback.Value, feedback.Comment,
		encodeTime(feedback.CreatedAt))
	if err != nil {
		return core.InsightFeedback{}, fmt.Errorf("insert insight feedback: %w", err)
	}
	return feedback, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var user core.User
	var createdAt, updatedAt string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Locale, &user.Currency,
		&user.Province, &user.Phone, &user.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.User{}, err
	}
	if user.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return core.User{}, err
	}
	return user, nil
}

func scanAccount(row rowScanner) (core.Account, error) {
	var account core.Account
	var createdAt, updatedAt string
	err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Institution,
		&account.Type, &account.Currency, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, store.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	if account.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.Account{}, err
	}
	if account.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return core.Account{}, err
	}
	return account, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var record core.Transaction
	var categoryID sql.NullInt64
	var txType, date, createdAt string
	var isTransfer, isRecurring int
	err := row.Scan(&record.ID, &record.UserID, &record.AccountID, &categoryID,
		&record.Description, &record.NormalizedName, &record.Amount.Cents, &record.Currency,
		&txType, &record.CashflowSign, &date, &isTransfer, &isRecurring, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		record.CategoryID = &id
	}
	record.Type = core.TransactionType(txType)
	record.IsTransfer = isTransfer != 0
	record.IsRecurring = isRecurring != 0
	if record.Date, err = decodeTime(date); err != nil {
		return core.Transaction{}, err
	}
	if record.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.Transaction{}, err
	}
	return record, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// encodeDate stores transaction dates in a fixed-width whole-second form so
// that SQLite's text comparison in range filters matches chronological order.
func encodeDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
