// Package memory is the default zero-setup backend: everything lives in
// process memory and is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"insights/internal/core"
	"insights/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	users        map[string]core.User    // by user ID
	emails       map[string]string       // lowercased email -> user ID
	sessions     map[string]core.Session // by token
	accounts     []core.Account
	transactions []core.Transaction
	modules      map[string][]core.InsightModule // by user ID
	feedback     []core.InsightFeedback

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[string]core.User),
		emails:   make(map[string]string),
		sessions: make(map[string]core.Session),
		modules:  make(map[string][]core.InsightModule),
		now:      time.Now,
	}
}

func (s *Store) CreateUser(_ context.Context, input store.NewUser) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(input.Email))
	if _, exists := s.emails[key]; exists {
		return core.User{}, store.ErrEmailTaken
	}

	now := s.now().UTC()
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
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, update store.UserUpdate) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Locale != nil {
		user.Locale = *update.Locale
	}
	if update.Currency != nil {
		user.Currency = *update.Currency
	}
	if update.Province != nil {
		user.Province = *update.Province
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	user.UpdatedAt = s.now().UTC()
	s.users[id] = user
	return user, nil
}

func (s *Store) CreateSession(_ context.Context, userID string, ttl time.Duration) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return core.Session{}, store.ErrNotFound
	}
	now := s.now().UTC()
	session := core.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) UserBySession(_ context.Context, token string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	if s.now().UTC().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return core.User{}, store.ErrNotFound
	}
	user, ok := s.users[session.UserID]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// UpsertAccount matches case-insensitively on (user, name) so re-uploading a
// statement against "Chequing" and "chequing" hits the same account.
func (s *Store) UpsertAccount(_ context.Context, input store.AccountInput) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for i, a := range s.accounts {
		if a.UserID == input.UserID && strings.EqualFold(a.Name, input.Name) {
			if input.Institution != "" {
				a.Institution = input.Institution
			}
			if input.Type != "" {
				a.Type = input.Type
			}
			if input.Currency != "" {
				a.Currency = input.Currency
			}
			a.UpdatedAt = now
			s.accounts[i] = a
			return a, nil
		}
	}

	account := core.Account{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        input.Name,
		Institution: input.Institution,
		Type:        input.Type,
		Currency:    input.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.accounts = append(s.accounts, account)
	return account, nil
}

func (s *Store) CreateTransactions(_ context.Context, inputs []core.TransactionInput) ([]core.Transaction, error) {
	for _, input := range inputs {
		if err := input.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	created := make([]core.Transaction, 0, len(inputs))
	for _, input := range inputs {
		input.EnforceSign()
		var categoryID *int
		if input.CategoryID != nil {
			id := *input.CategoryID
			categoryID = &id
		}
		tx := core.Transaction{
			ID:             uuid.NewString(),
			UserID:         input.UserID,
			AccountID:      input.AccountID,
			CategoryID:     categoryID,
			Description:    input.Description,
			NormalizedName: input.NormalizedName,
			Amount:         input.Amount,
			Currency:       input.Currency,
			Type:           input.Type,
			CashflowSign:   input.CashflowSign,
			Date:           input.Date,
			IsTransfer:     input.IsTransfer,
			IsRecurring:    input.IsRecurring,
			CreatedAt:      now,
		}
		s.transactions = append(s.transactions, tx)
		created = append(created, tx)
	}
	return created, nil
}

func (s *Store) ListTransactions(_ context.Context, query store.TransactionQuery) ([]core.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []core.Transaction
	for _, tx := range s.transactions {
		if tx.UserID != query.UserID {
			continue
		}
		if query.AccountID != "" && tx.AccountID != query.AccountID {
			continue
		}
		if query.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *query.CategoryID) {
			continue
		}
		if !query.From.IsZero() && tx.Date.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && tx.Date.After(query.To) {
			continue
		}
		if search != "" && !strings.Contains(tx.NormalizedName, search) {
			continue
		}
		matched = append(matched, tx)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	total := len(matched)
	if query.Offset > 0 {
		if query.Offset >= total {
			return nil, total, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	out := append([]core.Transaction(nil), matched...)
	return out, total, nil
}

func (s *Store) TransactionsForUser(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) UpdateTransactionCategory(_ context.Context, userID, transactionID string, categoryID *int) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.transactions {
		if tx.ID != transactionID || tx.UserID != userID {
			continue
		}
		if categoryID != nil {
			id := *categoryID
			tx.CategoryID = &id
		} else {
			tx.CategoryID = nil
		}
		s.transactions[i] = tx
		return tx, nil
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) InsightModules(_ context.Context, userID string) ([]core.InsightModule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modules := s.modules[userID]
	out := make([]core.InsightModule, len(modules))
	copy(out, modules)
	return out, nil
}

func (s *Store) PutInsightModules(_ context.Context, userID string, modules []core.InsightModule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]core.InsightModule, len(modules))
	copy(stored, modules)
	s.modules[userID] = stored
	return nil
}

func (s *Store) RecordInsightFeedback(_ context.Context, feedback core.InsightFeedback) (core.InsightFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feedback.ID = uuid.NewString()
	feedback.CreatedAt = s.now().UTC()
	s.feedback = append(s.feedback, feedback)
	return feedback, nil
}

func (s *Store) Close() error { return nil }
