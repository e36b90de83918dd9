// Package seed populates a fresh store with a demo user and a few months of
// realistic transactions so the dashboard has something to show on first run.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"insights/internal/category"
	"insights/internal/core"
	"insights/internal/log"
	"insights/internal/store"
)

// DemoPassword is the well-known password of the seeded demo user.
const DemoPassword = "demo-password"

const monthsOfHistory = 3

type Service struct {
	store  store.Store
	logger *log.Logger
}

func New(s store.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{store: s, logger: logger.WithComponent(log.ComponentSeed)}
}

// Run seeds the demo user if it does not exist yet. Running twice is a no-op:
// an existing demo user means the store is already populated.
func (s *Service) Run(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	_, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		s.logger.InfoContext(ctx, "demo user already present, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check demo user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, store.NewUser{
		Email:        email,
		Name:         "Demo User",
		Locale:       "en-CA",
		Currency:     "CAD",
		PasswordHash: string(hash),
	})
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	account, err := s.store.UpsertAccount(ctx, store.AccountInput{
		UserID:      user.ID,
		Name:        "Chequing",
		Institution: "Demo Bank",
		Type:        "chequing",
		Currency:    "CAD",
	})
	if err != nil {
		return fmt.Errorf("create demo account: %w", err)
	}

	inputs := demoTransactions(user.ID, account.ID, time.Now().UTC())
	created, err := s.store.CreateTransactions(ctx, inputs)
	if err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}

	if err := s.store.PutInsightModules(ctx, user.ID, demoInsightModules(user.ID)); err != nil {
		return fmt.Errorf("seed insight modules: %w", err)
	}

	s.logger.InfoContext(ctx, "seeded demo data",
		log.FieldUserID, user.ID,
		log.FieldAccountID, account.ID,
		log.FieldRows, len(created))
	return nil
}

// demoTransactions builds a few months of history ending at now. Amounts are
// jittered so repeated fresh installs do not all look identical; randomness
// happens once here, never at read time.
func demoTransactions(userID, accountID string, now time.Time) []core.TransactionInput {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var inputs []core.TransactionInput
	add := func(date time.Time, cents int64, description string, categoryID int, isTransfer bool) {
		if date.After(now) {
			return
		}
		money := core.Money{Cents: cents}
		sign := money.Sign()
		if isTransfer {
			sign = 0
		}
		id := categoryID
		inputs = append(inputs, core.TransactionInput{
			UserID:         userID,
			AccountID:      accountID,
			CategoryID:     &id,
			Description:    description,
			NormalizedName: core.NormalizeName(description),
			Amount:         money,
			Currency:       "CAD",
			Type:           core.TypeForAmount(money),
			CashflowSign:   sign,
			Date:           date,
			IsTransfer:     isTransfer,
		})
	}

	jitter := func(base int64, spread int64) int64 {
		return base + rng.Int63n(2*spread+1) - spread
	}

	for i := monthsOfHistory - 1; i >= 0; i-- {
		month := monthStart.AddDate(0, -i, 0)

		// Payroll twice a month.
		add(month.AddDate(0, 0, 0), 398550, "Employer Inc Payroll", category.Salary, false)
		add(month.AddDate(0, 0, 14), 398550, "Employer Inc Payroll", category.Salary, false)

		// Fixed monthly bills.
		add(month.AddDate(0, 0, 1), -185000, "Rent payment", category.Rent, false)
		add(month.AddDate(0, 0, 3), -1649, "Netflix", category.Subscriptions, false)
		add(month.AddDate(0, 0, 5), -1099, "Spotify", category.Subscriptions, false)
		add(month.AddDate(0, 0, 8), -jitter(7500, 1500), "Hydro Quebec", category.Electricity, false)
		add(month.AddDate(0, 0, 12), -6500, "Telus Mobility", category.CellPhones, false)

		// Weekly-ish groceries and coffee.
		for week := 0; week < 4; week++ {
			add(month.AddDate(0, 0, 2+week*7), -jitter(9000, 3000), "Metro Grocery", category.Groceries, false)
			add(month.AddDate(0, 0, 4+week*7), -jitter(650, 250), "Tim Hortons", category.Coffee, false)
		}

		// Monthly savings transfer between own accounts, sign 0.
		add(month.AddDate(0, 0, 20), -50000, "Transfer to savings", category.Transfers, true)
	}

	return inputs
}

func demoInsightModules(userID string) []core.InsightModule {
	return []core.InsightModule{
		{
			ID:          "spending-trends",
			Title:       "Spending trends",
			Description: "How your spending compares to previous months.",
			Insights: []core.Insight{{
				ID:     "spending-trends-groceries",
				UserID: userID,
				Type:   "trend",
				Title:  "Grocery spending is steady",
				Body:   "Your grocery spending has stayed within 10% of its monthly average.",
				Status: "new",
			}},
		},
		{
			ID:          "subscriptions",
			Title:       "Subscriptions",
			Description: "Recurring charges detected on your accounts.",
			Insights: []core.Insight{{
				ID:     "subscriptions-recurring",
				UserID: userID,
				Type:   "recurring",
				Title:  "2 active subscriptions",
				Body:   "Netflix and Spotify bill you every month.",
				Status: "new",
			}},
		},
		{
			ID:          "savings",
			Title:       "Savings",
			Description: "Progress toward your savings goals.",
			Insights: []core.Insight{{
				ID:     "savings-rate",
				UserID: userID,
				Type:   "goal",
				Title:  "You saved money last month",
				Body:   "Income exceeded spending last month. Keep it up.",
				Status: "new",
			}},
		},
	}
}
