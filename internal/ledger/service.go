package ledger

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/state"
)

type cachedSummary struct {
	valid   bool
	userID  string
	date    civil.Date
	summary Summary
}

// Service applies manual adjustments and serves aggregates. The summary of
// the active user is cached until the coins, settings or auth document
// changes.
type Service struct {
	store *state.Store
	guard *permission.Guard
	clock clock.Clock
	limit int

	mu          sync.Mutex
	cache       cachedSummary
	unsubscribe func()
}

// NewService returns a ledger service. A non-positive limit selects
// constants.MaxCoinLimit.
func NewService(store *state.Store, guard *permission.Guard, clk clock.Clock, limit int) *Service {
	if limit <= 0 {
		limit = constants.MaxCoinLimit
	}
	s := &Service{store: store, guard: guard, clock: clk, limit: limit}
	s.unsubscribe = store.Subscribe(func(d constants.Domain) {
		switch d {
		case constants.DomainCoins, constants.DomainSettings, constants.DomainAuth:
			s.invalidate()
		}
	})
	return s
}

// Close detaches the service from the state store.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.cache.valid = false
	s.mu.Unlock()
}

// Limit returns the largest accepted manual adjustment.
func (s *Service) Limit() int { return s.limit }

// Balance returns the balance of userID.
func (s *Service) Balance(userID string) int {
	return Balance(s.store.Coins().Transactions, userID)
}

// Summary returns the aggregates of userID for the current local date.
func (s *Service) Summary(userID string) Summary {
	tz := s.store.Settings().System.Timezone
	today := clock.Today(s.clock, tz)

	active := s.store.ActiveUser()
	if active == nil || active.ID != userID {
		return Summarize(s.store.Coins().Transactions, userID, tz, today)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.valid && s.cache.userID == userID && s.cache.date == today {
		return s.cache.summary
	}
	sum := Summarize(s.store.Coins().Transactions, userID, tz, today)
	s.cache = cachedSummary{valid: true, userID: userID, date: today, summary: sum}
	return sum
}

// Transactions returns userID's transactions, newest first.
func (s *Service) Transactions(userID string) []models.CoinTransaction {
	return ForUser(s.store.Coins().Transactions, userID)
}

// ForItem returns the transactions related to itemID.
func (s *Service) ForItem(itemID string) []models.CoinTransaction {
	return ForItem(s.store.Coins().Transactions, itemID)
}

// ValidateAmount checks amount does not exceed limit, then rounds it and
// checks the result is at least 1.
func ValidateAmount(amount float64, limit int) (int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, errs.NewValidationError("amount must be a positive number")
	}
	if amount > float64(limit) {
		return 0, errs.NewValidationError(fmt.Sprintf("amount must not exceed %d", limit))
	}
	rounded := math.Round(amount)
	if rounded < 1 {
		return 0, errs.NewValidationError("amount must be at least 1")
	}
	return int(rounded), nil
}

// Add credits userID with a manual adjustment. An empty userID targets actor.
func (s *Service) Add(ctx context.Context, actor *models.User, userID string, amount float64, description, note string) (models.CoinTransaction, error) {
	return s.adjust(ctx, actor, userID, amount, 1, description, note)
}

// Remove debits userID with a manual adjustment.
func (s *Service) Remove(ctx context.Context, actor *models.User, userID string, amount float64, description, note string) (models.CoinTransaction, error) {
	return s.adjust(ctx, actor, userID, amount, -1, description, note)
}

func (s *Service) adjust(ctx context.Context, actor *models.User, userID string, amount float64, sign int, description, note string) (models.CoinTransaction, error) {
	if err := s.guard.Require(actor, constants.ResourceCoins, constants.ActionWrite); err != nil {
		return models.CoinTransaction{}, err
	}
	n, err := ValidateAmount(amount, s.limit)
	if err != nil {
		return models.CoinTransaction{}, err
	}
	if userID == "" && actor != nil {
		userID = actor.ID
	}

	description = strings.TrimSpace(description)
	if description == "" {
		if sign > 0 {
			description = "Manual coin addition"
		} else {
			description = "Manual coin removal"
		}
	}

	tx := models.NewTransaction(sign*n, constants.TxManualAdjustment, description, "", userID, s.clock.Now())
	tx.Note = strings.TrimSpace(note)

	_, err = s.store.UpdateCoins(ctx, func(c models.CoinsData) (models.CoinsData, error) {
		txs := make([]models.CoinTransaction, 0, len(c.Transactions)+1)
		txs = append(txs, c.Transactions...)
		txs = append(txs, tx)
		return models.CoinsData{Transactions: txs}, nil
	})
	if err != nil {
		return models.CoinTransaction{}, err
	}

	logger.FromContext(ctx).Debug("Recorded adjustment", "amount", tx.Amount, "user", userID)
	return tx, nil
}

// UpdateNote sets or clears the note of a transaction. It is the only
// amendment the ledger allows.
func (s *Service) UpdateNote(ctx context.Context, actor *models.User, txID, note string) (models.CoinTransaction, error) {
	if err := s.guard.Require(actor, constants.ResourceCoins, constants.ActionWrite); err != nil {
		return models.CoinTransaction{}, err
	}

	var updated models.CoinTransaction
	_, err := s.store.UpdateCoins(ctx, func(c models.CoinsData) (models.CoinsData, error) {
		idx := slices.IndexFunc(c.Transactions, func(tx models.CoinTransaction) bool { return tx.ID == txID })
		if idx < 0 {
			return c, errs.NewNotFoundError(fmt.Sprintf("transaction %s not found", txID))
		}
		txs := slices.Clone(c.Transactions)
		txs[idx].Note = strings.TrimSpace(note)
		updated = txs[idx]
		return models.CoinsData{Transactions: txs}, nil
	})
	if err != nil {
		return models.CoinTransaction{}, err
	}
	return updated, nil
}
