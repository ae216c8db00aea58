// Package state holds the in-process copy of every persisted document and is
// the only place they are mutated.
//
// Collections are copy-on-write: Update installs a new value and never edits
// the previous one, so any snapshot a reader holds stays valid. Commits are
// two-phase. The new value is installed and the domain marked pending, then
// the document is saved outside the lock. When the save fails the previous
// value is restored if nothing else committed to that domain in the meantime;
// otherwise the domain is marked dirty and the next Reload resyncs it from
// storage. Saves are never retried.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/storage"
)

type slot[T any] struct {
	value   T
	version uint64
	pending int
	dirty   bool
}

// Store is the explicit replacement for shared global state.
type Store struct {
	provider storage.Provider

	mu       sync.RWMutex
	habits   slot[models.HabitsData]
	coins    slot[models.CoinsData]
	wishlist slot[models.WishlistData]
	settings slot[models.Settings]
	users    slot[models.UserData]
	activeID string

	subMu   sync.Mutex
	subs    map[int]func(constants.Domain)
	nextSub int
}

// New returns a store populated with default documents. Call Reload to read
// the provider.
func New(provider storage.Provider) *Store {
	s := &Store{
		provider: provider,
		subs:     make(map[int]func(constants.Domain)),
	}
	s.habits.value = models.DefaultHabitsData()
	s.coins.value = models.DefaultCoinsData()
	s.wishlist.value = models.DefaultWishlistData()
	s.settings.value = models.DefaultSettings()
	s.users.value = models.DefaultUserData()
	return s
}

// Reload reads every domain from storage, replacing in-memory values and
// clearing dirty markers. Missing documents fall back to defaults; a missing
// auth document is written so the default admin keeps a stable id.
func (s *Store) Reload(ctx context.Context) error {
	for _, domain := range constants.Domains {
		if err := s.ReloadDomain(ctx, domain); err != nil {
			return err
		}
	}
	return nil
}

// ReloadDomain reads one domain from storage.
func (s *Store) ReloadDomain(ctx context.Context, domain constants.Domain) error {
	log := logger.FromContext(ctx)

	data, err := s.provider.LoadDocument(ctx, domain)
	missing := errors.Is(err, storage.ErrNotFound)
	if err != nil && !missing {
		return fmt.Errorf("failed to load %s: %w", domain, err)
	}

	switch domain {
	case constants.DomainHabits:
		v := models.DefaultHabitsData()
		if err := decode(data, missing, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain, err)
		}
		if v.Habits == nil {
			v.Habits = []models.Habit{}
		}
		for _, h := range v.Habits {
			if !h.Frequency.Valid() {
				log.Warn("Habit has an invalid frequency and will never be due", "habit", h.Name, "frequency", h.Frequency.Raw, "error", h.Frequency.Err)
			}
		}
		install(s, &s.habits, v)
	case constants.DomainCoins:
		v := models.DefaultCoinsData()
		if err := decode(data, missing, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain, err)
		}
		if v.Transactions == nil {
			v.Transactions = []models.CoinTransaction{}
		}
		reconciled := v.Reconciled()
		if reconciled.Balance != v.Balance {
			log.Warn("Stored balance disagrees with transaction log, using the log", "stored", v.Balance, "derived", reconciled.Balance)
		}
		install(s, &s.coins, reconciled)
	case constants.DomainWishlist:
		v := models.DefaultWishlistData()
		if err := decode(data, missing, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain, err)
		}
		if v.Items == nil {
			v.Items = []models.WishlistItem{}
		}
		install(s, &s.wishlist, v)
	case constants.DomainSettings:
		v := models.DefaultSettings()
		if err := decode(data, missing, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain, err)
		}
		models.ApplyDefaultSettings(&v)
		install(s, &s.settings, v)
	case constants.DomainAuth:
		if missing {
			v := models.DefaultUserData()
			if _, err := s.UpdateUsers(ctx, func(models.UserData) (models.UserData, error) { return v, nil }); err != nil {
				return err
			}
			return nil
		}
		var v models.UserData
		if err := decode(data, false, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain, err)
		}
		if len(v.Users) == 0 {
			v = models.DefaultUserData()
		}
		install(s, &s.users, v)
	default:
		return fmt.Errorf("unknown domain %q", domain)
	}

	s.notify(domain)
	return nil
}

func decode(data []byte, missing bool, v any) error {
	if missing || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func install[T any](s *Store, sl *slot[T], v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl.value = v
	sl.version++
	sl.dirty = false
}

// update runs fn against the current value, installs the result and saves
// it. fn runs under the store lock and must not call back into the store.
func update[T any](ctx context.Context, s *Store, domain constants.Domain, sl *slot[T], fn func(T) (T, error), normalize func(T) T) (T, error) {
	s.mu.Lock()
	prev := sl.value
	next, err := fn(prev)
	if err != nil {
		s.mu.Unlock()
		return prev, err
	}
	if normalize != nil {
		next = normalize(next)
	}
	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return prev, fmt.Errorf("failed to encode %s: %w", domain, err)
	}
	sl.value = next
	sl.version++
	version := sl.version
	sl.pending++
	s.mu.Unlock()
	s.notify(domain)

	saveErr := s.provider.SaveDocument(ctx, domain, data)

	s.mu.Lock()
	sl.pending--
	reverted := false
	if saveErr != nil {
		if sl.version == version {
			sl.value = prev
			sl.version++
			reverted = true
		} else {
			sl.dirty = true
		}
	}
	s.mu.Unlock()

	if saveErr != nil {
		logger.FromContext(ctx).Error("Failed to persist document", "domain", domain, "reverted", reverted, "error", saveErr)
		if reverted {
			s.notify(domain)
		}
		return prev, fmt.Errorf("failed to save %s: %w", domain, saveErr)
	}
	return next, nil
}

func (s *Store) UpdateHabits(ctx context.Context, fn func(models.HabitsData) (models.HabitsData, error)) (models.HabitsData, error) {
	return update(ctx, s, constants.DomainHabits, &s.habits, fn, nil)
}

// UpdateCoins commits a new ledger. The cached balance is always recomputed
// from the transactions.
func (s *Store) UpdateCoins(ctx context.Context, fn func(models.CoinsData) (models.CoinsData, error)) (models.CoinsData, error) {
	return update(ctx, s, constants.DomainCoins, &s.coins, fn, models.CoinsData.Reconciled)
}

func (s *Store) UpdateWishlist(ctx context.Context, fn func(models.WishlistData) (models.WishlistData, error)) (models.WishlistData, error) {
	return update(ctx, s, constants.DomainWishlist, &s.wishlist, fn, nil)
}

func (s *Store) UpdateSettings(ctx context.Context, fn func(models.Settings) (models.Settings, error)) (models.Settings, error) {
	return update(ctx, s, constants.DomainSettings, &s.settings, fn, func(v models.Settings) models.Settings {
		models.ApplyDefaultSettings(&v)
		return v
	})
}

func (s *Store) UpdateUsers(ctx context.Context, fn func(models.UserData) (models.UserData, error)) (models.UserData, error) {
	return update(ctx, s, constants.DomainAuth, &s.users, fn, nil)
}

// Snapshots. Returned values share backing arrays with the store and must be
// treated as read-only.

func (s *Store) Habits() models.HabitsData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.habits.value
}

func (s *Store) Coins() models.CoinsData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coins.value
}

func (s *Store) Wishlist() models.WishlistData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishlist.value
}

func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.value
}

func (s *Store) Users() models.UserData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.value
}

// Version returns a counter that changes whenever domain's value changes.
func (s *Store) Version(domain constants.Domain) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch domain {
	case constants.DomainHabits:
		return s.habits.version
	case constants.DomainCoins:
		return s.coins.version
	case constants.DomainWishlist:
		return s.wishlist.version
	case constants.DomainSettings:
		return s.settings.version
	case constants.DomainAuth:
		return s.users.version
	}
	return 0
}

// Pending reports whether a save for domain is in flight.
func (s *Store) Pending(domain constants.Domain) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch domain {
	case constants.DomainHabits:
		return s.habits.pending > 0
	case constants.DomainCoins:
		return s.coins.pending > 0
	case constants.DomainWishlist:
		return s.wishlist.pending > 0
	case constants.DomainSettings:
		return s.settings.pending > 0
	case constants.DomainAuth:
		return s.users.pending > 0
	}
	return false
}

// Dirty lists domains whose in-memory value may differ from storage after a
// failed save that could not be reverted.
func (s *Store) Dirty() []constants.Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flags := map[constants.Domain]bool{
		constants.DomainHabits:   s.habits.dirty,
		constants.DomainCoins:    s.coins.dirty,
		constants.DomainWishlist: s.wishlist.dirty,
		constants.DomainSettings: s.settings.dirty,
		constants.DomainAuth:     s.users.dirty,
	}
	var out []constants.Domain
	for _, d := range constants.Domains {
		if flags[d] {
			out = append(out, d)
		}
	}
	return out
}

// SetActiveUser selects the user that scopes ledger and list queries.
func (s *Store) SetActiveUser(idOrName string) error {
	u, ok := s.Users().Find(idOrName)
	if !ok {
		return errs.NewNotFoundError(fmt.Sprintf("user %q not found", idOrName))
	}
	s.mu.Lock()
	s.activeID = u.ID
	s.mu.Unlock()
	s.notify(constants.DomainAuth)
	return nil
}

// ActiveUser returns the selected user, defaulting to the first admin.
func (s *Store) ActiveUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users.value.Users {
		if u.ID == s.activeID {
			return &u
		}
	}
	for _, u := range s.users.value.Users {
		if u.IsAdmin {
			return &u
		}
	}
	return nil
}

// Subscribe registers fn to run after any domain changes. The returned func
// unregisters it.
func (s *Store) Subscribe(fn func(constants.Domain)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(domain constants.Domain) {
	s.subMu.Lock()
	fns := make([]func(constants.Domain), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(domain)
	}
}

// Provider exposes the storage collaborator, e.g. for backups.
func (s *Store) Provider() storage.Provider {
	return s.provider
}
