package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/models"
)

// IssueType represents the type of data problem found
type IssueType string

const (
	IssueInvalidFrequency   IssueType = "invalid_frequency"
	IssueDuplicateName      IssueType = "duplicate_name"
	IssueDuplicateID        IssueType = "duplicate_id"
	IssueInvalidTimestamp   IssueType = "invalid_timestamp"
	IssueDanglingReference  IssueType = "dangling_reference"
	IssueUnknownUser        IssueType = "unknown_user"
	IssueInvalidRedemptions IssueType = "invalid_redemption_limit"
	IssueBalanceMismatch    IssueType = "balance_mismatch"
)

// Severity separates problems that break behavior from informational ones.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// Issue is one detected problem
type Issue struct {
	Type        IssueType
	Severity    Severity
	Description string
	IDs         []string
}

// Result contains all detected issues
type Result struct {
	Issues []Issue
}

func (r *Result) add(t IssueType, sev Severity, ids []string, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Type: t, Severity: sev, Description: fmt.Sprintf(format, args...), IDs: ids})
}

// HasErrors returns true if any issue has error severity
func (r *Result) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// FormatReport returns a human-readable report of all issues
func (r *Result) FormatReport() string {
	if len(r.Issues) == 0 {
		return "No issues detected."
	}

	var b strings.Builder
	b.WriteString("Issues detected:\n")
	for _, issue := range r.Issues {
		level := "warning"
		if issue.Severity == SeverityError {
			level = "error"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", level, issue.Description)
	}
	return b.String()
}

// Snapshot is the set of documents a validator inspects.
type Snapshot struct {
	Habits   models.HabitsData
	Coins    models.CoinsData
	Wishlist models.WishlistData
	Users    models.UserData
}

// Validator checks documents for problems the engine tolerates at runtime
// but that indicate corrupted or hand-edited data.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Validate runs every check.
func (v *Validator) Validate(s Snapshot) Result {
	var r Result
	v.checkHabits(&r, s.Habits)
	v.checkWishlist(&r, s.Wishlist)
	v.checkLedger(&r, s)
	v.checkUsers(&r, s)
	return r
}

func (v *Validator) checkHabits(r *Result, d models.HabitsData) {
	seenID := make(map[string]bool)
	byName := make(map[string][]string)

	for _, h := range d.Habits {
		if seenID[h.ID] {
			r.add(IssueDuplicateID, SeverityError, []string{h.ID}, "Duplicate %s id: %s", h.Kind(), h.ID)
		}
		seenID[h.ID] = true

		if !h.Archived && h.Name != "" {
			key := strings.ToLower(h.Name)
			byName[key] = append(byName[key], h.ID)
		}

		if !h.Frequency.Valid() {
			r.add(IssueInvalidFrequency, SeverityError, []string{h.ID},
				"The %s %q has an invalid frequency %q and will never be due", h.Kind(), h.Name, h.Frequency.String())
		}

		for _, c := range h.Completions {
			if _, err := clock.ParseInstant(c); err != nil {
				r.add(IssueInvalidTimestamp, SeverityWarning, []string{h.ID}, "%q has an unreadable completion %q", h.Name, c)
			}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if ids := byName[name]; len(ids) > 1 {
			h, _, _ := d.Find(ids[0])
			r.add(IssueDuplicateName, SeverityWarning, ids, "Duplicate name: %q (IDs: %v)", h.Name, ids)
		}
	}
}

func (v *Validator) checkWishlist(r *Result, d models.WishlistData) {
	seen := make(map[string]bool)
	for _, item := range d.Items {
		if seen[item.ID] {
			r.add(IssueDuplicateID, SeverityError, []string{item.ID}, "Duplicate wishlist item id: %s", item.ID)
		}
		seen[item.ID] = true

		if item.TargetCompletions != nil && *item.TargetCompletions <= 0 && !item.Archived {
			r.add(IssueInvalidRedemptions, SeverityWarning, []string{item.ID},
				"Wishlist item %q has %d redemptions left but is not archived", item.Name, *item.TargetCompletions)
		}
	}
}

func (v *Validator) checkLedger(r *Result, s Snapshot) {
	known := make(map[string]bool)
	for _, h := range s.Habits.Habits {
		known[h.ID] = true
	}
	for _, item := range s.Wishlist.Items {
		known[item.ID] = true
	}

	seen := make(map[string]bool)
	sum := 0
	for _, tx := range s.Coins.Transactions {
		sum += tx.Amount
		if seen[tx.ID] {
			r.add(IssueDuplicateID, SeverityError, []string{tx.ID}, "Duplicate transaction id: %s", tx.ID)
		}
		seen[tx.ID] = true

		if _, err := tx.Instant(); err != nil {
			r.add(IssueInvalidTimestamp, SeverityWarning, []string{tx.ID}, "Transaction %s has an unreadable timestamp %q", tx.ID, tx.Timestamp)
		}
		// hard deletes keep the ledger, so this is informational
		if tx.RelatedItemID != "" && !known[tx.RelatedItemID] {
			r.add(IssueDanglingReference, SeverityWarning, []string{tx.ID}, "Transaction %s refers to deleted item %s", tx.ID, tx.RelatedItemID)
		}
	}

	if sum != s.Coins.Balance {
		r.add(IssueBalanceMismatch, SeverityError, nil, "Stored balance %d does not match transaction sum %d", s.Coins.Balance, sum)
	}
}

func (v *Validator) checkUsers(r *Result, s Snapshot) {
	users := make(map[string]bool)
	for _, u := range s.Users.Users {
		users[u.ID] = true
	}

	check := func(kind, name string, ids []string) {
		for _, id := range ids {
			if !users[id] {
				r.add(IssueUnknownUser, SeverityWarning, []string{id}, "%s %q is assigned to unknown user %s", kind, name, id)
			}
		}
	}
	for _, h := range s.Habits.Habits {
		check(h.Kind(), h.Name, h.UserIDs)
	}
	for _, item := range s.Wishlist.Items {
		check("wishlist item", item.Name, item.UserIDs)
	}
}
