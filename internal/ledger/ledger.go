// Package ledger derives balances and aggregates from the coin transaction
// log and applies manual adjustments to it.
package ledger

import (
	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/models"
)

// Summary holds the per-user ledger aggregates.
type Summary struct {
	Balance           int `json:"balance"`
	EarnedToday       int `json:"earnedToday"`
	SpentToday        int `json:"spentToday"`
	TotalEarned       int `json:"totalEarned"`
	TotalSpent        int `json:"totalSpent"`
	TransactionsToday int `json:"transactionsToday"`
}

func belongsTo(tx models.CoinTransaction, userID string) bool {
	return userID == "" || tx.UserID == userID
}

// Balance sums the amounts of userID's transactions, or of all transactions
// when userID is empty.
func Balance(txs []models.CoinTransaction, userID string) int {
	sum := 0
	for _, tx := range txs {
		if belongsTo(tx, userID) {
			sum += tx.Amount
		}
	}
	return sum
}

// Summarize reduces txs to the aggregates for userID on today. Undo entries
// reduce the earned totals instead of adding to spending. Entries with an
// unparseable timestamp count toward totals but never toward today.
func Summarize(txs []models.CoinTransaction, userID, timezone string, today civil.Date) Summary {
	var s Summary
	for _, tx := range txs {
		if !belongsTo(tx, userID) {
			continue
		}
		s.Balance += tx.Amount

		isToday := false
		if at, err := tx.Instant(); err == nil {
			isToday = clock.LocalDateOf(at, timezone) == today
		}
		if isToday {
			s.TransactionsToday++
		}

		switch {
		case tx.Amount > 0 || tx.IsUndo():
			s.TotalEarned += tx.Amount
			if isToday {
				s.EarnedToday += tx.Amount
			}
		case tx.Amount < 0:
			s.TotalSpent -= tx.Amount
			if isToday {
				s.SpentToday -= tx.Amount
			}
		}
	}
	return s
}

// ForItem returns the transactions related to itemID in stored order.
func ForItem(txs []models.CoinTransaction, itemID string) []models.CoinTransaction {
	var out []models.CoinTransaction
	for _, tx := range txs {
		if tx.RelatedItemID == itemID {
			out = append(out, tx)
		}
	}
	return out
}

// ForUser returns userID's transactions, newest first.
func ForUser(txs []models.CoinTransaction, userID string) []models.CoinTransaction {
	out := make([]models.CoinTransaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		if belongsTo(txs[i], userID) {
			out = append(out, txs[i])
		}
	}
	return out
}
