package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
)

// CoinTransaction is one immutable ledger entry. Only Note may change after
// creation.
type CoinTransaction struct {
	ID            string                    `json:"id"`
	Amount        int                       `json:"amount"`
	Type          constants.TransactionType `json:"type"`
	Description   string                    `json:"description"`
	Timestamp     string                    `json:"timestamp"` // UTC instant
	RelatedItemID string                    `json:"relatedItemId,omitempty"`
	Note          string                    `json:"note,omitempty"`
	UserID        string                    `json:"userId,omitempty"`
}

// NewTransaction stamps a new ledger entry at now.
func NewTransaction(amount int, txType constants.TransactionType, description, relatedItemID, userID string, now time.Time) CoinTransaction {
	return CoinTransaction{
		ID:            uuid.New().String(),
		Amount:        amount,
		Type:          txType,
		Description:   description,
		Timestamp:     clock.FormatInstant(now),
		RelatedItemID: relatedItemID,
		UserID:        userID,
	}
}

// Instant parses the stored timestamp.
func (t CoinTransaction) Instant() (time.Time, error) {
	return clock.ParseInstant(t.Timestamp)
}

// IsUndo reports whether the entry reverses an earlier completion.
func (t CoinTransaction) IsUndo() bool {
	return t.Type == constants.TxHabitUndo || t.Type == constants.TxTaskUndo
}

// CoinsData is the persisted ledger document. Balance is a cache of the sum
// of Transactions and is reconciled whenever the document is loaded or saved.
type CoinsData struct {
	Balance      int               `json:"balance"`
	Transactions []CoinTransaction `json:"transactions"`
}

func DefaultCoinsData() CoinsData {
	return CoinsData{Balance: 0, Transactions: []CoinTransaction{}}
}

// Reconciled returns c with Balance recomputed from the transactions.
func (c CoinsData) Reconciled() CoinsData {
	sum := 0
	for _, tx := range c.Transactions {
		sum += tx.Amount
	}
	c.Balance = sum
	return c
}
