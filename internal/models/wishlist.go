package models

import (
	"slices"

	"github.com/google/uuid"
)

// WishlistItem is something coins can be redeemed for. A nil
// TargetCompletions means unlimited redemptions.
type WishlistItem struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	CoinCost          int      `json:"coinCost"`
	Archived          bool     `json:"archived,omitempty"`
	TargetCompletions *int     `json:"targetCompletions,omitempty"`
	Link              string   `json:"link,omitempty"`
	UserIDs           []string `json:"userIds,omitempty"`
}

func NewWishlistItem(name string, coinCost int) WishlistItem {
	return WishlistItem{
		ID:       uuid.New().String(),
		Name:     name,
		CoinCost: coinCost,
	}
}

func (w WishlistItem) VisibleTo(userID string) bool {
	return len(w.UserIDs) == 0 || userID == "" || slices.Contains(w.UserIDs, userID)
}

func (w WishlistItem) Clone() WishlistItem {
	c := w
	c.UserIDs = slices.Clone(w.UserIDs)
	if w.TargetCompletions != nil {
		t := *w.TargetCompletions
		c.TargetCompletions = &t
	}
	return c
}

// WishlistData is the persisted wishlist document.
type WishlistData struct {
	Items []WishlistItem `json:"items"`
}

func DefaultWishlistData() WishlistData {
	return WishlistData{Items: []WishlistItem{}}
}

func (d WishlistData) Find(id string) (WishlistItem, int, bool) {
	for i, item := range d.Items {
		if item.ID == id {
			return item, i, true
		}
	}
	return WishlistItem{}, -1, false
}
