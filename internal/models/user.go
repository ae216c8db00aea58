package models

import (
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/coinlit/internal/constants"
)

// Access is a write/interact pair for one resource.
type Access struct {
	Write    bool `json:"write"`
	Interact bool `json:"interact"`
}

// Permission grants access per resource.
type Permission struct {
	Habit    Access `json:"habit"`
	Wishlist Access `json:"wishlist"`
	Coins    Access `json:"coins"`
}

// Allows reports whether p grants action on resource.
func (p Permission) Allows(resource constants.Resource, action constants.Action) bool {
	var a Access
	switch resource {
	case constants.ResourceHabit:
		a = p.Habit
	case constants.ResourceWishlist:
		a = p.Wishlist
	case constants.ResourceCoins:
		a = p.Coins
	default:
		return false
	}
	switch action {
	case constants.ActionWrite:
		return a.Write
	case constants.ActionInteract:
		return a.Interact
	default:
		return false
	}
}

type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	IsAdmin     bool         `json:"isAdmin,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// UserData is the persisted auth document.
type UserData struct {
	Users []User `json:"users"`
}

// DefaultUserData returns a document holding a single admin user.
func DefaultUserData() UserData {
	return UserData{
		Users: []User{{
			ID:       uuid.New().String(),
			Username: constants.DefaultAdminUsername,
			IsAdmin:  true,
		}},
	}
}

// Find looks a user up by id or case-insensitive username.
func (d UserData) Find(idOrName string) (User, bool) {
	for _, u := range d.Users {
		if u.ID == idOrName || strings.EqualFold(u.Username, idOrName) {
			return u, true
		}
	}
	return User{}, false
}
