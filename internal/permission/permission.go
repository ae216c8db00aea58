// Package permission decides whether a user may mutate a resource. Every
// mutating engine operation calls Guard.Require once before doing any work.
package permission

import (
	"fmt"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/models"
)

// Check reports whether user may perform action on resource. Admins may do
// anything; a nil user may do nothing.
func Check(user *models.User, resource constants.Resource, action constants.Action) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	for _, p := range user.Permissions {
		if p.Allows(resource, action) {
			return true
		}
	}
	return false
}

// Guard evaluates Check and turns a denial into ErrPermissionDenied.
type Guard struct {
	check func(*models.User, constants.Resource, constants.Action) bool
}

// NewGuard returns a guard backed by Check.
func NewGuard() *Guard {
	return &Guard{check: Check}
}

// Require returns nil when the action is allowed.
func (g *Guard) Require(user *models.User, resource constants.Resource, action constants.Action) error {
	check := Check
	if g != nil && g.check != nil {
		check = g.check
	}
	if check(user, resource, action) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", action, resource, errs.ErrPermissionDenied)
}
