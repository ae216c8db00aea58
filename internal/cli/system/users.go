package system

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/models"
)

type UsersCmd struct {
	List UsersListCmd `cmd:"" default:"1" help:"List users."`
	Add  UsersAddCmd  `cmd:"" help:"Add a user (admin only)."`
}

type UsersListCmd struct{}

func (c *UsersListCmd) Run(ctx *cli.Context) error {
	active := ctx.ActorID()
	for _, u := range ctx.Store.Users().Users {
		mark := "  "
		if u.ID == active {
			mark = "* "
		}
		role := ""
		if u.IsAdmin {
			role = " (admin)"
		}
		ctx.Printf("%s%s%s  %s\n", mark, u.Username, role, cli.MutedStyle.Render(u.ID))
	}
	return nil
}

type UsersAddCmd struct {
	Username string   `arg:"" help:"Username."`
	Admin    bool     `help:"Grant full access."`
	Write    []string `help:"Resources the user may edit (habit, wishlist, coins)."`
	Interact []string `help:"Resources the user may use (habit, wishlist, coins)." default:"habit,wishlist"`
}

func (c *UsersAddCmd) Run(ctx *cli.Context) error {
	actor := ctx.Actor()
	if actor == nil || !actor.IsAdmin {
		return errs.ErrPermissionDenied
	}
	name := strings.TrimSpace(c.Username)
	if name == "" {
		return errs.NewValidationError("username is required")
	}

	perm, err := permissionFor(c.Write, c.Interact)
	if err != nil {
		return err
	}
	user := models.User{
		ID:          uuid.New().String(),
		Username:    name,
		IsAdmin:     c.Admin,
		Permissions: []models.Permission{perm},
	}

	_, err = ctx.Store.UpdateUsers(ctx.Ctx(), func(d models.UserData) (models.UserData, error) {
		if _, exists := d.Find(name); exists {
			return d, errs.NewValidationError(fmt.Sprintf("user %q already exists", name))
		}
		users := make([]models.User, 0, len(d.Users)+1)
		users = append(users, d.Users...)
		users = append(users, user)
		return models.UserData{Users: users}, nil
	})
	if err != nil {
		return err
	}
	ctx.Success("Added user %s", name)
	return nil
}

func permissionFor(write, interact []string) (models.Permission, error) {
	var p models.Permission
	set := func(resource string, w bool) error {
		var a *models.Access
		switch strings.ToLower(strings.TrimSpace(resource)) {
		case "habit", "habits":
			a = &p.Habit
		case "wishlist", "wish", "wishes":
			a = &p.Wishlist
		case "coins", "coin":
			a = &p.Coins
		default:
			return errs.NewValidationError(fmt.Sprintf("unknown resource %q", resource))
		}
		if w {
			a.Write = true
		} else {
			a.Interact = true
		}
		return nil
	}
	for _, r := range write {
		if err := set(r, true); err != nil {
			return p, err
		}
	}
	for _, r := range interact {
		if err := set(r, false); err != nil {
			return p, err
		}
	}
	return p, nil
}
