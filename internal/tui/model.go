package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/ledger"
	"github.com/julianstephens/coinlit/internal/state"
	"github.com/julianstephens/coinlit/internal/tui/components/duelist"
	ledgerview "github.com/julianstephens/coinlit/internal/tui/components/ledger"
	"github.com/julianstephens/coinlit/internal/tui/components/wishes"
	"github.com/julianstephens/coinlit/internal/wishlist"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateWishlist
	StateLedger
	StateConfirmRedeem
)

var tabTitles = []string{"Today", "Wishlist", "Ledger"}

// Services are the engine components the dashboard drives.
type Services struct {
	Store    *state.Store
	Habits   *habits.Tracker
	Ledger   *ledger.Service
	Wishlist *wishlist.Coordinator
}

type Model struct {
	ctx           context.Context
	svc           Services
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	dueList       duelist.Model
	wishModel     wishes.Model
	ledgerModel   ledgerview.Model
	pending       *wishes.RedeemMsg
	status        string
	statusErr     bool
	quitting      bool
	width         int
	height        int
}

func NewModel(ctx context.Context, svc Services) Model {
	m := Model{
		ctx:         ctx,
		svc:         svc,
		state:       StateToday,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		dueList:     duelist.New(nil, 0, 0),
		wishModel:   wishes.New(0, 0),
		ledgerModel: ledgerview.New(0, 0),
	}
	m.refresh()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		k := duelist.DefaultKeyMap()
		keys = append(keys, k.Complete, k.Undo)
	case StateConfirmRedeem:
		keys = []key.Binding{m.keys.Yes, m.keys.No}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return append(m.keys.FullHelp(), m.ShortHelp())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) userID() string {
	if u := m.svc.Store.ActiveUser(); u != nil {
		return u.ID
	}
	return ""
}

// refresh reloads every component from the store.
func (m *Model) refresh() {
	uid := m.userID()
	settings := m.svc.Store.Settings()

	entries := m.svc.Habits.Due(m.svc.Habits.Today(), uid)
	m.dueList.SetEntries(entries)

	balance := m.svc.Ledger.Balance(uid)
	m.wishModel.SetItems(m.svc.Wishlist.List(uid, false), balance)

	m.ledgerModel.SetData(m.svc.Ledger.Summary(uid), m.svc.Ledger.Transactions(uid), settings.System.Timezone, settings.UI.FormatCoins)
}

func (m *Model) setStatus(err error, format string, args ...any) {
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return
	}
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) resize() {
	h := m.height - 6
	if h < 0 {
		h = 0
	}
	m.dueList.SetSize(m.width-4, h)
	m.wishModel.SetSize(m.width-4, h)
	m.ledgerModel.SetSize(m.width-4, h)
}
