package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/cli/backups"
	"github.com/julianstephens/coinlit/internal/cli/coins"
	"github.com/julianstephens/coinlit/internal/cli/habits"
	"github.com/julianstephens/coinlit/internal/cli/settings"
	"github.com/julianstephens/coinlit/internal/cli/system"
	"github.com/julianstephens/coinlit/internal/cli/wishes"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/config"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errors"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/storage/backend"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory holding coinlit.yaml, logs and the default database." env:"COINLIT_CONFIG_DIR"`
	Storage   string `help:"Storage target: sqlite path, postgres://, mongodb://, firestore://, json://, keyring:<backend> or memory:."`
	User      string `short:"u" help:"Act as this user (id or name)."`
	Debug     bool   `help:"Log debug output to stderr."`
	EnvFile   string `help:"Optional .env file to load." default:".env"`

	Init     system.InitCmd       `cmd:"" help:"Initialize coinlit storage."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage and track habits."`
	Task     habits.TaskCmd       `cmd:"" help:"Manage and track tasks."`
	Due      habits.DueCmd        `cmd:"" help:"Show everything due today."`
	Coins    coins.CoinsCmd       `cmd:"" help:"Show and adjust the coin balance."`
	Wish     wishes.WishCmd       `cmd:"" help:"Manage the wishlist and redeem rewards."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   backups.BackupCmd    `cmd:"" help:"Manage database backups."`
	Users    system.UsersCmd      `cmd:"" help:"Manage users."`
	DB       system.DBCmd         `cmd:"" name:"db" help:"Manage database credentials in the OS keyring."`
	Validate system.ValidateCmd   `cmd:"" help:"Check stored data for problems."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
}

// Commands that open storage themselves, or do not need it.
var skipLoad = map[string]bool{"init": true, "db": true, "doctor": true}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with a coin economy and a wishlist to spend it on"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigDir, CLI.EnvFile)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Storage != "" {
		cfg.Storage = CLI.Storage
	}
	if CLI.User != "" {
		cfg.User = CLI.User
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		errors.Fatal(err)
	}

	provider, err := backend.Open(cfg.Storage)
	if err != nil {
		errors.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.ToContext(ctx, logger.Logger)

	app := cli.New(ctx, cfg, provider, clock.System{})
	defer app.Close()

	command := strings.Fields(kctx.Command())
	if len(command) > 0 && !skipLoad[command[0]] {
		if err := app.Load(); err != nil {
			app.Close()
			errors.Fatal(err)
		}
	}

	if err := kctx.Run(app); err != nil {
		app.Close()
		errors.Fatal(err)
	}
}
