/*
1. Load the bundled configuration and the user's config.yml, creating the latter if needed.
2. Show the login form, prefilled from the command line or the last successful login.
3. Post the credentials to the login server and read latestVersion:downloadTicket:userName:sessionID.
4. Hand the session to the launcher, which updates the game if needed and starts it.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mclauncher/config"
	"mclauncher/ui"
	"mclauncher/version"
)

// forceExitDelay bounds the shutdown once the window is closed.
const forceExitDelay = 30 * time.Second

var (
	configFile string
	logLevel   string
	logFile    string
	noUI       bool
	offline    bool
)

var rootCmd = &cobra.Command{
	Use:   "mclauncher [username] [password] [server[:port]]",
	Short: "Log in and launch the game",
	Long: `Shows a login form, authenticates against the login server and starts the game.

With a username and a password the login starts immediately. A server address
makes the game connect to it once started (default port 25565).`,
	Args:          cobra.MaximumNArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the launcher version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.AppVersion.String())
	},
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flags := rootCmd.Flags()
	flags.SortFlags = false
	flags.StringVarP(&configFile, "config", "c", config.DefaultUserFile, "User configuration file")
	flags.StringVar(&logLevel, "log-level", "", "Log level: trace|debug|info|warn|error (default from config)")
	flags.StringVar(&logFile, "log", "", "File path to save log output (default from config)")
	flags.BoolVar(&noUI, "no-ui", false, "Run without the terminal window, logging status to stderr")
	flags.BoolVar(&offline, "offline", false, "Skip the login and play the installed game")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.New()
	if err := cfg.Load(configFile); err != nil {
		return err
	}
	if offline {
		cfg.Set("launcher.offlineMode", true)
	}

	closeLogging := setupLogging(ctx, cfg, logOptions{
		Level:   flagOr(cmd.Flags(), "log-level", cfg.GetString("launcher.logging.level")),
		File:    logFilePath(cmd.Flags(), cfg, noUI),
		Console: noUI,
		RunID:   uuid.Must(uuid.NewV4()),
	})
	defer closeLogging()

	go forceExit(ctx, forceExitDelay)

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	userName, password, autoLogin := app.ApplyArgs(args)

	if noUI {
		return runHeadless(ctx, app, userName, password)
	}

	w := ui.NewWindow(app.Locale, app.Title(), userName, password, autoLogin, ui.Callbacks{
		Login: func() {
			<-app.DoLogin()
		},
		PlayOffline: func() {
			<-app.DoPlayOffline()
		},
	}, tea.WithContext(ctx))
	app.Form = w

	err = w.Run()
	stop()
	app.Wait()

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func runHeadless(ctx context.Context, app *App, userName, password string) error {
	if userName == "" {
		return errors.New("a username is required with --no-ui")
	}

	app.Form = newHeadlessForm(userName, password)
	return app.Login(ctx)
}

// forceExit terminates the process when shutdown takes longer than the delay.
func forceExit(ctx context.Context, delay time.Duration) {
	<-ctx.Done()

	t := time.NewTimer(delay)
	defer t.Stop()
	<-t.C

	fmt.Fprintln(os.Stderr, "FORCING EXIT!")
	os.Exit(0)
}

// flagOr returns the flag value when it was given on the command line, the fallback otherwise.
func flagOr(flags *pflag.FlagSet, name, fallback string) string {
	if !flags.Changed(name) {
		return fallback
	}
	value, err := flags.GetString(name)
	if err != nil {
		return fallback
	}
	return value
}

// logFilePath picks the flag, then the config. With the terminal window taking the console, it defaults to a file next to the user config.
func logFilePath(flags *pflag.FlagSet, cfg *config.Configuration, console bool) string {
	if path := flagOr(flags, "log", cfg.GetString("launcher.logging.file")); path != "" || console {
		return path
	}
	return filepath.Join(filepath.Dir(cfg.UserFile()), "launcher.log")
}
