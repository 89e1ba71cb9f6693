package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"mclauncher/api"
	"mclauncher/config"
	lhttp "mclauncher/http"
	"mclauncher/launcher"
	"mclauncher/locale"
	"mclauncher/version"
)

// ErrLoginInProgress is returned when a login or an offline start is already running.
var ErrLoginInProgress = errors.New("a login is already in progress")

// Form is the login form shown to the user.
type Form interface {
	UserName() string
	Password() string
	SetStatusText(text string)
	AskOfflineMode()
	LoginOK()
	ShowLauncher()
	ReportProgress(p launcher.Progress)
	SetTitle(title string)
}

// Launcher prepares and runs the game after login.
type Launcher interface {
	Init(ctx context.Context) error
	Start(ctx context.Context) error
}

// Downloader is the transport shared by the login and the launcher.
type Downloader interface {
	api.Poster
	launcher.Downloader
}

// App is the launcher shell: it owns the configuration, drives the login and hands off to the launcher.
type App struct {
	Config *config.Configuration
	Locale *locale.Strings
	Form   Form

	client      Downloader
	newLauncher func(s launcher.Settings, d launcher.Downloader, report launcher.Reporter) Launcher

	ctx       context.Context
	wg        sync.WaitGroup
	loggingIn atomic.Bool
}

// NewApp prepares the shell around a loaded configuration. The form is attached by the caller.
func NewApp(ctx context.Context, cfg *config.Configuration) (*App, error) {
	logrus.Infof("Starting MCLauncher [%s]...", version.AppVersion)

	if cfg.ApplyAutoConnect() {
		logrus.Infof("auto-connecting to %s:%s", cfg.GetString(config.KeyServer), cfg.GetString(config.KeyPort))
	}

	printSystemInfo(cfg)

	client, err := lhttp.NewClient(cfg.GetString("updater.keyFileName"))
	if err != nil {
		logrus.Errorf("failed to load key file, using system certificates only: %v", err)
		if client, err = lhttp.NewClient(""); err != nil {
			return nil, err
		}
	}

	return &App{
		Config: cfg,
		Locale: locale.New(cfg.GetStringList("launcher.langs")),
		client: client,
		newLauncher: func(s launcher.Settings, d launcher.Downloader, report launcher.Reporter) Launcher {
			return launcher.New(s, d, report)
		},
		ctx: ctx,
	}, nil
}

// Title returns the window title.
func (a *App) Title() string {
	return a.Config.GetString("launcher.windowTitle")
}

// ApplyArgs handles [username [password [server[:port]]]] and returns the credentials to prefill.
// A login should start right away when a password is given.
func (a *App) ApplyArgs(args []string) (userName, password string, autoLogin bool) {
	a.Config.Set(config.KeyStandAlone, "true")

	if len(args) >= 3 {
		server, port := parseServer(args[2])
		a.Config.Set(config.KeyServer, server)
		a.Config.Set(config.KeyPort, port)
	}

	if len(args) >= 1 {
		userName = args[0]
		if len(args) >= 2 {
			password = args[1]
			autoLogin = true
		}
	} else {
		userName = a.Config.GetString(config.KeyLastUserName)
	}

	return userName, password, autoLogin
}

func parseServer(arg string) (string, string) {
	if !strings.Contains(arg, ":") {
		return arg, config.DefaultPort
	}
	parts := strings.Split(arg, ":")
	return parts[0], parts[1]
}

// DoLogin runs Login in the background. The result is delivered on the returned channel.
func (a *App) DoLogin() <-chan error {
	logrus.Debug("doLogin")
	return a.background(a.Login)
}

// DoPlayOffline runs PlayOffline in the background. The result is delivered on the returned channel.
func (a *App) DoPlayOffline() <-chan error {
	return a.background(a.PlayOffline)
}

func (a *App) background(fn func(ctx context.Context) error) <-chan error {
	result := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := fn(a.ctx)
		if err != nil {
			logrus.Debugf("login finished with error: %v", err)
		}
		result <- err
	}()
	return result
}

// Wait blocks until background logins have returned.
func (a *App) Wait() {
	a.wg.Wait()
}

// Login authenticates the user, then runs the game. In offline mode the authentication is skipped.
// Failures are reported on the form; the returned error is for callers that need an exit status.
func (a *App) Login(ctx context.Context) error {
	if !a.loggingIn.CompareAndSwap(false, true) {
		return ErrLoginInProgress
	}
	defer a.loggingIn.Store(false)

	if a.Config.GetBool("launcher.offlineMode") {
		return a.playOffline(ctx)
	}

	a.Form.SetStatusText(a.Locale.Get("login.loggingIn"))
	logrus.Info("Logging in...")

	session, err := api.Login(ctx, a.client, api.Request{
		URL:        a.Config.GetString("launcher.loginURL"),
		Parameters: a.Config.GetString("launcher.loginParameters"),
		UserName:   a.Form.UserName(),
		Password:   a.Form.Password(),
	})
	if err != nil {
		a.loginFailed(err)
		return err
	}

	a.Config.Set(config.KeyLatestVersion, session.LatestVersion)
	a.Config.Set(config.KeyDownloadTicket, session.DownloadTicket)
	a.Config.Set(config.KeyUserName, session.UserName)
	a.Config.Set(config.KeySessionID, session.SessionID)
	logrus.WithField("user", session.UserName).Info("logged in")

	if err = a.Config.Persist(config.KeyLastUserName, a.Form.UserName()); err != nil {
		logrus.Warnf("failed to remember user name: %v", err)
	}

	a.Form.LoginOK()

	return a.RunGame(ctx)
}

func (a *App) loginFailed(err error) {
	var msgErr *api.ServerMessageError

	switch {
	case errors.Is(err, lhttp.ErrNoResponse):
		logrus.WithError(err).Warn("login server unreachable")
		a.Form.AskOfflineMode()
		a.Form.SetStatusText(a.Locale.Get("launcher.loginError"))
	case errors.Is(err, api.ErrBadLogin):
		a.Form.SetStatusText(a.Locale.Get("launcher.badLogin"))
	case errors.Is(err, api.ErrOldVersion):
		a.Form.SetStatusText(a.Locale.Get("launcher.oldVersion"))
	case errors.As(err, &msgErr):
		a.Form.SetStatusText(msgErr.Message)
	case errors.Is(err, api.ErrMalformedResponse):
		logrus.WithError(err).Error("login failed")
		a.Form.SetStatusText(a.Locale.Get("launcher.malformedResponse"))
	default:
		logrus.WithError(err).Error("login failed")
	}
}

// PlayOffline runs the installed game without authenticating.
func (a *App) PlayOffline(ctx context.Context) error {
	if !a.loggingIn.CompareAndSwap(false, true) {
		return ErrLoginInProgress
	}
	defer a.loggingIn.Store(false)

	return a.playOffline(ctx)
}

func (a *App) playOffline(ctx context.Context) error {
	logrus.Info("playing offline")

	a.Config.Set(config.KeyLatestVersion, version.Offline)
	a.Config.Set(config.KeyUserName, a.Form.UserName())
	a.Form.LoginOK()

	return a.RunGame(ctx)
}

// RunGame hands the session to the launcher and waits for the game to exit.
func (a *App) RunGame(ctx context.Context) error {
	l := a.newLauncher(launcher.SettingsFromConfig(a.Config), a.client, a.Form.ReportProgress)

	if err := l.Init(ctx); err != nil {
		logrus.WithError(err).Error("failed to initialize the launcher")
		a.Form.SetStatusText(fmt.Sprintf("%s: %v", a.Locale.Get("launcher.initError"), err))
		return err
	}

	a.Form.ShowLauncher()
	a.Form.SetTitle(a.Config.GetString("gameLauncher.gameName"))

	if err := l.Start(ctx); err != nil {
		logrus.WithError(err).Error("the game stopped with an error")
		return err
	}

	return nil
}
