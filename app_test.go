package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mclauncher/config"
	lhttp "mclauncher/http"
	"mclauncher/launcher"
	"mclauncher/version"
)

type fakeForm struct {
	mu sync.Mutex

	userName string
	password string

	status       []string
	askedOffline bool
	loggedIn     bool
	launcher     bool
	title        string
}

func (f *fakeForm) UserName() string { return f.userName }
func (f *fakeForm) Password() string { return f.password }

func (f *fakeForm) SetStatusText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = append(f.status, text)
}

func (f *fakeForm) AskOfflineMode() { f.askedOffline = true }
func (f *fakeForm) LoginOK()        { f.loggedIn = true }
func (f *fakeForm) ShowLauncher()   { f.launcher = true }

func (f *fakeForm) ReportProgress(launcher.Progress) {}

func (f *fakeForm) SetTitle(title string) { f.title = title }

func (f *fakeForm) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.status) == 0 {
		return ""
	}
	return f.status[len(f.status)-1]
}

type fakeClient struct {
	response string
	err      error

	target     string
	parameters string
}

func (c *fakeClient) ExecutePost(_ context.Context, target string, parameters string) (string, error) {
	c.target = target
	c.parameters = parameters
	return c.response, c.err
}

func (c *fakeClient) DownloadFile(context.Context, string, string, *lhttp.DownloadProgressTracker) error {
	return errors.New("unexpected download")
}

type fakeLauncher struct {
	settings launcher.Settings
	initErr  error
	startErr error
	started  bool
}

func (l *fakeLauncher) Init(context.Context) error { return l.initErr }

func (l *fakeLauncher) Start(context.Context) error {
	l.started = true
	return l.startErr
}

func newTestApp(t *testing.T, client *fakeClient, l *fakeLauncher) (*App, *fakeForm) {
	t.Helper()

	cfg := config.New()
	require.NoError(t, cfg.Load(filepath.Join(t.TempDir(), "config.yml")))

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	form := &fakeForm{userName: "steve", password: "p&ss"}
	app.Form = form
	app.client = client
	app.newLauncher = func(s launcher.Settings, _ launcher.Downloader, _ launcher.Reporter) Launcher {
		l.settings = s
		return l
	}
	return app, form
}

func TestLogin_Success(t *testing.T) {
	client := &fakeClient{response: "1.2.3:ticket:Steve:abc123"}
	l := &fakeLauncher{}
	app, form := newTestApp(t, client, l)

	require.NoError(t, app.Login(context.Background()))

	assert.Equal(t, "https://login.minecraft.net/", client.target)
	assert.Equal(t, "user=steve&password=p%26ss&version=13", client.parameters)

	assert.Equal(t, "1.2.3", app.Config.GetString(config.KeyLatestVersion))
	assert.Equal(t, "ticket", app.Config.GetString(config.KeyDownloadTicket))
	assert.Equal(t, "Steve", app.Config.GetString(config.KeyUserName))
	assert.Equal(t, "abc123", app.Config.GetString(config.KeySessionID))
	assert.Equal(t, "steve", app.Config.GetString(config.KeyLastUserName))

	assert.True(t, form.loggedIn)
	assert.True(t, form.launcher)
	assert.Equal(t, "Minecraft", form.title)

	assert.True(t, l.started)
	assert.Equal(t, "abc123", l.settings.SessionID)
	assert.Equal(t, "ticket", l.settings.DownloadTicket)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		err          error
		status       string
		askedOffline bool
	}{
		{
			name:         "unreachable",
			err:          fmt.Errorf("%w: connection refused", lhttp.ErrNoResponse),
			status:       "Can't connect to the login server",
			askedOffline: true,
		},
		{name: "bad login", response: "Bad login", status: "Login failed"},
		{name: "old version", response: "Old version", status: "Outdated launcher"},
		{name: "server message", response: "User not premium", status: "User not premium"},
		{name: "malformed", response: "1.2.3:ticket", status: "Unexpected answer from the login server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{}
			app, form := newTestApp(t, &fakeClient{response: tt.response, err: tt.err}, l)

			require.Error(t, app.Login(context.Background()))

			assert.Equal(t, tt.status, form.lastStatus())
			assert.Equal(t, tt.askedOffline, form.askedOffline)
			assert.False(t, form.loggedIn)
			assert.False(t, l.started)
			assert.Empty(t, app.Config.GetString(config.KeySessionID))
		})
	}
}

func TestLogin_OfflineModeSkipsServer(t *testing.T) {
	client := &fakeClient{err: errors.New("must not be called")}
	l := &fakeLauncher{}
	app, form := newTestApp(t, client, l)
	app.Config.Set("launcher.offlineMode", true)

	require.NoError(t, app.Login(context.Background()))

	assert.Empty(t, client.target)
	assert.Equal(t, version.Offline, l.settings.LatestVersion)
	assert.Equal(t, "steve", l.settings.UserName)
	assert.True(t, form.loggedIn)
	assert.True(t, l.started)
}

func TestRunGame_InitFailure(t *testing.T) {
	l := &fakeLauncher{initErr: launcher.ErrNotInstalled}
	app, form := newTestApp(t, &fakeClient{}, l)

	err := app.PlayOffline(context.Background())
	require.ErrorIs(t, err, launcher.ErrNotInstalled)

	assert.Contains(t, form.lastStatus(), "Unable to prepare the game")
	assert.False(t, form.launcher)
	assert.False(t, l.started)
}

func TestRunGame_StartFailure(t *testing.T) {
	l := &fakeLauncher{startErr: errors.New("exit status 1")}
	app, form := newTestApp(t, &fakeClient{}, l)

	require.Error(t, app.RunGame(context.Background()))
	assert.True(t, form.launcher)
	assert.True(t, l.started)
}

func TestDoLogin_RunsInBackground(t *testing.T) {
	l := &fakeLauncher{}
	app, form := newTestApp(t, &fakeClient{response: "1:t:Steve:s"}, l)

	require.NoError(t, <-app.DoLogin())
	app.Wait()

	assert.True(t, form.loggedIn)
	assert.True(t, l.started)
}

func TestDoPlayOffline_RunsInBackground(t *testing.T) {
	l := &fakeLauncher{}
	app, form := newTestApp(t, &fakeClient{err: errors.New("must not be called")}, l)

	require.NoError(t, <-app.DoPlayOffline())
	app.Wait()

	assert.True(t, form.loggedIn)
	assert.Equal(t, version.Offline, l.settings.LatestVersion)
}

type blockingLauncher struct {
	fakeLauncher
	running chan struct{}
	release chan struct{}
}

func (l *blockingLauncher) Start(context.Context) error {
	close(l.running)
	<-l.release
	return nil
}

func TestLogin_RejectsConcurrentLogin(t *testing.T) {
	l := &blockingLauncher{running: make(chan struct{}), release: make(chan struct{})}
	client := &fakeClient{response: "1:t:Steve:s"}
	app, _ := newTestApp(t, client, &l.fakeLauncher)
	app.newLauncher = func(launcher.Settings, launcher.Downloader, launcher.Reporter) Launcher {
		return l
	}

	first := app.DoLogin()
	<-l.running

	assert.ErrorIs(t, app.Login(context.Background()), ErrLoginInProgress)
	assert.ErrorIs(t, app.PlayOffline(context.Background()), ErrLoginInProgress)

	close(l.release)
	require.NoError(t, <-first)
	app.Wait()

	// a finished login frees the slot
	l.running, l.release = make(chan struct{}), make(chan struct{})
	close(l.release)
	assert.NoError(t, app.Login(context.Background()))
}

func TestApplyArgs(t *testing.T) {
	t.Run("no args prefills last user", func(t *testing.T) {
		app, _ := newTestApp(t, &fakeClient{}, &fakeLauncher{})
		require.NoError(t, app.Config.Persist(config.KeyLastUserName, "alex"))

		user, pass, auto := app.ApplyArgs(nil)
		assert.Equal(t, "alex", user)
		assert.Empty(t, pass)
		assert.False(t, auto)
		assert.Equal(t, "true", app.Config.GetString(config.KeyStandAlone))
	})

	t.Run("user only", func(t *testing.T) {
		app, _ := newTestApp(t, &fakeClient{}, &fakeLauncher{})

		user, pass, auto := app.ApplyArgs([]string{"steve"})
		assert.Equal(t, "steve", user)
		assert.Empty(t, pass)
		assert.False(t, auto)
	})

	t.Run("user password server", func(t *testing.T) {
		app, _ := newTestApp(t, &fakeClient{}, &fakeLauncher{})

		user, pass, auto := app.ApplyArgs([]string{"steve", "secret", "play.example.com:25566"})
		assert.Equal(t, "steve", user)
		assert.Equal(t, "secret", pass)
		assert.True(t, auto)
		assert.Equal(t, "play.example.com", app.Config.GetString(config.KeyServer))
		assert.Equal(t, "25566", app.Config.GetString(config.KeyPort))
	})
}

func TestParseServer(t *testing.T) {
	server, port := parseServer("example.com")
	assert.Equal(t, "example.com", server)
	assert.Equal(t, config.DefaultPort, port)

	server, port = parseServer("10.0.0.1:1234")
	assert.Equal(t, "10.0.0.1", server)
	assert.Equal(t, "1234", port)
}
