package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mclauncher/launcher"
	"mclauncher/locale"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_TypingUpdatesCredentials(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "", "", false, Callbacks{})

	m = typeText(t, m, "steve")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "secret")

	user, pass := m.creds.get()
	assert.Equal(t, "steve", user)
	assert.Equal(t, "secret", pass)
}

func TestModel_PrefilledUserFocusesPassword(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "", false, Callbacks{})

	assert.Equal(t, focusPassword, m.focus)
	m = typeText(t, m, "pw")

	user, pass := m.creds.get()
	assert.Equal(t, "steve", user)
	assert.Equal(t, "pw", pass)
}

func TestModel_EnterSubmitsLogin(t *testing.T) {
	called := false
	m := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "secret", false, Callbacks{
		Login: func() { called = true },
	})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// a second enter while busy does not submit again
	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	m, _ = update(t, m, loginDoneMsg{})
	assert.False(t, m.busy)

	// run the login command directly
	m2 := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "secret", false, Callbacks{
		Login: func() { called = true },
	})
	msg := m2.callback(m2.cb.Login)()
	assert.True(t, called)
	assert.IsType(t, loginDoneMsg{}, msg)
}

func TestModel_EnterOnUserFieldMovesFocus(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "", "", false, Callbacks{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, focusPassword, m.focus)
	assert.False(t, m.busy)
}

func TestModel_OfflinePrompt(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "", false, Callbacks{})

	m, _ = update(t, m, AskOfflineMsg{})
	assert.Equal(t, viewOffline, m.state)
	assert.Contains(t, m.View(), "Play offline?")

	declined, _ := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, viewLogin, declined.state)

	accepted, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	assert.NotNil(t, cmd)
	assert.True(t, accepted.busy)
}

func TestModel_StatusAndLauncherView(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "", false, Callbacks{})

	m, _ = update(t, m, StatusMsg{Text: "Login failed"})
	assert.Contains(t, m.View(), "Login failed")

	m, _ = update(t, m, LoginOKMsg{})
	assert.Contains(t, m.View(), "Welcome, steve")

	m, _ = update(t, m, ShowLauncherMsg{})
	m, _ = update(t, m, ProgressMsg{Progress: launcher.Progress{State: launcher.StateDownloading, Percent: 0.5}})
	assert.Equal(t, viewLauncher, m.state)
	assert.Contains(t, m.View(), "Downloading files")

	// quitting is only offered once the game has exited
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Nil(t, cmd)

	m, _ = update(t, m, ProgressMsg{Progress: launcher.Progress{State: launcher.StateFailed, Message: "game exited with code 1"}})
	view := m.View()
	assert.True(t, strings.Contains(view, "game exited with code 1"))
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.NotNil(t, cmd)
}

func TestModel_TitleMsg(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "", "", false, Callbacks{})

	m, cmd := update(t, m, TitleMsg{Title: "Minecraft"})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Minecraft")
}

func TestModel_EscQuits(t *testing.T) {
	m := NewModel(locale.New([]string{"en"}), "Launcher", "", "", false, Callbacks{})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_AutoLoginSubmitsOnceFromInit(t *testing.T) {
	calls := 0
	m := NewModel(locale.New([]string{"en"}), "Launcher", "steve", "secret", true, Callbacks{
		Login: func() { calls++ },
	})
	assert.True(t, m.busy)

	initCmd := m.Init()
	require.NotNil(t, initCmd)
	batch, ok := initCmd().(tea.BatchMsg)
	require.True(t, ok)

	done := 0
	for _, cmd := range batch {
		if cmd == nil {
			continue
		}
		if _, ok := cmd().(loginDoneMsg); ok {
			done++
		}
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, done)

	// the form stays busy while the first login runs
	m, _ = update(t, m, StatusMsg{Text: "Logging in..."})
	assert.True(t, m.busy)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, calls)

	m, _ = update(t, m, loginDoneMsg{})
	assert.False(t, m.busy)
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
}

func TestModel_WelcomeWithoutTranslations(t *testing.T) {
	m := NewModel(locale.New(nil), "Launcher", "steve", "", false, Callbacks{})

	m, _ = update(t, m, LoginOKMsg{})
	assert.Equal(t, "steve", m.status)
	assert.NotContains(t, m.View(), "%!")
}
