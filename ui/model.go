// Package ui implements the launcher window as a terminal program: a login form
// that turns into a progress view once the game is handed to the launcher.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mclauncher/launcher"
	"mclauncher/locale"
)

type viewState int

const (
	viewLogin viewState = iota
	viewOffline
	viewLauncher
)

const (
	focusUser = iota
	focusPassword
)

// Messages sent to the model by the shell.
type (
	StatusMsg       struct{ Text string }
	AskOfflineMsg   struct{}
	LoginOKMsg      struct{}
	ShowLauncherMsg struct{}
	ProgressMsg     struct{ Progress launcher.Progress }
	TitleMsg        struct{ Title string }
	loginDoneMsg    struct{}
)

// Callbacks are invoked from command goroutines, never from the update loop.
type Callbacks struct {
	Login       func()
	PlayOffline func()
}

type credentials struct {
	mu       sync.RWMutex
	userName string
	password string
}

func (c *credentials) set(user, pass string) {
	c.mu.Lock()
	c.userName, c.password = user, pass
	c.mu.Unlock()
}

func (c *credentials) get() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userName, c.password
}

// Model is the bubbletea model of the launcher window.
type Model struct {
	strings *locale.Strings
	styles  Styles
	cb      Callbacks
	creds   *credentials

	title     string
	state     viewState
	focus     int
	user      textinput.Model
	pass      textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	status    string
	busy      bool
	autoLogin bool
	loggedIn  bool
	current   launcher.Progress
	width     int
}

// NewModel creates the login form with optional prefilled credentials.
// With autoLogin the form starts busy and submits the prefilled credentials from Init.
func NewModel(s *locale.Strings, title string, userName, password string, autoLogin bool, cb Callbacks) Model {
	user := textinput.New()
	user.Placeholder = s.Get("login.userName")
	user.CharLimit = 64
	user.SetValue(userName)

	pass := textinput.New()
	pass.Placeholder = s.Get("login.password")
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128
	pass.SetValue(password)

	m := Model{
		strings:  s,
		styles:   DefaultStyles(),
		cb:       cb,
		creds:    &credentials{},
		title:    title,
		user:     user,
		pass:     pass,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	m.autoLogin = autoLogin
	m.busy = autoLogin
	m.creds.set(userName, password)

	if userName != "" {
		m.focus = focusPassword
		m.pass.Focus()
	} else {
		m.user.Focus()
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tea.SetWindowTitle(m.title)}
	if m.autoLogin {
		cmds = append(cmds, m.spinner.Tick, m.callback(m.cb.Login))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 10; w > 10 {
			m.progress.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StatusMsg:
		m.status = msg.Text
		return m, nil

	case AskOfflineMsg:
		m.busy = false
		m.state = viewOffline
		return m, nil

	case LoginOKMsg:
		m.loggedIn = true
		user, _ := m.creds.get()
		m.status = user
		if welcome, ok := m.strings.Lookup("login.welcome"); ok {
			m.status = fmt.Sprintf(welcome, user)
		}
		return m, nil

	case ShowLauncherMsg:
		m.state = viewLauncher
		return m, nil

	case ProgressMsg:
		m.current = msg.Progress
		return m, nil

	case TitleMsg:
		m.title = msg.Title
		return m, tea.SetWindowTitle(msg.Title)

	case loginDoneMsg:
		m.busy = false
		return m, nil

	case spinner.TickMsg:
		if !m.busy && m.state != viewLauncher {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	}

	switch m.state {
	case viewOffline:
		switch strings.ToLower(msg.String()) {
		case "y", "o":
			m.state = viewLogin
			m.busy = true
			return m, tea.Batch(m.spinner.Tick, m.callback(m.cb.PlayOffline))
		case "n":
			m.state = viewLogin
			return m, nil
		}
		return m, nil

	case viewLauncher:
		if msg.String() == "q" && (m.current.State == launcher.StateDone || m.current.State == launcher.StateFailed) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.toggleFocus()
		return m, nil
	case tea.KeyEnter:
		if m.focus == focusUser {
			m.toggleFocus()
			return m, nil
		}
		if m.busy || m.user.Value() == "" {
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.callback(m.cb.Login))
	}

	return m.updateInputs(msg)
}

func (m *Model) toggleFocus() {
	if m.focus == focusUser {
		m.focus = focusPassword
		m.user.Blur()
		m.pass.Focus()
	} else {
		m.focus = focusUser
		m.pass.Blur()
		m.user.Focus()
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state != viewLogin || m.busy {
		return m, nil
	}

	var cmds [2]tea.Cmd
	m.user, cmds[0] = m.user.Update(msg)
	m.pass, cmds[1] = m.pass.Update(msg)
	m.creds.set(m.user.Value(), m.pass.Value())

	return m, tea.Batch(cmds[:]...)
}

func (m Model) callback(fn func()) tea.Cmd {
	return func() tea.Msg {
		if fn != nil {
			fn()
		}
		return loginDoneMsg{}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(m.title))
	sb.WriteString("\n")

	switch m.state {
	case viewLauncher:
		sb.WriteString(m.launcherView())
	case viewOffline:
		sb.WriteString(m.styles.Error.Render(m.strings.Get("launcher.loginError")))
		sb.WriteString("\n")
		sb.WriteString(m.strings.Get("login.offlineQuestion"))
	default:
		sb.WriteString(m.loginView())
	}

	return m.styles.Frame.Render(sb.String())
}

func (m Model) loginView() string {
	var sb strings.Builder

	label := m.styles.Label
	if m.focus == focusUser {
		label = m.styles.Focused
	}
	sb.WriteString(label.Render(m.strings.Get("login.userName")))
	sb.WriteString(m.user.View())
	sb.WriteString("\n")

	label = m.styles.Label
	if m.focus == focusPassword {
		label = m.styles.Focused
	}
	sb.WriteString(label.Render(m.strings.Get("login.password")))
	sb.WriteString(m.pass.View())
	sb.WriteString("\n")

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	if status != "" {
		sb.WriteString(m.styles.Status.Render(status))
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.Help.Render("tab: switch field • enter: " + m.strings.Get("login.submit") + " • esc: quit"))
	return sb.String()
}

func (m Model) launcherView() string {
	var sb strings.Builder

	sb.WriteString(m.strings.Get(stateKey(m.current.State)))
	sb.WriteString("\n\n")
	sb.WriteString(m.progress.ViewAs(m.current.Percent))
	sb.WriteString("\n")

	switch m.current.State {
	case launcher.StateFailed:
		sb.WriteString(m.styles.Error.Render(m.current.Message))
		sb.WriteString("\n")
		sb.WriteString(m.styles.Help.Render("q: quit"))
	case launcher.StateDone:
		sb.WriteString(m.styles.Help.Render("q: quit"))
	}

	return sb.String()
}

func stateKey(s launcher.State) string {
	switch s {
	case launcher.StateDownloading:
		return "updater.downloading"
	case launcher.StateExtracting:
		return "updater.extracting"
	case launcher.StateLaunching:
		return "updater.launching"
	case launcher.StateRunning:
		return "updater.running"
	case launcher.StateDone:
		return "updater.done"
	case launcher.StateFailed:
		return "launcher.startError"
	default:
		return "updater.checking"
	}
}
