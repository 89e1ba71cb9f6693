package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"mclauncher/launcher"
	"mclauncher/locale"
)

// Window runs the model as a terminal program and lets other goroutines drive it.
type Window struct {
	program *tea.Program
	creds   *credentials
}

// NewWindow creates the window. It is shown by Run. With autoLogin the prefilled credentials are submitted as soon as it starts.
func NewWindow(s *locale.Strings, title, userName, password string, autoLogin bool, cb Callbacks, opts ...tea.ProgramOption) *Window {
	m := NewModel(s, title, userName, password, autoLogin, cb)
	return &Window{
		program: tea.NewProgram(m, opts...),
		creds:   m.creds,
	}
}

// Run blocks until the window is closed.
func (w *Window) Run() error {
	_, err := w.program.Run()
	return err
}

// UserName returns the username currently typed in the form.
func (w *Window) UserName() string {
	user, _ := w.creds.get()
	return user
}

// Password returns the password currently typed in the form.
func (w *Window) Password() string {
	_, pass := w.creds.get()
	return pass
}

// SetStatusText replaces the status line under the form.
func (w *Window) SetStatusText(text string) {
	w.program.Send(StatusMsg{Text: text})
}

// AskOfflineMode asks whether to play offline after the login server could not be reached.
func (w *Window) AskOfflineMode() {
	w.program.Send(AskOfflineMsg{})
}

// LoginOK greets the logged in user.
func (w *Window) LoginOK() {
	w.program.Send(LoginOKMsg{})
}

// ShowLauncher swaps the form for the launcher progress view.
func (w *Window) ShowLauncher() {
	w.program.Send(ShowLauncherMsg{})
}

// ReportProgress updates the launcher progress view. It is a launcher.Reporter.
func (w *Window) ReportProgress(p launcher.Progress) {
	w.program.Send(ProgressMsg{Progress: p})
}

// SetTitle changes the window and terminal title.
func (w *Window) SetTitle(title string) {
	w.program.Send(TitleMsg{Title: title})
}
