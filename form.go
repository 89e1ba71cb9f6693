package main

import (
	"github.com/sirupsen/logrus"

	"mclauncher/launcher"
)

// headlessForm stands in for the window when running without a terminal UI.
type headlessForm struct {
	userName string
	password string

	lastState launcher.State
}

func newHeadlessForm(userName, password string) *headlessForm {
	return &headlessForm{userName: userName, password: password, lastState: -1}
}

func (f *headlessForm) UserName() string { return f.userName }
func (f *headlessForm) Password() string { return f.password }

func (f *headlessForm) SetStatusText(text string) {
	logrus.Info(text)
}

func (f *headlessForm) AskOfflineMode() {
	logrus.Warn("the login server is unreachable, run again with --offline to play offline")
}

func (f *headlessForm) LoginOK() {
	logrus.Infof("logged in as %s", f.userName)
}

func (f *headlessForm) ShowLauncher() {}

func (f *headlessForm) ReportProgress(p launcher.Progress) {
	if p.State == f.lastState {
		logrus.WithField("progress", int(p.Percent*100)).Debug(p.Message)
		return
	}
	f.lastState = p.State
	logrus.WithField("state", p.State.String()).Info(p.Message)
}

func (f *headlessForm) SetTitle(title string) {
	logrus.Infof("starting %s", title)
}
