package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// ErrAlreadyRunning is returned when the game executable is already running.
var ErrAlreadyRunning = errors.New("game is already running")

// findProcesses is replaced in tests.
var findProcesses = ps.Processes

func isRunning(exe string) (bool, error) {
	processes, err := findProcesses()
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	name := filepath.Base(exe)
	self := os.Getpid()
	for _, p := range processes {
		if p.Pid() == self {
			continue
		}
		if strings.EqualFold(p.Executable(), name) {
			return true, nil
		}
	}

	return false, nil
}

func (l *Launcher) run(ctx context.Context, exe string, args []string) (err error) {
	running, err := isRunning(exe)
	if err != nil {
		logrus.Warnf("failed to check whether the game is running: %v", err)
	} else if running {
		return ErrAlreadyRunning
	}

	logrus.Infof("using executable: %s", exe)
	logrus.Debugf("game arguments: %q", args)

	stdout := logrus.WithField("stream", "stdout").WriterLevel(logrus.InfoLevel)
	stderr := logrus.WithField("stream", "stderr").WriterLevel(logrus.WarnLevel)
	defer multierr.AppendInvoke(&err, multierr.Close(stdout))
	defer multierr.AppendInvoke(&err, multierr.Close(stderr))

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = l.gameDir
	cmd.Env = os.Environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err = os.MkdirAll(l.gameDir, 0755); err != nil {
		return fmt.Errorf("failed to create game directory: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start the game: %w", err)
	}
	l.progress(StateRunning, 1, "running")
	logrus.Infof("game started with pid %d", cmd.Process.Pid)

	if err = cmd.Wait(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return fmt.Errorf("game exited with code %d", exitError.ExitCode())
		}
		return fmt.Errorf("game exit error: %w", err)
	}

	logrus.Infof("game exited normally")
	return nil
}
