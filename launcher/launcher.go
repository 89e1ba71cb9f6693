// Package launcher prepares and starts the game once the user is logged in:
// it brings the installation up to date, then runs the game process.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mclauncher/config"
	"mclauncher/http"
	"mclauncher/utils"
	"mclauncher/version"
)

var (
	// ErrNotInstalled is returned when playing offline without a local installation.
	ErrNotInstalled = errors.New("game is not installed, log in once to download it")
	// ErrNotInitialized is returned by Start when Init did not succeed.
	ErrNotInitialized = errors.New("launcher is not initialized")
)

type State int

const (
	StateInit State = iota
	StateChecking
	StateDownloading
	StateExtracting
	StateLaunching
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateChecking:
		return "checking"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateLaunching:
		return "launching"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Progress is a snapshot of the launcher's work. Percent is in [0, 1].
type Progress struct {
	State   State
	Percent float64
	Message string
}

// Reporter receives progress updates. Calls are serialized.
type Reporter func(Progress)

// Downloader fetches a remote file to a local path.
type Downloader interface {
	DownloadFile(ctx context.Context, path string, url string, counter *http.DownloadProgressTracker) error
}

// Launcher downloads the game when needed and runs it.
type Launcher struct {
	settings   Settings
	downloader Downloader

	mu     sync.Mutex
	report Reporter

	gameDir     string
	binDir      string
	installed   string
	update      bool
	initialized bool
}

// New creates a launcher. A nil reporter discards progress.
func New(s Settings, d Downloader, report Reporter) *Launcher {
	if report == nil {
		report = func(Progress) {}
	}
	return &Launcher{
		settings:   s,
		downloader: d,
		report:     report,
	}
}

// GameDir returns the resolved game directory, available after Init.
func (l *Launcher) GameDir() string {
	return l.gameDir
}

// NeedsUpdate reports whether Start will download the game, available after Init.
func (l *Launcher) NeedsUpdate() bool {
	return l.update
}

// Init resolves the game directory and decides whether an update is needed.
func (l *Launcher) Init(ctx context.Context) error {
	l.progress(StateChecking, 0, "checking installed version")

	gameDir, err := resolveGameDir(l.settings)
	if err != nil {
		return err
	}
	l.gameDir = gameDir
	l.binDir = filepath.Join(gameDir, config.BinDir)
	logrus.Debugf("game directory: %s", l.gameDir)

	l.installed, err = version.ReadVersion(l.binDir)
	if err != nil {
		return err
	}

	latest := l.settings.LatestVersion
	if latest == version.Offline && l.installed == "" {
		return ErrNotInstalled
	}

	l.update = version.NeedsUpdate(l.installed, latest, l.settings.ForceUpdate)
	logrus.Infof("installed version %q, latest version %q, update needed: %t", l.installed, latest, l.update)

	l.initialized = true
	return ctx.Err()
}

// Start updates the installation if needed, then runs the game and waits for it to exit.
func (l *Launcher) Start(ctx context.Context) error {
	if !l.initialized {
		return ErrNotInitialized
	}

	if err := l.start(ctx); err != nil {
		l.progress(StateFailed, 0, err.Error())
		return err
	}

	l.progress(StateDone, 1, "game closed")
	return nil
}

func (l *Launcher) start(ctx context.Context) error {
	if l.update {
		if err := l.install(ctx); err != nil {
			return err
		}
	}

	l.progress(StateLaunching, 1, "launching")

	exe, err := utils.FindExecutable(l.binDir, l.settings.Executable)
	if err != nil {
		return err
	}

	keys := l.settings.keys(l.gameDir)
	args := utils.FormatAll(l.settings.Arguments, keys)
	if l.settings.Server != "" {
		args = append(args, utils.FormatAll(l.settings.ServerArguments, keys)...)
	}

	return l.run(ctx, exe, args)
}

func (l *Launcher) install(ctx context.Context) error {
	tempDir := filepath.Join(l.gameDir, config.TempDir, config.DownloadDir)
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logrus.Errorf("failed to remove temporary download directory: %v", err)
		}
	}()

	paths, err := l.download(ctx, tempDir)
	if err != nil {
		return err
	}

	l.progress(StateExtracting, 0, "extracting")
	for i, path := range paths {
		name := filepath.Base(path)
		if utils.IsArchive(name) {
			if err = utils.ExtractArchive(path, l.binDir); err != nil {
				return fmt.Errorf("failed to extract %s: %w", name, err)
			}
		} else {
			if err = os.MkdirAll(l.binDir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", l.binDir, err)
			}
			if err = os.Rename(path, filepath.Join(l.binDir, name)); err != nil {
				return fmt.Errorf("failed to move %s: %w", name, err)
			}
		}
		l.progress(StateExtracting, float64(i+1)/float64(len(paths)), name)
	}

	if err = version.WriteVersion(l.binDir, l.settings.LatestVersion); err != nil {
		return err
	}
	l.installed = l.settings.LatestVersion

	return nil
}

func (l *Launcher) download(ctx context.Context, tempDir string) ([]string, error) {
	files := l.settings.Files
	paths := make([]string, len(files))

	var (
		mu      sync.Mutex
		current = make([]uint64, len(files))
		totals  = make([]uint64, len(files))
	)
	update := func(i int, c, t uint64) {
		mu.Lock()
		current[i], totals[i] = c, t
		var sc, st uint64
		for j := range current {
			sc += current[j]
			st += totals[j]
		}
		mu.Unlock()

		if st > 0 {
			l.progress(StateDownloading, float64(sc)/float64(st), "downloading")
		}
	}

	l.progress(StateDownloading, 0, "downloading")

	g, gctx := errgroup.WithContext(ctx)
	limit := l.settings.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, file := range files {
		i, file := i, file
		target, err := l.fileURL(file)
		if err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(tempDir, filepath.Base(file))

		g.Go(func() error {
			counter := http.NewDownloadProgressTracker(0, func(c uint64, t uint64) {
				update(i, c, t)
			})
			logrus.Debugf("downloading %s to %s", file, paths[i])
			if err := l.downloader.DownloadFile(gctx, paths[i], target, counter); err != nil {
				return fmt.Errorf("failed to download %s: %w", file, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

func (l *Launcher) fileURL(file string) (string, error) {
	u, err := url.Parse(l.settings.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid updater base url: %w", err)
	}
	u = u.JoinPath(file)

	params := utils.Format(l.settings.DownloadParameters, map[string]string{
		"USERNAME": url.QueryEscape(l.settings.UserName),
		"TICKET":   url.QueryEscape(l.settings.DownloadTicket),
		"VERSION":  url.QueryEscape(l.settings.LatestVersion),
	})
	if params != "" {
		u.RawQuery = params
	}

	return u.String(), nil
}

func (l *Launcher) progress(state State, percent float64, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report(Progress{State: state, Percent: percent, Message: message})
}

func resolveGameDir(s Settings) (string, error) {
	if s.GameDir != "" {
		return filepath.Abs(s.GameDir)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	name := strings.ToLower(strings.ReplaceAll(s.GameName, " ", ""))
	if name == "" {
		name = "game"
	}

	return filepath.Join(base, name), nil
}
