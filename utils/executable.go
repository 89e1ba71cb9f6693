package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var (
	magicELF    = []byte{0x7f, 'E', 'L', 'F'}
	magicPE     = []byte{'M', 'Z'}
	magicMachO  = [][]byte{{0xfe, 0xed, 0xfa, 0xce}, {0xfe, 0xed, 0xfa, 0xcf}, {0xce, 0xfa, 0xed, 0xfe}, {0xcf, 0xfa, 0xed, 0xfe}, {0xca, 0xfe, 0xba, 0xbe}}
	magicScript = []byte("#!")
)

// IsExecutable checks the leading bytes of r for a native binary or a script shebang.
func IsExecutable(r io.Reader) (bool, error) {
	header := make([]byte, 4)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	header = header[:n]

	if bytes.HasPrefix(header, magicELF) || bytes.HasPrefix(header, magicPE) || bytes.HasPrefix(header, magicScript) {
		return true, nil
	}
	for _, m := range magicMachO {
		if bytes.HasPrefix(header, m) {
			return true, nil
		}
	}

	return false, nil
}

func isExecutableFile(path string) (ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	return IsExecutable(f)
}

// getExecutableByName returns the absolute path of the named executable located in the given directory.
func getExecutableByName(dir string, name string) (string, error) {
	path := filepath.Join(dir, name)
	if //goland:noinspection GoBoolExpressions
	runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		path = path + ".exe"
	}
	exe, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(exe)
	if err != nil {
		return "", err
	}

	if fi.IsDir() {
		return "", fmt.Errorf("game executable is a directory")
	}

	return exe, nil
}

// FindExecutable returns the executable path of the game located in the given directory.
// A configured name wins; otherwise the directory is walked for the first native binary or script.
func FindExecutable(dir string, name string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			logrus.Warningf("game directory does not exist: %s", dir)
			return "", err
		}
		return "", fmt.Errorf("failed to stat game directory: %w", err)
	}

	if name != "" {
		return getExecutableByName(dir, name)
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		ok, err := isExecutableFile(path)
		if err != nil {
			return err
		}

		if ok {
			found = path
			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to find game executable: %w", err)
	}

	if found == "" {
		return "", fmt.Errorf("failed to find game executable in %s", dir)
	}

	return filepath.Abs(found)
}
