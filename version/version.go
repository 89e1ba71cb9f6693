// Package version provides the launcher's own version and functions for reading and writing the installed game version.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"
)

// Offline is the latest version reported for a session that did not authenticate.
const Offline = "-1"

// AppVersion is the launcher version.
var AppVersion = semver.MustParse("0.9.3")

const versionFileName = ".version"

// ReadVersion reads the installed game version from the .version file in the given directory.
// An empty string is returned when nothing is installed.
func ReadVersion(dir string) (string, error) {
	versionFile := filepath.Join(dir, versionFileName)

	b, err := os.ReadFile(versionFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to read version from file: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}

// WriteVersion writes the installed game version to the .version file in the given directory.
func WriteVersion(dir string, version string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}

	versionFile := filepath.Join(dir, versionFileName)
	if err := os.WriteFile(versionFile, []byte(version), 0644); err != nil {
		return fmt.Errorf("failed to write version to file: %w", err)
	}

	return nil
}

// NeedsUpdate decides whether the latest version has to be downloaded over the installed one.
func NeedsUpdate(installed, latest string, force bool) bool {
	if latest == Offline {
		return false
	}
	if force || installed == "" {
		return true
	}

	iv, err1 := semver.NewVersion(installed)
	lv, err2 := semver.NewVersion(latest)
	if err1 == nil && err2 == nil {
		return lv.GreaterThan(iv)
	}

	return installed != latest
}
