// Package utils provides utility functions for the launcher.
package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// IsArchive reports whether the file name looks like an archive the launcher can extract.
func IsArchive(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".zip"
}

// ExtractArchive extracts the given archive to the given destination path.
func ExtractArchive(archivePath string, destinationPath string) (err error) {
	logrus.Debugf("extracting archive %s to %s", archivePath, destinationPath)

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(r))

	err = os.MkdirAll(destinationPath, 0755)
	if err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, f := range r.File {
		if err = extractFile(f, destinationPath); err != nil {
			return fmt.Errorf("failed to extract file: %w", err)
		}
	}

	return nil
}

func extractFile(f *zip.File, destinationPath string) (err error) {
	path := filepath.Join(destinationPath, f.Name)

	if !strings.HasPrefix(path, filepath.Clean(destinationPath)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal file path: %s", path)
	}

	if f.FileInfo().IsDir() {
		if err = os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in archive: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rc))

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(out))

	if _, err = io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
