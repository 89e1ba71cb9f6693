// Package http provides the launcher's HTTP transport: the login POST and file downloads with progress tracking.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// DownloadProgressTracker counts the bytes written through it and reports them to Progress.
// Total is filled from the response Content-Length when the server sends one.
type DownloadProgressTracker struct {
	Current  uint64
	Total    uint64
	Progress func(current uint64, total uint64)
}

func NewDownloadProgressTracker(total uint64, progress func(current uint64, total uint64)) *DownloadProgressTracker {
	return &DownloadProgressTracker{Total: total, Progress: progress}
}

func (t *DownloadProgressTracker) Write(p []byte) (int, error) {
	t.Current += uint64(len(p))
	if t.Progress != nil {
		t.Progress(t.Current, t.Total)
	}
	return len(p), nil
}

// DownloadFile fetches url into path. The body is written to a ".part" file first and renamed over path once complete.
func (c *Client) DownloadFile(ctx context.Context, path string, url string, counter *DownloadProgressTracker) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create a HTTP request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send a HTTP GET request: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(resp.Body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: bad status: %s", redact(url), resp.Status)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create a directory for %s: %w", path, err)
	}

	part := path + ".part"
	if err = writeBody(part, resp, counter); err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.Warnf("failed to remove partial download %s: %v", part, rmErr)
		}
		return err
	}

	if err = os.Rename(part, path); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	return nil
}

func writeBody(path string, resp *http.Response, counter *DownloadProgressTracker) (err error) {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(out))

	var src io.Reader = resp.Body
	if counter != nil {
		if resp.ContentLength > 0 {
			counter.Total = uint64(resp.ContentLength)
		}
		src = io.TeeReader(resp.Body, counter)
	}

	if _, err = io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
