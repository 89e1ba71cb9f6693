package http

import (
	"context"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pemEncode(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestDownloadFile(t *testing.T) {
	payload := "game archive contents"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ticket123", r.URL.Query().Get("ticket"))
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	c, err := NewClient("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "game.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	var last uint64
	counter := NewDownloadProgressTracker(0, func(current uint64, total uint64) {
		last = current
	})

	require.NoError(t, c.DownloadFile(context.Background(), path, srv.URL+"/game.zip?ticket=ticket123", counter))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(b))
	assert.Equal(t, uint64(len(payload)), last)
	assert.Equal(t, uint64(len(payload)), counter.Total)

	_, err = os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFile_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, err := NewClient("")
	require.NoError(t, err)

	err = c.DownloadFile(context.Background(), filepath.Join(t.TempDir(), "x"), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")
}

func TestDownloadProgressTracker_Write(t *testing.T) {
	var calls int
	c := NewDownloadProgressTracker(10, func(current uint64, total uint64) {
		calls++
		assert.Equal(t, uint64(10), total)
	})

	n, err := c.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	_, _ = c.Write([]byte("world"))

	assert.Equal(t, uint64(10), c.Current)
	assert.Equal(t, 2, calls)
}
