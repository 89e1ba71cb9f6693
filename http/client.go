package http

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoResponse is returned when the remote endpoint could not be reached or answered with an error status.
var ErrNoResponse = errors.New("no response from server")

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 30 * time.Second

// Client performs the launcher's HTTP requests. The zero value is not usable, create one with NewClient.
type Client struct {
	client *http.Client
}

// NewClient creates a client trusting the system roots and, when keyFile names a PEM certificate bundle, the certificates it contains.
func NewClient(keyFile string) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if keyFile != "" {
		pool, err := certPool(keyFile)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
	}, nil
}

func certPool(keyFile string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", keyFile, err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("key file %s contains no PEM certificates", keyFile)
	}

	return pool, nil
}

// ExecutePost sends the url-encoded parameters to the target and returns the response body, lines joined with '\r'.
// Any transport failure or error status yields ErrNoResponse.
func (c *Client) ExecutePost(ctx context.Context, target string, parameters string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(parameters))
	if err != nil {
		return "", fmt.Errorf("failed to create a HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Language", "en-US")

	resp, err := c.client.Do(req)
	if err != nil {
		logrus.Errorf("failed to send a HTTP POST request to %s: %v", redact(target), err)
		return "", fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			logrus.Errorf("error closing http response body: %v", err)
		}
	}(resp.Body)

	if resp.StatusCode >= 400 {
		logrus.Errorf("request to %s failed with status code %d", redact(target), resp.StatusCode)
		return "", fmt.Errorf("%w: status code %d", ErrNoResponse, resp.StatusCode)
	}

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrNoResponse, err)
	}

	return strings.Join(lines, "\r"), nil
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
