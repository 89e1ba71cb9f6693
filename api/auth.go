// Package api implements the login exchange with the authentication server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"mclauncher/utils"
)

var (
	// ErrBadLogin is returned when the server rejects the credentials.
	ErrBadLogin = errors.New("bad login")
	// ErrOldVersion is returned when the server refuses the launcher version.
	ErrOldVersion = errors.New("old version")
	// ErrMalformedResponse is returned for a colon-delimited response with missing fields.
	ErrMalformedResponse = errors.New("malformed login response")
)

// ServerMessageError carries a free-text refusal from the server, meant to be shown verbatim.
type ServerMessageError struct {
	Message string
}

func (e *ServerMessageError) Error() string {
	return e.Message
}

// Poster sends url-encoded parameters and returns the raw response body.
type Poster interface {
	ExecutePost(ctx context.Context, target string, parameters string) (string, error)
}

// Request describes a single login attempt.
type Request struct {
	URL        string
	Parameters string // template with {USERNAME} and {PASSWORD} placeholders
	UserName   string
	Password   string
}

// Session is the result of a successful login.
type Session struct {
	LatestVersion  string
	DownloadTicket string
	UserName       string
	SessionID      string
}

// Login posts the credentials and interprets the response.
func Login(ctx context.Context, p Poster, r Request) (*Session, error) {
	keys := map[string]string{
		"USERNAME": url.QueryEscape(r.UserName),
		"PASSWORD": url.QueryEscape(r.Password),
	}
	parameters := utils.Format(r.Parameters, keys)

	logrus.Debugf("posting login request to %s", r.URL)
	result, err := p.ExecutePost(ctx, r.URL, parameters)
	if err != nil {
		return nil, err
	}

	return ParseResponse(result)
}

// ParseResponse interprets a login response of the form latestVersion:downloadTicket:userName:sessionID.
func ParseResponse(result string) (*Session, error) {
	if !strings.Contains(result, ":") {
		switch msg := strings.TrimSpace(result); msg {
		case "Bad login":
			return nil, ErrBadLogin
		case "Old version":
			return nil, ErrOldVersion
		default:
			return nil, &ServerMessageError{Message: result}
		}
	}

	values := strings.Split(result, ":")
	if len(values) < 4 {
		return nil, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedResponse, len(values))
	}

	return &Session{
		LatestVersion:  strings.TrimSpace(values[0]),
		DownloadTicket: strings.TrimSpace(values[1]),
		UserName:       strings.TrimSpace(values[2]),
		SessionID:      strings.TrimSpace(values[3]),
	}, nil
}
