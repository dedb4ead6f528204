package git

import (
	"errors"
	"fmt"
	"net"
	"strings"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

// Typed git errors enabling structured classification without string parsing upstream.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

type NetworkError struct {
	Op, URL string
	Err     error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s network error for %s: %v", e.Op, e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// classifyCloneError maps go-git failures onto a typed cause.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	var nerr net.Error
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") ||
		strings.Contains(l, "invalid username or password") || strings.Contains(l, "authorization"):
		return &AuthError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist") ||
		strings.Contains(l, "no such file or directory"):
		return &NotFoundError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported") ||
		strings.Contains(l, "unsupported scheme"):
		return &UnsupportedProtocolError{Op: "clone", URL: url, Err: err}
	case errors.As(err, &nerr) || strings.Contains(l, "timeout") || strings.Contains(l, "no route to host") ||
		strings.Contains(l, "connection refused") || strings.Contains(l, "no such host"):
		return &NetworkError{Op: "clone", URL: url, Err: err}
	default:
		return err
	}
}

// fetchError wraps a clone failure as the recipe's FetchError.
func fetchError(name, url string, err error) error {
	cause := classifyCloneError(url, err)
	b := ferrors.FetchError("source clone failed").
		WithCause(cause).
		WithContext("url", url).
		WithContext("recipe", name)

	var authErr *AuthError
	var notFound *NotFoundError
	var proto *UnsupportedProtocolError
	var netErr *NetworkError
	switch {
	case errors.As(cause, &authErr):
		b.WithContext("reason", "auth")
	case errors.As(cause, &notFound):
		b.WithContext("reason", "not_found")
	case errors.As(cause, &proto):
		b.WithContext("reason", "protocol")
	case errors.As(cause, &netErr):
		b.WithContext("reason", "network")
	}
	return b.Build()
}
