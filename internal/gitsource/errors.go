package gitsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Typed git errors enabling classification without string parsing upstream.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type TransientError struct {
	Op, URL string
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient failure for %s: %v", e.Op, e.URL, e.Err)
}
func (e *TransientError) Unwrap() error { return e.Err }

// classify wraps a go-git failure into a typed error and then into a
// categorised SiteError. Only transient failures are retryable.
func classify(op, url string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication"), strings.Contains(l, "auth fail"),
		strings.Contains(l, "invalid username or password"):
		return derrors.GitAuthError(url, &AuthError{Op: op, URL: url, Err: err})
	case errors.Is(err, transport.ErrRepositoryNotFound),
		strings.Contains(l, "repository does not exist"), strings.Contains(l, "not found"):
		return derrors.Wrap(&NotFoundError{Op: op, URL: url, Err: err}, derrors.CategoryGit, derrors.SeverityFatal, "git repository not found").
			WithContext("url", url)
	case strings.Contains(l, "timeout"), strings.Contains(l, "connection reset"),
		strings.Contains(l, "connection refused"), strings.Contains(l, "rate limit"),
		strings.Contains(l, "too many requests"), strings.Contains(l, "eof"):
		return derrors.GitFetchError(url, &TransientError{Op: op, URL: url, Err: err})
	default:
		return derrors.Wrap(err, derrors.CategoryGit, derrors.SeverityFatal, fmt.Sprintf("git %s failed", op)).
			WithContext("url", url)
	}
}
