// Package graphql provides a GraphQL HTTP client for communicating with the
// Harmonic GraphQL API.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured is returned before any network I/O when no API token
	// is configured.
	ErrNotConfigured = errors.New("graphql: API token is not configured")

	// ErrUnauthorized matches transport errors for HTTP 401 and 403 responses.
	ErrUnauthorized = errors.New("graphql: unauthorized")
)

// Client defines the interface for executing GraphQL queries. Execute returns
// the raw JSON of the response's "data" member.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// ErrorEntry represents a single error returned in a GraphQL response.
type ErrorEntry struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLError is returned when the response envelope carries errors and no
// usable data. Partial is set when data was present alongside the errors; such
// errors only reach the error observer.
type GraphQLError struct {
	Operation string
	Errors    []ErrorEntry
	Partial   bool
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, entry := range e.Errors {
		msgs[i] = entry.Message
	}
	if e.Operation == "" {
		return "graphql: " + strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("graphql: %s: %s", e.Operation, strings.Join(msgs, "; "))
}

// Messages returns the upstream error messages in order.
func (e *GraphQLError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, entry := range e.Errors {
		msgs[i] = entry.Message
	}
	return msgs
}

// TransportError reports a failed HTTP exchange: the request could not be
// sent, the server answered with a non-2xx status, or the body was not a
// GraphQL envelope. StatusCode is zero when no response was received.
type TransportError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("graphql: ")
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		fmt.Fprintf(&b, "HTTP %d: %v", e.StatusCode, e.Err)
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		fmt.Fprintf(&b, "authentication failed (HTTP %d)", e.StatusCode)
	case e.StatusCode != 0:
		fmt.Fprintf(&b, "unexpected HTTP status %d", e.StatusCode)
		if e.Body != "" {
			fmt.Fprintf(&b, ": %s", e.Body)
		}
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("transport failure")
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports HTTP 401 and 403 responses as ErrUnauthorized.
func (e *TransportError) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Describe renders err for an MCP caller or terminal user, adding a hint when
// no token is configured or Harmonic rejected it.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return err.Error() + " (set HARMONIC_API_TOKEN or graphql.token)"
	case errors.Is(err, ErrUnauthorized):
		return err.Error() + " (the Harmonic token may have expired)"
	default:
		return err.Error()
	}
}
