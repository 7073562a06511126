package notifications

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jamesprial/harmonic-mcp/internal/graphql"
)

const (
	maxDetails = 500
	maxRecent  = 50
)

// authKeywords mark a GraphQL error message as a token problem. HTTP 401 and
// 403 are recognized through graphql.ErrUnauthorized instead.
var authKeywords = []string{"unauthorized", "unauthenticated", "token", "expired", "forbidden"}

// Notifier logs API failures, once per day per Kind, and keeps the most
// recent failures for inspection. It is safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	logger *log.Logger
	now    func() time.Time
	sent   map[Kind]string
	recent []Notice
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNotifier returns a Notifier writing to logger, or to the standard
// logger when logger is nil.
func NewNotifier(logger *log.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	n := &Notifier{
		logger: logger,
		now:    time.Now,
		sent:   make(map[Kind]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Classify returns the Kind of err. Cancelled requests are not failures and
// report false.
func Classify(err error) (Kind, bool) {
	if err == nil || errors.Is(err, context.Canceled) {
		return "", false
	}
	if errors.Is(err, graphql.ErrNotConfigured) || errors.Is(err, graphql.ErrUnauthorized) {
		return KindAuth, true
	}
	var gqlErr *graphql.GraphQLError
	if errors.As(err, &gqlErr) {
		msg := strings.ToLower(strings.Join(gqlErr.Messages(), " "))
		for _, kw := range authKeywords {
			if strings.Contains(msg, kw) {
				return KindAuth, true
			}
		}
	}
	return KindAPI, true
}

// Observe records a failed call. Its signature matches graphql.ErrorObserver.
func (n *Notifier) Observe(operation string, err error) {
	kind, ok := Classify(err)
	if !ok {
		return
	}
	n.Notify(kind, operation, err.Error())
}

// Notify records a failure of the given kind and logs it if no failure of
// that kind was logged today. It reports whether the failure was logged.
func (n *Notifier) Notify(kind Kind, operation, details string) bool {
	details = truncate(details, maxDetails)

	n.mu.Lock()
	now := n.now()
	day := now.Format(time.DateOnly)
	first := n.sent[kind] != day
	if first {
		n.sent[kind] = day
	}
	n.recent = append(n.recent, Notice{
		Kind:      kind,
		Operation: operation,
		Details:   details,
		Time:      now,
		Notified:  first,
	})
	if len(n.recent) > maxRecent {
		n.recent = n.recent[len(n.recent)-maxRecent:]
	}
	n.mu.Unlock()

	if !first {
		return false
	}
	switch kind {
	case KindAuth:
		n.logger.Printf("harmonic: authentication failed; the token may need to be refreshed at %s (%s): %s", RefreshURL, operation, details)
	default:
		n.logger.Printf("harmonic: API error (%s): %s", operation, details)
	}
	return true
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Recent returns up to limit of the most recent failures, newest first. A
// limit of zero or less returns all retained failures.
func (n *Notifier) Recent(limit int) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := len(n.recent)
	if limit > 0 && limit < count {
		count = limit
	}
	out := make([]Notice, 0, count)
	for i := len(n.recent) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, n.recent[i])
	}
	return out
}
