// Package notifications raises operator notices when calls to the Harmonic
// API fail, at most once per day for each kind of failure.
package notifications

import "time"

// Kind classifies an API failure.
type Kind string

const (
	// KindAuth covers missing, rejected, and expired tokens.
	KindAuth Kind = "auth"
	// KindAPI covers every other failure.
	KindAPI Kind = "api"
)

// RefreshURL is where a rejected token can be replaced.
const RefreshURL = "https://console.harmonic.ai"

// Notice is one observed API failure. Notified is set on the first notice
// of its kind each day, the one written to the log.
type Notice struct {
	Kind      Kind      `json:"kind"`
	Operation string    `json:"operation,omitempty"`
	Details   string    `json:"details"`
	Time      time.Time `json:"time"`
	Notified  bool      `json:"notified"`
}
