// Package queue defines message payloads exchanged over the message broker.
package queue

// ImportCompletedEvent is published after every bulk import pass. It carries
// the reconciler totals so downstream consumers can build an audit trail
// without querying the primary database. Source distinguishes the JSON and
// CSV import endpoints.
type ImportCompletedEvent struct {
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	ErrorCount  int    `json:"error_count"`
	Source      string `json:"source"`
	CompletedAt string `json:"completed_at"`
}
