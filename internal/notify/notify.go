// Package notify announces completed site builds over NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/publish"
)

// SitePublished is the payload of a build announcement.
type SitePublished struct {
	RunID        string                      `json:"run_id"`
	Playbook     string                      `json:"playbook"`
	SiteURL      string                      `json:"site_url,omitempty"`
	Outcome      string                      `json:"outcome"`
	Error        string                      `json:"error,omitempty"`
	DurationMS   int64                       `json:"duration_ms"`
	Destinations []publish.DestinationResult `json:"destinations,omitempty"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// Publisher is the subset of *nats.Conn used to send events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

const flushTimeout = 5 * time.Second

// Notifier sends build events to one subject.
type Notifier struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
}

// New returns a notifier that sends through pub.
func New(pub Publisher, subject string) *Notifier {
	return &Notifier{pub: pub, subject: subject}
}

// Connect dials the NATS server at url.
func Connect(url, subject string, opts ...nats.Option) (*Notifier, error) {
	opts = append([]nats.Option{nats.Name("docsite"), nats.Timeout(5 * time.Second)}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subject))
	return &Notifier{pub: conn, conn: conn, subject: subject}, nil
}

// Publish sends event, stamping it with the current time when unset.
func (n *Notifier) Publish(ctx context.Context, event SitePublished) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if n.conn != nil {
		if err := n.conn.FlushTimeout(flushTimeout); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
	}
	slog.DebugContext(ctx, "Published build event", logfields.RunID(event.RunID), slog.String("subject", n.subject))
	return nil
}

// Close drains and closes the connection, if any.
func (n *Notifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
