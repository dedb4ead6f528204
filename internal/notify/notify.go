// Package notify announces published packages to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// DefaultSubject is used when the configuration leaves the subject empty.
const DefaultSubject = "recipebuilder.package.published"

// PackagePublished is the event sent after package info has been written.
type PackagePublished struct {
	RunID     string    `json:"run_id"`
	Reference string    `json:"reference"`
	PackageID string    `json:"package_id"`
	BuildType string    `json:"build_type"`
	Libs      []string  `json:"libs"`
	Path      string    `json:"path"`
	Warnings  int       `json:"warnings"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes package events.
type Notifier interface {
	PackagePublished(ctx context.Context, event *PackagePublished) error
	Close() error
}

// NoopNotifier drops events; used when no NATS URL is configured.
type NoopNotifier struct{}

func (NoopNotifier) PackagePublished(context.Context, *PackagePublished) error { return nil }
func (NoopNotifier) Close() error                                            { return nil }

// Options configures the NATS notifier.
type Options struct {
	URL       string
	Subject   string
	JetStream bool
	Timeout   time.Duration
}

// NATSNotifier publishes events as JSON on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	timeout time.Duration
}

// NewNATSNotifier connects to NATS. With JetStream enabled the publish is
// acknowledged by the stream bound to the subject.
func NewNATSNotifier(opts Options) (*NATSNotifier, error) {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	conn, err := nats.Connect(opts.URL, nats.Name("recipebuilder"), nats.Timeout(opts.Timeout))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", opts.URL).Build()
	}

	n := &NATSNotifier{conn: conn, subject: opts.Subject, timeout: opts.Timeout}
	if opts.JetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to create JetStream context").Build()
		}
		n.js = js
	}

	slog.Info("NATS notifier initialized", logfields.URL(opts.URL), slog.String("subject", opts.Subject), slog.Bool("jetstream", opts.JetStream))
	return n, nil
}

// PackagePublished sends the event and waits until the server has it.
func (n *NATSNotifier) PackagePublished(ctx context.Context, event *PackagePublished) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := Encode(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if n.js != nil {
		if _, err := n.js.Publish(ctx, n.subject, data); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to publish event").
				WithContext("subject", n.subject).Build()
		}
	} else {
		if err := n.conn.Publish(n.subject, data); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to publish event").
				WithContext("subject", n.subject).Build()
		}
		if err := n.conn.FlushWithContext(ctx); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to flush event").
				WithContext("subject", n.subject).Build()
		}
	}

	slog.Debug("Published package event", logfields.Reference(event.Reference), logfields.PackageID(event.PackageID), logfields.RunID(event.RunID))
	return nil
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

// Encode renders the wire payload.
func Encode(event *PackagePublished) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal event").Build()
	}
	return data, nil
}
