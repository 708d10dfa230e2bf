// Package notify delivers best-effort e-mail notifications through a queue.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"clubhub/internal/logger"
	"clubhub/internal/metrics"
	"clubhub/internal/queue"
)

// MessageType tags queue messages carrying a Notification.
const MessageType = "mail"

// Notification is one outbound e-mail.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (n Notification) validate() error {
	if n.To == "" {
		return errors.New("notification recipient required")
	}
	return nil
}

// Mailer sends a notification synchronously.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// Publisher hands notifications to a queue. Publishing is bounded by a timeout
// and by the caller's deadline, but not by the caller's cancellation.
type Publisher struct {
	q       queue.Queue
	timeout time.Duration
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(q queue.Queue, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{q: q, timeout: timeout}
}

// bound drops the caller's cancellation but keeps its deadline, then caps the
// publish at p.timeout.
func (p *Publisher) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		detached, cancelDeadline = context.WithDeadline(detached, deadline)
		bounded, cancel := context.WithTimeout(detached, p.timeout)
		return bounded, func() { cancel(); cancelDeadline() }
	}
	return context.WithTimeout(detached, p.timeout)
}

// Notify enqueues n for delivery. The caller's deadline still applies so
// several notifications can share one budget.
func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	ctx, cancel := p.bound(ctx)
	defer cancel()
	if err := p.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		metrics.Notifications.WithLabelValues("publish", "error").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues("publish", "ok").Inc()
	return nil
}

// Dispatcher drains the queue into a Mailer.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
}

// NewDispatcher creates a dispatcher; each send is bounded by timeout.
func NewDispatcher(m Mailer, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{mailer: m, timeout: timeout}
}

// Run consumes q until ctx is done. Delivery failures are logged and dropped.
func (d *Dispatcher) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		d.Handle(ctx, msg)
	}
	return nil
}

// Handle delivers a single queue message.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != MessageType {
		logger.Debug.Printf("dispatcher: skipping message type %q", msg.Type)
		return
	}
	var n Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		logger.Error.Printf("dispatcher: malformed notification: %v", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.mailer.Send(sendCtx, n); err != nil {
		metrics.Notifications.WithLabelValues("send", "error").Inc()
		logger.Error.Printf("dispatcher: send to %s failed: %v", n.To, err)
		return
	}
	metrics.Notifications.WithLabelValues("send", "ok").Inc()
	logger.Info.Printf("dispatcher: sent %q to %s", n.Subject, n.To)
}
