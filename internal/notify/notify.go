// Package notify tells the site owner about new contact messages.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/folio/pkg/logger"
)

// Message is a submitted contact message.
type Message struct {
	ID      string
	Name    string
	Email   string
	Subject string
	Body    string
}

// Notifier delivers a notification about m.
type Notifier interface {
	MessageReceived(ctx context.Context, m Message) error
}

// Nope discards every notification.
type Nope struct{}

func (Nope) MessageReceived(context.Context, Message) error { return nil }

// Async sends notifications in the background so a slow mail provider never
// delays the request that stored the message. Failures are logged.
type Async struct {
	next    Notifier
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps next. A nil log discards failures.
func NewAsync(next Notifier, log *slog.Logger, timeout time.Duration) *Async {
	if log == nil {
		log = logger.NewNope()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, log: log, timeout: timeout}
}

// MessageReceived schedules delivery and returns immediately. The request
// context only contributes its values; cancellation does not stop delivery.
func (a *Async) MessageReceived(ctx context.Context, m Message) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.next.MessageReceived(ctx, m); err != nil {
			a.log.ErrorContext(ctx, "message notification failed",
				slog.String("message_id", m.ID),
				slog.Any("error", err))
		}
	})
	return nil
}

// Wait blocks until every scheduled delivery has finished.
func (a *Async) Wait() { a.wg.Wait() }
