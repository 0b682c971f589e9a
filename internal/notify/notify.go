// Package notify persists in-app notifications and optionally mirrors them
// to the recipient's phone by SMS.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Store is the part of forum.Store the notifier needs.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetUser(ctx context.Context, id uint) (models.User, error)
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type Notifier struct {
	store  Store
	sender Sender
	wg     sync.WaitGroup
}

var _ forum.Notifier = (*Notifier)(nil)

// New returns a notifier. sender may be nil, in which case only the in-app
// record is written.
func New(store Store, sender Sender) *Notifier {
	return &Notifier{store: store, sender: sender}
}

// Notify records n for its recipient. Failures are logged and never reach the
// caller: the change that triggered the notification is already committed.
func (n *Notifier) Notify(ctx context.Context, note models.Notification) {
	if note.RecipientID == 0 {
		return
	}
	if err := n.store.CreateNotification(ctx, &note); err != nil {
		slog.Error("notify: create notification", "recipient", note.RecipientID, "type", note.Type, "error", err)
		return
	}
	if n.sender == nil {
		return
	}

	user, err := n.store.GetUser(ctx, note.RecipientID)
	if err != nil {
		slog.Warn("notify: load recipient", "recipient", note.RecipientID, "error", err)
		return
	}
	if user.Phone == "" {
		return
	}

	body := smsBody(note)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.sender.Send(sendCtx, user.Phone, body); err != nil {
			slog.Warn("notify: sms failed", "recipient", note.RecipientID, "error", err)
		}
	}()
}

// Wait blocks until in-flight SMS deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func smsBody(note models.Notification) string {
	return fmt.Sprintf("StackIt: %s. %s", note.Title, note.Message)
}
