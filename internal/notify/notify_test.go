package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/store"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent map[string]string
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[to] = body
	return f.err
}

func seedUser(t *testing.T, s *store.MemoryStore, name, phone string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Phone: phone}
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

func TestNotifyPersistsAndTexts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	alice := seedUser(t, s, "alice", "+15550001111")
	sender := &fakeSender{}
	n := New(s, sender)

	n.Notify(ctx, models.Notification{RecipientID: alice.ID, Type: models.NotificationAnswer, Title: "New answer", Message: "bob answered", RelatedID: 7})
	n.Wait()

	list, total, err := s.ListNotifications(ctx, alice.ID, false, forum.NewPage(1, 10, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, uint(7), list[0].RelatedID)
	assert.False(t, list[0].IsRead)

	assert.Equal(t, "StackIt: New answer. bob answered", sender.sent["+15550001111"])
}

func TestNotifyWithoutPhoneOrSender(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	alice := seedUser(t, s, "alice", "")
	sender := &fakeSender{}

	New(s, sender).Notify(ctx, models.Notification{RecipientID: alice.ID, Type: models.NotificationAccepted, Title: "t", Message: "m"})
	New(s, nil).Notify(ctx, models.Notification{RecipientID: alice.ID, Type: models.NotificationAccepted, Title: "t", Message: "m"})

	_, total, err := s.ListNotifications(ctx, alice.ID, true, forum.NewPage(1, 10, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Empty(t, sender.sent)
}

func TestNotifySwallowsSendErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	alice := seedUser(t, s, "alice", "+15550001111")
	n := New(s, &fakeSender{err: errors.New("twilio down")})

	n.Notify(ctx, models.Notification{RecipientID: alice.ID, Type: models.NotificationAnswer, Title: "t", Message: "m"})
	n.Wait()

	_, total, err := s.ListNotifications(ctx, alice.ID, false, forum.NewPage(1, 10, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestNotifyIgnoresAnonymousRecipient(t *testing.T) {
	s := store.NewMemoryStore()
	New(s, nil).Notify(context.Background(), models.Notification{Title: "t"})

	_, total, err := s.ListNotifications(context.Background(), 0, false, forum.NewPage(1, 10, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
}
