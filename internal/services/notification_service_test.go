package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/models"
	"studiorit/internal/repositories/memory"
)

type fakeMail struct {
	to  []string
	err error
}

func (f *fakeMail) SendNotification(to, _, _ string) error {
	f.to = append(f.to, to)
	return f.err
}

type fakeTelegram struct {
	chats []int64
}

func (f *fakeTelegram) SendMessage(chatID int64, _, _ string) error {
	f.chats = append(f.chats, chatID)
	return nil
}

func TestNotificationService_FansOut(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "u1@x", TelegramChatID: 42}))
	require.NoError(t, users.Create(ctx, &models.User{ID: "u2", Email: "u2@x"}))

	mail, tg := &fakeMail{}, &fakeTelegram{}
	n := NewNotificationService(users, mail, tg)

	n.Notify(ctx, "u1", "subject", "body")
	n.Notify(ctx, "u2", "subject", "body")
	n.Notify(ctx, "ghost", "subject", "body")
	n.Notify(ctx, "", "subject", "body")

	assert.Equal(t, []string{"u1@x", "u2@x"}, mail.to)
	assert.Equal(t, []int64{42}, tg.chats)
}

func TestNotificationService_BreakerOpensOnFailures(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "u1@x"}))

	mail := &fakeMail{err: errors.New("smtp down")}
	n := NewNotificationService(users, mail, nil)
	for i := 0; i < 10; i++ {
		n.Notify(ctx, "u1", "s", "b")
	}
	// Four consecutive failures trip the breaker; later calls are short-circuited.
	assert.Len(t, mail.to, 4)
}
