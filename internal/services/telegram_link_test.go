package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/models"
	"studiorit/internal/repositories/memory"
)

func TestTelegramLinker(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "u1@x", IsActive: true}))
	linker := NewTelegramLinker(users, memory.NewTelegramLinkRepository())
	actor := authz.Actor{ID: "u1", IsActive: true}

	code, exp, err := linker.RequestLink(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, code, 32)
	assert.True(t, exp.After(clock.Now()))

	u, err := linker.Link(ctx, " /link «"+code+"» ", 777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), u.TelegramChatID)

	_, err = linker.Link(ctx, code, 777)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "codes are single use")

	_, err = linker.Link(ctx, "short", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTelegramLinker_Expiry(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "u1@x", IsActive: true}))
	linker := NewTelegramLinker(users, memory.NewTelegramLinkRepository())

	code, _, err := linker.RequestLink(ctx, authz.Actor{ID: "u1", IsActive: true})
	require.NoError(t, err)

	clock.NowFunc = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	t.Cleanup(func() { clock.NowFunc = func() time.Time { return time.Now().UTC() } })

	_, err = linker.Link(ctx, code, 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTelegramLinker_NewCodeReplacesOld(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "u1@x", IsActive: true}))
	linker := NewTelegramLinker(users, memory.NewTelegramLinkRepository())
	actor := authz.Actor{ID: "u1", IsActive: true}

	first, _, err := linker.RequestLink(ctx, actor)
	require.NoError(t, err)
	second, _, err := linker.RequestLink(ctx, actor)
	require.NoError(t, err)

	_, err = linker.Link(ctx, first, 1)
	assert.Error(t, err)
	_, err = linker.Link(ctx, second, 1)
	assert.NoError(t, err)
}

func TestTelegramLinker_CodesLiveInStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Users.Create(ctx, &models.User{ID: "u1", Email: "u1@x", IsActive: true}))

	issuer := NewTelegramLinker(store.Users, store.Links)
	code, _, err := issuer.RequestLink(ctx, authz.Actor{ID: "u1", IsActive: true})
	require.NoError(t, err)

	// a second instance over the same store redeems the code
	redeemer := NewTelegramLinker(store.Users, store.Links)
	u, err := redeemer.Link(ctx, code, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), u.TelegramChatID)

	_, err = issuer.Link(ctx, code, 99)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
