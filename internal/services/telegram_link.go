package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/logging"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

const linkCodeTTL = 15 * time.Minute

// TelegramLinker pairs a Telegram chat with a user account through a
// short-lived one-time code.
type TelegramLinker interface {
	RequestLink(ctx context.Context, actor authz.Actor) (code string, expiresAt time.Time, err error)
	Link(ctx context.Context, code string, chatID int64) (*models.User, error)
}

type telegramLinker struct {
	users repositories.UserRepository
	links repositories.TelegramLinkRepository
}

func NewTelegramLinker(users repositories.UserRepository, links repositories.TelegramLinkRepository) TelegramLinker {
	return &telegramLinker{users: users, links: links}
}

func (l *telegramLinker) RequestLink(ctx context.Context, actor authz.Actor) (string, time.Time, error) {
	if err := authz.RequireActive(actor); err != nil {
		return "", time.Time{}, err
	}
	now := clock.Now()
	link := &models.TelegramLink{
		Code:      strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")),
		UserID:    actor.ID,
		ExpiresAt: now.Add(linkCodeTTL),
		CreatedAt: now,
	}
	if err := l.links.Create(ctx, link); err != nil {
		return "", time.Time{}, apperr.Internal(fmt.Errorf("store link code: %w", err))
	}
	return link.Code, link.ExpiresAt, nil
}

func (l *telegramLinker) Link(ctx context.Context, raw string, chatID int64) (*models.User, error) {
	code, ok := NormalizeLinkCode(raw)
	if !ok {
		return nil, apperr.Validation("code", "link code must be 32 hex characters")
	}

	link, err := l.links.Use(ctx, code, clock.Now())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Validation("code", "link code is invalid or expired")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("use link code: %w", err))
	}

	if err := l.users.SetTelegramChat(ctx, link.UserID, chatID); err != nil {
		return nil, repoErr(err, "user")
	}
	u, err := l.users.GetByID(ctx, link.UserID)
	if err != nil {
		return nil, repoErr(err, "user")
	}
	logging.Logger.WithField("user_id", u.ID).Infof("[tg][link][ok] chatID=%d", chatID)
	return u, nil
}

// NormalizeLinkCode strips quoting and separators users tend to paste
// along with the code.
func NormalizeLinkCode(s string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}
