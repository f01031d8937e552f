package repositories

import (
	"context"
	"database/sql"
	"time"

	"studiorit/internal/models"
)

type telegramLinkRepository struct{ db *sql.DB }

func NewTelegramLinkRepository(db *sql.DB) TelegramLinkRepository {
	return &telegramLinkRepository{db: db}
}

func (r *telegramLinkRepository) Create(ctx context.Context, link *models.TelegramLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM telegram_links WHERE user_id = $1 OR expires_at <= $2`,
		link.UserID, link.CreatedAt,
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO telegram_links (code, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		link.Code, link.UserID, link.ExpiresAt, link.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Use deletes the row it returns, so two concurrent callers cannot both
// consume one code.
func (r *telegramLinkRepository) Use(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error) {
	var l models.TelegramLink
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM telegram_links
		WHERE code = $1 AND expires_at > $2
		RETURNING code, user_id, expires_at, created_at`,
		code, now,
	).Scan(&l.Code, &l.UserID, &l.ExpiresAt, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
