package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"studiorit/internal/models"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash, role, department,
	phone, is_active, telegram_chat_id,
	joined_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		phone    sql.NullString
		tgChatID sql.NullInt64
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Department,
		&phone, &u.IsActive, &tgChatID,
		&u.JoinedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if tgChatID.Valid {
		u.TelegramChatID = tgChatID.Int64
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	var tgChatID sql.NullInt64
	if user.TelegramChatID != 0 {
		tgChatID = sql.NullInt64{Int64: user.TelegramChatID, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, q,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Department,
		sql.NullString{String: user.Phone, Valid: user.Phone != ""},
		user.IsActive,
		tgChatID,
		user.JoinedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetMany returns the users found among ids, keyed by id. Missing ids are skipped.
func (r *userRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	res := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res[u.ID] = u
	}
	return res, rows.Err()
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	const q = `
		UPDATE users
		SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, q, role, id))
}

func (r *userRepository) SetTelegramChat(ctx context.Context, id string, chatID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = $1, updated_at = NOW() WHERE id = $2`, chatID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
