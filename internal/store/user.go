package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-market/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, email, is_admin, email_verified, password_hash, date_created, last_login"

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.IsAdmin,
		&user.EmailVerified,
		&user.PasswordHash,
		&user.DateCreated,
		&lastLogin,
	)
	if err != nil {
		return types.User{}, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2`, userColumns)
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.DateCreated = time.Now()

	const query = `
		INSERT INTO users (username, email, is_admin, email_verified, password_hash, date_created)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.IsAdmin,
		user.EmailVerified,
		user.PasswordHash,
		user.DateCreated,
	).Scan(&user.ID); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

// Update applies a partial update built from the set fields of update.
// At least one field must be set; the service layer guarantees this.
func (r *UserRepository) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	assignments := make([]string, 0, 6)
	args := make([]any, 0, 7)

	setArg := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Username != nil {
		setArg("username", *update.Username)
	}
	if update.Email != nil {
		setArg("email", *update.Email)
	}
	if update.EmailVerified != nil {
		setArg("email_verified", *update.EmailVerified)
	}
	if update.LastLogin != nil {
		setArg("last_login", *update.LastLogin)
	}
	if update.IsAdmin != nil {
		setArg("is_admin", *update.IsAdmin)
	}
	if update.PasswordHash != nil {
		setArg("password_hash", *update.PasswordHash)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(assignments, ", "), len(args), userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, translateError(err)
	}
	return user, nil
}

// Delete removes the user along with all dependent rows: comments written by
// the user, comments on the user's listings, and the listings themselves.
// All four deletions run in one transaction and roll back together.
func (r *UserRepository) Delete(ctx context.Context, id int) (types.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer tx.Rollback()

	const deleteOwnComments = `DELETE FROM comments WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, deleteOwnComments, id); err != nil {
		return types.User{}, err
	}

	const deleteListingComments = `
		DELETE FROM comments
		WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`
	if _, err := tx.ExecContext(ctx, deleteListingComments, id); err != nil {
		return types.User{}, err
	}

	const deleteListings = `DELETE FROM posts WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, deleteListings, id); err != nil {
		return types.User{}, err
	}

	deleteUser := fmt.Sprintf(`DELETE FROM users WHERE id = $1 RETURNING %s`, userColumns)
	user, err := scanUser(tx.QueryRowContext(ctx, deleteUser, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}
