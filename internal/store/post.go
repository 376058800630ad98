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

// PostRepository handles persistence for marketplace listings.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `p.id, p.user_id, p.name, p.description, p.price, p.image,
		p.image_content_type, p.image_key, p.contact, p.contact_type_id,
		p.contact_backup, p.location, p.category_id, p.is_active,
		p.report_count, p.created_at, c.name, ct.name`

const postJoins = `
		FROM posts p
		LEFT JOIN category c ON c.id = p.category_id
		LEFT JOIN contact_type ct ON ct.id = p.contact_type_id`

func scanPost(row interface{ Scan(...any) error }) (types.Post, error) {
	var post types.Post
	var (
		userID        sql.NullInt64
		price         sql.NullInt64
		contactTypeID sql.NullInt64
		contactBackup sql.NullString
		location      sql.NullString
		categoryID    sql.NullInt64
		categoryName  sql.NullString
		contactName   sql.NullString
	)
	err := row.Scan(
		&post.ID,
		&userID,
		&post.Name,
		&post.Description,
		&price,
		&post.Image,
		&post.ImageContentType,
		&post.ImageKey,
		&post.Contact,
		&contactTypeID,
		&contactBackup,
		&location,
		&categoryID,
		&post.IsActive,
		&post.ReportCount,
		&post.CreatedAt,
		&categoryName,
		&contactName,
	)
	if err != nil {
		return types.Post{}, err
	}
	if userID.Valid {
		v := int(userID.Int64)
		post.UserID = &v
	}
	if price.Valid {
		v := int(price.Int64)
		post.Price = &v
	}
	if contactTypeID.Valid {
		v := int(contactTypeID.Int64)
		post.ContactTypeID = &v
	}
	if contactBackup.Valid {
		post.ContactBackup = &contactBackup.String
	}
	if location.Valid {
		post.Location = &location.String
	}
	if categoryID.Valid {
		v := int(categoryID.Int64)
		post.CategoryID = &v
	}
	if categoryName.Valid {
		post.CategoryName = &categoryName.String
	}
	if contactName.Valid {
		post.ContactTypeName = &contactName.String
	}
	return post, nil
}

// Get returns an active listing. Inactive rows are invisible through this
// path; use GetAny for mutation gates.
func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.id = $1 AND p.is_active = true`, postColumns, postJoins)
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

// GetAny returns a listing regardless of visibility. Owners must be able to
// load their own inactive rows to activate or edit them.
func (r *PostRepository) GetAny(ctx context.Context, id int) (types.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.id = $1`, postColumns, postJoins)
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	return r.list(ctx, offset, limit, 0)
}

func (r *PostRepository) ListByCategory(ctx context.Context, categoryID, offset, limit int) ([]types.Post, int, error) {
	return r.list(ctx, offset, limit, categoryID)
}

func (r *PostRepository) list(ctx context.Context, offset, limit, categoryID int) ([]types.Post, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where := `WHERE p.is_active = true`
	countArgs := []any{}
	if categoryID > 0 {
		where += ` AND p.category_id = $1`
		countArgs = append(countArgs, categoryID)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM posts p %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(countArgs, offset, limit)
	listQuery := fmt.Sprintf(`
		SELECT %s %s
		%s
		ORDER BY p.id
		OFFSET $%d LIMIT $%d`, postColumns, postJoins, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.CreatedAt = time.Now()

	const query = `
		INSERT INTO posts (user_id, name, description, price, image, image_content_type,
			image_key, contact, contact_type_id, contact_backup, location, category_id,
			is_active, report_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		nullableInt(post.UserID),
		post.Name,
		post.Description,
		nullableInt(post.Price),
		post.Image,
		post.ImageContentType,
		post.ImageKey,
		post.Contact,
		nullableInt(post.ContactTypeID),
		nullableString(post.ContactBackup),
		nullableString(post.Location),
		nullableInt(post.CategoryID),
		post.IsActive,
		post.ReportCount,
		post.CreatedAt,
	).Scan(&post.ID); err != nil {
		return types.Post{}, translateError(err)
	}
	return post, nil
}

// Update applies a partial update built from the set fields of update.
// At least one field must be set; the service layer guarantees this.
func (r *PostRepository) Update(ctx context.Context, id int, update types.PostUpdate) (types.Post, error) {
	assignments := make([]string, 0, 10)
	args := make([]any, 0, 11)

	setArg := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		setArg("name", *update.Name)
	}
	if update.Description != nil {
		setArg("description", *update.Description)
	}
	if update.Price != nil {
		setArg("price", *update.Price)
	}
	if update.Contact != nil {
		setArg("contact", *update.Contact)
	}
	if update.ContactTypeID != nil {
		setArg("contact_type_id", *update.ContactTypeID)
	}
	if update.ContactBackup != nil {
		setArg("contact_backup", *update.ContactBackup)
	}
	if update.Location != nil {
		setArg("location", *update.Location)
	}
	if update.CategoryID != nil {
		setArg("category_id", *update.CategoryID)
	}
	if update.IsActive != nil {
		setArg("is_active", *update.IsActive)
	}
	if update.Image != nil {
		setArg("image", update.Image)
	}
	if update.ImageContentType != nil {
		setArg("image_content_type", *update.ImageContentType)
	}
	if update.ImageKey != nil {
		setArg("image_key", *update.ImageKey)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE posts p
		SET %s
		WHERE p.id = $%d
		RETURNING p.id`, strings.Join(assignments, ", "), len(args))

	var updatedID int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, translateError(err)
	}

	return r.GetAny(ctx, updatedID)
}

func (r *PostRepository) Delete(ctx context.Context, id int) (types.Post, error) {
	post, err := r.GetAny(ctx, id)
	if err != nil {
		return types.Post{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Post{}, err
	}
	defer tx.Rollback()

	const deleteComments = `DELETE FROM comments WHERE post_id = $1`
	if _, err := tx.ExecContext(ctx, deleteComments, id); err != nil {
		return types.Post{}, err
	}

	const deletePost = `DELETE FROM posts WHERE id = $1`
	result, err := tx.ExecContext(ctx, deletePost, id)
	if err != nil {
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

// Report increments the listing's report count and returns the new value.
func (r *PostRepository) Report(ctx context.Context, id int) (int, error) {
	const query = `
		UPDATE posts
		SET report_count = report_count + 1
		WHERE id = $1
		RETURNING report_count`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return count, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
