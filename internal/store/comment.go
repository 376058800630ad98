package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/bazaar-market/apiserver/types"
)

// CommentRepository handles persistence for listing comments.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.DateCreated = time.Now()

	const query = `
		INSERT INTO comments (comment, user_id, post_id, date_created)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.Comment,
		comment.UserID,
		comment.PostID,
		comment.DateCreated,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, translateError(err)
	}
	return comment, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int) ([]types.Comment, error) {
	const query = `
		SELECT id, comment, user_id, post_id, date_created
		FROM comments
		WHERE post_id = $1
		ORDER BY date_created`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0)
	for rows.Next() {
		var comment types.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.Comment,
			&comment.UserID,
			&comment.PostID,
			&comment.DateCreated,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
