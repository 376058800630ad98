package services

import (
	"context"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	ListByPost(ctx context.Context, postID int) ([]types.Comment, error)
}

// PostGetter is the slice of the post repository the comment service needs.
type PostGetter interface {
	Get(ctx context.Context, id int) (types.Post, error)
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo  CommentRepository
	posts PostGetter
}

func NewCommentService(repo CommentRepository, posts PostGetter) *CommentService {
	return &CommentService{repo: repo, posts: posts}
}

// Create attaches a comment to an active listing. Commenting requires an
// identity.
func (s *CommentService) Create(ctx context.Context, postID int, text string, actor *types.Claims) (types.Comment, error) {
	if actor == nil {
		return types.Comment{}, auth.ErrUnauthorized
	}
	if text == "" {
		return types.Comment{}, validationErrorf("comment is required")
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return types.Comment{}, err
	}

	return s.repo.Create(ctx, types.Comment{
		PostID:  post.ID,
		UserID:  actor.UserID,
		Comment: text,
	})
}

// ListByPost returns all comments on an active listing, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID int) ([]types.Comment, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByPost(ctx, post.ID)
}
