package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/mq"
	"github.com/bazaar-market/apiserver/internal/storage"
	"github.com/bazaar-market/apiserver/internal/store"
	"github.com/bazaar-market/apiserver/types"
)

const (
	channelPostReported = "moderation.post.reported"
	channelPostRemoved  = "moderation.post.removed"
)

// PostRepository defines persistence operations for listings.
type PostRepository interface {
	Get(ctx context.Context, id int) (types.Post, error)
	GetAny(ctx context.Context, id int) (types.Post, error)
	List(ctx context.Context, offset, limit int) ([]types.Post, int, error)
	ListByCategory(ctx context.Context, categoryID, offset, limit int) ([]types.Post, int, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, id int, update types.PostUpdate) (types.Post, error)
	Delete(ctx context.Context, id int) (types.Post, error)
	Report(ctx context.Context, id int) (int, error)
}

// CreatePostInput carries the fields needed to create a listing.
type CreatePostInput struct {
	Name             string
	Description      string
	Price            *int
	Image            []byte
	ImageContentType string
	Contact          string
	ContactTypeID    *int
	ContactBackup    *string
	Location         *string
	CategoryID       *int
}

// PostService encapsulates listing use-cases. The media mirror and the
// moderation event bus are optional collaborators; either may be nil.
type PostService struct {
	repo            PostRepository
	media           *storage.Storage
	events          *mq.MQ
	allowAnonymous  bool
	reportThreshold int
	defaultPageSize int
}

func NewPostService(repo PostRepository, media *storage.Storage, events *mq.MQ, cfgAllowAnonymous bool, reportThreshold, defaultPageSize int) *PostService {
	if defaultPageSize < 1 {
		defaultPageSize = 20
	}
	return &PostService{
		repo:            repo,
		media:           media,
		events:          events,
		allowAnonymous:  cfgAllowAnonymous,
		reportThreshold: reportThreshold,
		defaultPageSize: defaultPageSize,
	}
}

// Create persists a new listing owned by the acting identity. Anonymous
// creation is a deployment choice; when disallowed, a missing identity is an
// authorization failure, not a validation one. New listings start inactive
// until their owner activates them.
func (s *PostService) Create(ctx context.Context, input CreatePostInput, actor *types.Claims) (types.Post, error) {
	if actor == nil && !s.allowAnonymous {
		return types.Post{}, auth.ErrUnauthorized
	}

	var reasons []string
	if input.Name == "" {
		reasons = append(reasons, "name is required")
	}
	if input.Description == "" {
		reasons = append(reasons, "description is required")
	}
	if input.Price == nil {
		reasons = append(reasons, "price is required")
	}
	if len(input.Image) == 0 {
		reasons = append(reasons, "image is required")
	}
	if input.Contact == "" {
		reasons = append(reasons, "contact is required")
	}
	if len(reasons) > 0 {
		return types.Post{}, &ValidationError{Reasons: reasons}
	}

	post := types.Post{
		Name:             input.Name,
		Description:      input.Description,
		Price:            input.Price,
		Image:            input.Image,
		ImageContentType: input.ImageContentType,
		Contact:          input.Contact,
		ContactTypeID:    input.ContactTypeID,
		ContactBackup:    input.ContactBackup,
		Location:         input.Location,
		CategoryID:       input.CategoryID,
	}
	if actor != nil {
		ownerID := actor.UserID
		post.UserID = &ownerID
	}
	post.ImageKey = s.mirrorImage(ctx, "", post.Image, post.ImageContentType)

	return s.repo.Create(ctx, post)
}

// Get returns an active listing.
func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

// GetForActor returns a listing for its owner or an admin even when it is
// inactive; everyone else sees only active rows.
func (s *PostService) GetForActor(ctx context.Context, id int, actor *types.Claims) (types.Post, error) {
	post, err := s.repo.GetAny(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.IsActive {
		return post, nil
	}
	if err := auth.CheckOwnership(actor, post.UserID); err != nil {
		// Hide the row's existence from actors who may not see it.
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

// List returns a page of active listings. An empty page is an empty slice,
// not an error.
func (s *PostService) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	offset, limit = s.page(offset, limit)
	return s.repo.List(ctx, offset, limit)
}

// ListByCategory returns a page of active listings in the category.
func (s *PostService) ListByCategory(ctx context.Context, categoryID, offset, limit int) ([]types.Post, int, error) {
	offset, limit = s.page(offset, limit)
	return s.repo.ListByCategory(ctx, categoryID, offset, limit)
}

// Update applies a partial update after the ownership gate: the listing must
// exist, an identity must be present, and it must be the owner or an admin.
func (s *PostService) Update(ctx context.Context, id int, update types.PostUpdate, actor *types.Claims) (types.Post, error) {
	existing, err := s.repo.GetAny(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if err := auth.CheckOwnership(actor, existing.UserID); err != nil {
		return types.Post{}, err
	}
	if update.IsZero() {
		return types.Post{}, validationErrorf("no fields to update")
	}

	if update.Image != nil {
		contentType := existing.ImageContentType
		if update.ImageContentType != nil {
			contentType = *update.ImageContentType
		}
		key := s.mirrorImage(ctx, existing.ImageKey, update.Image, contentType)
		update.ImageKey = &key
	}

	return s.repo.Update(ctx, id, update)
}

// Delete removes a listing after the same ownership gate as Update and
// returns the deleted record.
func (s *PostService) Delete(ctx context.Context, id int, actor *types.Claims) (types.Post, error) {
	existing, err := s.repo.GetAny(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if err := auth.CheckOwnership(actor, existing.UserID); err != nil {
		return types.Post{}, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return types.Post{}, err
	}

	if s.media != nil && deleted.ImageKey != "" {
		if err := s.media.Delete(ctx, deleted.ImageKey); err != nil {
			log.Printf("failed to delete mirrored image %s: %v", deleted.ImageKey, err)
		}
	}
	s.publish(ctx, channelPostRemoved, deleted.ID, map[string]string{
		"post_id": strconv.Itoa(deleted.ID),
	})
	return deleted, nil
}

// Report increments the listing's report count. When the count reaches the
// configured threshold the listing is deactivated pending moderation.
func (s *PostService) Report(ctx context.Context, id int) (types.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Post{}, err
	}

	count, err := s.repo.Report(ctx, post.ID)
	if err != nil {
		return types.Post{}, err
	}

	if s.reportThreshold > 0 && count >= s.reportThreshold {
		inactive := false
		if _, err := s.repo.Update(ctx, post.ID, types.PostUpdate{IsActive: &inactive}); err != nil {
			return types.Post{}, err
		}
	}

	s.publish(ctx, channelPostReported, post.ID, map[string]string{
		"post_id":      strconv.Itoa(post.ID),
		"report_count": strconv.Itoa(count),
	})

	return s.repo.GetAny(ctx, post.ID)
}

func (s *PostService) page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

// mirrorImage uploads the image bytes to the configured object store and
// returns the object key, reusing key when the listing already has one.
// Mirroring is best-effort; the store row remains the source of truth. A
// failed upload keeps the existing key so a stale mirror stays addressable
// for cleanup instead of leaking.
func (s *PostService) mirrorImage(ctx context.Context, key string, image []byte, contentType string) string {
	existing := key
	if s.media == nil || len(image) == 0 {
		return key
	}
	if key == "" {
		key = fmt.Sprintf("posts/%s", uuid.NewString())
	}
	if err := s.media.Put(ctx, key, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		log.Printf("failed to mirror image %s: %v", key, err)
		return existing
	}
	return key
}

func (s *PostService) publish(ctx context.Context, channel string, postID int, attrs map[string]string) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"post_id": postID})
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, channel, payload, attrs); err != nil {
		log.Printf("failed to publish %s for post %d: %v", channel, postID, err)
	}
}
