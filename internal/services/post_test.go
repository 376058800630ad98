package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/storage"
	"github.com/bazaar-market/apiserver/internal/store"
	"github.com/bazaar-market/apiserver/types"
)

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	posts  map[int]types.Post
	nextID int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[int]types.Post{}, nextID: 1}
}

func (r *fakePostRepo) Get(ctx context.Context, id int) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok || !post.IsActive {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *fakePostRepo) GetAny(ctx context.Context, id int) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *fakePostRepo) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	posts := make([]types.Post, 0, len(r.posts))
	for id := 1; id < r.nextID; id++ {
		if post, ok := r.posts[id]; ok && post.IsActive {
			posts = append(posts, post)
		}
	}
	total := len(posts)
	if offset >= total {
		return []types.Post{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return posts[offset:end], total, nil
}

func (r *fakePostRepo) ListByCategory(ctx context.Context, categoryID, offset, limit int) ([]types.Post, int, error) {
	posts := []types.Post{}
	for id := 1; id < r.nextID; id++ {
		post, ok := r.posts[id]
		if ok && post.IsActive && post.CategoryID != nil && *post.CategoryID == categoryID {
			posts = append(posts, post)
		}
	}
	return posts, len(posts), nil
}

func (r *fakePostRepo) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.ID = r.nextID
	r.nextID++
	r.posts[post.ID] = post
	return post, nil
}

func (r *fakePostRepo) Update(ctx context.Context, id int, update types.PostUpdate) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	if update.Name != nil {
		post.Name = *update.Name
	}
	if update.Description != nil {
		post.Description = *update.Description
	}
	if update.Price != nil {
		post.Price = update.Price
	}
	if update.Image != nil {
		post.Image = update.Image
	}
	if update.ImageContentType != nil {
		post.ImageContentType = *update.ImageContentType
	}
	if update.ImageKey != nil {
		post.ImageKey = *update.ImageKey
	}
	if update.Contact != nil {
		post.Contact = *update.Contact
	}
	if update.ContactTypeID != nil {
		post.ContactTypeID = update.ContactTypeID
	}
	if update.ContactBackup != nil {
		post.ContactBackup = update.ContactBackup
	}
	if update.Location != nil {
		post.Location = update.Location
	}
	if update.CategoryID != nil {
		post.CategoryID = update.CategoryID
	}
	if update.IsActive != nil {
		post.IsActive = *update.IsActive
	}
	r.posts[id] = post
	return post, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id int) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	delete(r.posts, id)
	return post, nil
}

func (r *fakePostRepo) Report(ctx context.Context, id int) (int, error) {
	post, ok := r.posts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	post.ReportCount++
	r.posts[id] = post
	return post.ReportCount, nil
}

func newTestPostService(repo PostRepository, allowAnonymous bool, reportThreshold int) *PostService {
	return NewPostService(repo, nil, nil, allowAnonymous, reportThreshold, 20)
}

func validPostInput() CreatePostInput {
	price := 1500
	return CreatePostInput{
		Name:             "Mountain bike",
		Description:      "Barely used",
		Price:            &price,
		Image:            []byte{0xff, 0xd8, 0xff},
		ImageContentType: "image/jpeg",
		Contact:          "alice@example.com",
	}
}

func claims(userID int, admin bool) *types.Claims {
	return &types.Claims{UserID: userID, Username: "user", IsAdmin: admin}
}

func TestCreatePostRequiresIdentityByDefault(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), false, 0)

	if _, err := service.Create(context.Background(), validPostInput(), nil); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreatePostAnonymousWhenAllowed(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), true, 0)

	post, err := service.Create(context.Background(), validPostInput(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if post.UserID != nil {
		t.Fatalf("expected no owner, got %d", *post.UserID)
	}
}

func TestCreatePostCollectsMissingFields(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), false, 0)

	_, err := service.Create(context.Background(), CreatePostInput{}, claims(5, false))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Reasons) != 5 {
		t.Fatalf("expected 5 reasons, got %v", validationErr.Reasons)
	}
	for _, field := range []string{"name", "description", "price", "image", "contact"} {
		if !strings.Contains(validationErr.Error(), field) {
			t.Errorf("reasons do not mention %q: %v", field, validationErr.Reasons)
		}
	}
}

func TestCreatePostRecordsOwnerAndStartsInactive(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), false, 0)

	post, err := service.Create(context.Background(), validPostInput(), claims(5, false))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if post.UserID == nil || *post.UserID != 5 {
		t.Fatalf("owner = %v, want 5", post.UserID)
	}
	if post.IsActive {
		t.Fatal("new listing should start inactive")
	}
}

func TestUpdatePostOwnershipGate(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 0)
	ctx := context.Background()

	created, err := service.Create(ctx, validPostInput(), claims(5, false))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "Road bike"
	update := types.PostUpdate{Name: &name}

	if _, err := service.Update(ctx, created.ID, update, nil); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.Update(ctx, created.ID, update, claims(7, false)); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("non-owner: expected ErrForbidden, got %v", err)
	}
	if _, err := service.Update(ctx, created.ID, update, claims(5, false)); err != nil {
		t.Fatalf("owner: Update failed: %v", err)
	}
	name = "Gravel bike"
	if _, err := service.Update(ctx, created.ID, update, claims(1, true)); err != nil {
		t.Fatalf("admin: Update failed: %v", err)
	}
}

func TestUpdatePostPartialPreservesUnsetFields(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 0)
	ctx := context.Background()
	actor := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), actor)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	price := 1200
	updated, err := service.Update(ctx, created.ID, types.PostUpdate{Price: &price}, actor)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Price == nil || *updated.Price != 1200 {
		t.Fatalf("price = %v, want 1200", updated.Price)
	}
	if updated.Name != created.Name || updated.Contact != created.Contact {
		t.Fatal("unset fields changed")
	}
}

func TestUpdatePostEmptyPatchRejected(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 0)
	ctx := context.Background()
	actor := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), actor)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var validationErr *ValidationError
	if _, err := service.Update(ctx, created.ID, types.PostUpdate{}, actor); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateMissingPostNotFound(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), false, 0)

	name := "Ghost"
	if _, err := service.Update(context.Background(), 42, types.PostUpdate{Name: &name}, claims(5, false)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePostOwnershipGate(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 0)
	ctx := context.Background()

	created, err := service.Create(ctx, validPostInput(), claims(5, false))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := service.Delete(ctx, created.ID, claims(7, false)); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("non-owner: expected ErrForbidden, got %v", err)
	}

	deleted, err := service.Delete(ctx, created.ID, claims(5, false))
	if err != nil {
		t.Fatalf("owner: Delete failed: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("deleted ID = %d, want %d", deleted.ID, created.ID)
	}
	if _, err := repo.GetAny(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatal("listing still present after delete")
	}
}

func TestGetForActorHidesInactiveListings(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 0)
	ctx := context.Background()
	owner := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := service.GetForActor(ctx, created.ID, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("anonymous: expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetForActor(ctx, created.ID, claims(7, false)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("stranger: expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetForActor(ctx, created.ID, owner); err != nil {
		t.Fatalf("owner: GetForActor failed: %v", err)
	}
	if _, err := service.GetForActor(ctx, created.ID, claims(1, true)); err != nil {
		t.Fatalf("admin: GetForActor failed: %v", err)
	}

	active := true
	if _, err := service.Update(ctx, created.ID, types.PostUpdate{IsActive: &active}, owner); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if _, err := service.GetForActor(ctx, created.ID, nil); err != nil {
		t.Fatalf("anonymous after activation: %v", err)
	}
}

func TestReportThresholdDeactivates(t *testing.T) {
	repo := newFakePostRepo()
	service := newTestPostService(repo, false, 3)
	ctx := context.Background()
	owner := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	active := true
	if _, err := service.Update(ctx, created.ID, types.PostUpdate{IsActive: &active}, owner); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		post, err := service.Report(ctx, created.ID)
		if err != nil {
			t.Fatalf("Report %d failed: %v", i+1, err)
		}
		if !post.IsActive {
			t.Fatalf("listing deactivated after %d reports", i+1)
		}
	}

	post, err := service.Report(ctx, created.ID)
	if err != nil {
		t.Fatalf("third Report failed: %v", err)
	}
	if post.IsActive {
		t.Fatal("listing still active at the report threshold")
	}
	if post.ReportCount != 3 {
		t.Fatalf("report count = %d, want 3", post.ReportCount)
	}

	// Reporting an inactive listing is a miss for the public path.
	if _, err := service.Report(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// fakeObjectStorage is an in-memory storage.ObjectStorage.
type fakeObjectStorage struct {
	objects map[string][]byte
	failPut bool
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (s *fakeObjectStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *fakeObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.failPut {
		return errors.New("upload failed")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *fakeObjectStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStorage) Bucket() string { return "test-bucket" }

func TestImageMirrorKeepsKeyOnFailedRemirror(t *testing.T) {
	backend := newFakeObjectStorage()
	repo := newFakePostRepo()
	service := NewPostService(repo, storage.NewStorage(backend), nil, false, 0, 20)
	ctx := context.Background()
	owner := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ImageKey == "" {
		t.Fatal("expected a mirror key on create")
	}
	if _, ok := backend.objects[created.ImageKey]; !ok {
		t.Fatalf("mirror object %q missing", created.ImageKey)
	}

	// A failed re-mirror keeps the existing key addressable.
	backend.failPut = true
	contentType := "image/png"
	updated, err := service.Update(ctx, created.ID, types.PostUpdate{
		Image:            []byte{0x89, 0x50, 0x4e, 0x47},
		ImageContentType: &contentType,
	}, owner)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ImageKey != created.ImageKey {
		t.Fatalf("image key = %q, want %q", updated.ImageKey, created.ImageKey)
	}

	// A successful re-mirror overwrites the same object, no new key.
	backend.failPut = false
	updated, err = service.Update(ctx, created.ID, types.PostUpdate{
		Image:            []byte{0x89, 0x50, 0x4e, 0x47},
		ImageContentType: &contentType,
	}, owner)
	if err != nil {
		t.Fatalf("second Update failed: %v", err)
	}
	if updated.ImageKey != created.ImageKey {
		t.Fatalf("image key = %q, want %q", updated.ImageKey, created.ImageKey)
	}
	if len(backend.objects) != 1 {
		t.Fatalf("expected one mirror object, got %d", len(backend.objects))
	}
}

func TestDeletePostRemovesMirrorObject(t *testing.T) {
	backend := newFakeObjectStorage()
	repo := newFakePostRepo()
	service := NewPostService(repo, storage.NewStorage(backend), nil, false, 0, 20)
	ctx := context.Background()
	owner := claims(5, false)

	created, err := service.Create(ctx, validPostInput(), owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := service.Delete(ctx, created.ID, owner); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(backend.objects) != 0 {
		t.Fatalf("mirror object not removed, %d left", len(backend.objects))
	}
}

func TestListEmptyCategoryReturnsEmptySlice(t *testing.T) {
	service := newTestPostService(newFakePostRepo(), false, 0)

	posts, total, err := service.ListByCategory(context.Background(), 9, 0, 0)
	if err != nil {
		t.Fatalf("ListByCategory failed: %v", err)
	}
	if posts == nil || len(posts) != 0 || total != 0 {
		t.Fatalf("expected empty slice and zero total, got %v total=%d", posts, total)
	}
}
