package services

import (
	"context"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/types"
)

// CatalogRepository defines persistence operations for the lookup tables.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, name string) (types.Category, error)
	GetCategory(ctx context.Context, id int) (types.Category, error)
	ListCategories(ctx context.Context) ([]types.Category, error)
	CreateContactType(ctx context.Context, name string) (types.ContactType, error)
	ListContactTypes(ctx context.Context) ([]types.ContactType, error)
}

// CatalogService encapsulates category and contact-type use-cases. Reads are
// public; writes are admin-only.
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string, actor *types.Claims) (types.Category, error) {
	if err := auth.CheckAdmin(actor); err != nil {
		return types.Category{}, err
	}
	if name == "" {
		return types.Category{}, validationErrorf("name is required")
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int) (types.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]types.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateContactType(ctx context.Context, name string, actor *types.Claims) (types.ContactType, error) {
	if err := auth.CheckAdmin(actor); err != nil {
		return types.ContactType{}, err
	}
	if name == "" {
		return types.ContactType{}, validationErrorf("name is required")
	}
	return s.repo.CreateContactType(ctx, name)
}

func (s *CatalogService) ListContactTypes(ctx context.Context) ([]types.ContactType, error) {
	return s.repo.ListContactTypes(ctx)
}
