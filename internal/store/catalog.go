package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bazaar-market/apiserver/types"
)

// CatalogRepository handles persistence for the category and contact-type
// lookup tables.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, name string) (types.Category, error) {
	const query = `INSERT INTO category (name) VALUES ($1) RETURNING id`
	category := types.Category{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&category.ID); err != nil {
		return types.Category{}, translateError(err)
	}
	return category, nil
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id int) (types.Category, error) {
	const query = `SELECT id, name FROM category WHERE id = $1`
	var category types.Category
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]types.Category, error) {
	const query = `SELECT id, name FROM category ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CatalogRepository) CreateContactType(ctx context.Context, name string) (types.ContactType, error) {
	const query = `INSERT INTO contact_type (name) VALUES ($1) RETURNING id`
	contactType := types.ContactType{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&contactType.ID); err != nil {
		return types.ContactType{}, translateError(err)
	}
	return contactType, nil
}

func (r *CatalogRepository) ListContactTypes(ctx context.Context) ([]types.ContactType, error) {
	const query = `SELECT id, name FROM contact_type ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contactTypes := make([]types.ContactType, 0)
	for rows.Next() {
		var contactType types.ContactType
		if err := rows.Scan(&contactType.ID, &contactType.Name); err != nil {
			return nil, err
		}
		contactTypes = append(contactTypes, contactType)
	}
	return contactTypes, rows.Err()
}
