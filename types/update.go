package types

import "time"

// UserUpdate is a typed partial update for users. Nil fields are left
// untouched. The field set is the allow-list of updatable columns; unknown
// request keys are rejected at the transport layer rather than interpolated.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`

	// EmailVerified and LastLogin are audit fields set by server-side flows
	// only (verification, login); they are never accepted from request
	// bodies.
	EmailVerified *bool      `json:"-"`
	LastLogin     *time.Time `json:"-"`

	// Password is the plaintext replacement password. It is validated and
	// hashed by the service before persistence; the store only ever sees
	// PasswordHash.
	Password     *string `json:"password,omitempty"`
	PasswordHash *string `json:"-"`
}

// IsZero reports whether no field is set.
func (u UserUpdate) IsZero() bool {
	return u.Username == nil && u.Email == nil && u.EmailVerified == nil &&
		u.LastLogin == nil && u.IsAdmin == nil && u.Password == nil && u.PasswordHash == nil
}

// PostUpdate is a typed partial update for listings. Nil fields are left
// untouched. Ownership (UserID) is fixed at creation and deliberately absent.
type PostUpdate struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Price         *int    `json:"price,omitempty"`
	Contact       *string `json:"contact,omitempty"`
	ContactTypeID *int    `json:"contact_type_id,omitempty"`
	ContactBackup *string `json:"contact_backup,omitempty"`
	Location      *string `json:"location,omitempty"`
	CategoryID    *int    `json:"category_id,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`

	// Image and ImageContentType travel together; both are set when a new
	// image has been uploaded.
	Image            []byte  `json:"-"`
	ImageContentType *string `json:"-"`
	ImageKey         *string `json:"-"`
}

// IsZero reports whether no field is set.
func (p PostUpdate) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Contact == nil && p.ContactTypeID == nil && p.ContactBackup == nil &&
		p.Location == nil && p.CategoryID == nil && p.IsActive == nil &&
		p.Image == nil && p.ImageContentType == nil && p.ImageKey == nil
}
