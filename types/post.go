package types

import "time"

// Post represents a marketplace listing.
type Post struct {
	// ID is the unique identifier of the listing.
	ID int `json:"id" db:"id"`

	// UserID references the owner of the listing. It is fixed at creation
	// time and, together with the admin override, is the sole basis for
	// mutation rights. Nil only for listings created anonymously.
	UserID *int `json:"user_id,omitempty" db:"user_id"`

	// Name is the listing's display title.
	Name string `json:"name" db:"name"`

	// Description is the full listing text.
	Description string `json:"description" db:"description"`

	// Price is the asking price in whole currency units, nil when the
	// listing has no price (e.g. giveaways).
	Price *int `json:"price,omitempty" db:"price"`

	// Image holds the raw listing image bytes. Responses re-encode it as
	// an inline data URI; the raw bytes are never serialized directly.
	Image []byte `json:"-" db:"image"`

	// ImageContentType is the MIME type of Image.
	ImageContentType string `json:"image_content_type,omitempty" db:"image_content_type"`

	// ImageKey is the object-storage key of the mirrored image, empty
	// when no mirror backend is configured.
	ImageKey string `json:"-" db:"image_key"`

	// Contact is how buyers reach the seller.
	Contact string `json:"contact" db:"contact"`

	// ContactTypeID references the kind of the primary contact.
	ContactTypeID *int `json:"contact_type_id,omitempty" db:"contact_type_id"`

	// ContactBackup is an optional secondary contact.
	ContactBackup *string `json:"contact_backup,omitempty" db:"contact_backup"`

	// Location is an optional free-form pickup location.
	Location *string `json:"location,omitempty" db:"location"`

	// CategoryID references the listing's category.
	CategoryID *int `json:"category_id,omitempty" db:"category_id"`

	// IsActive marks the listing as publicly visible. Inactive rows are
	// hidden from all read paths (soft delete / moderation gate).
	IsActive bool `json:"is_active" db:"is_active"`

	// ReportCount is the number of times the listing has been reported.
	ReportCount int `json:"report_count" db:"report_count"`

	// CreatedAt is the timestamp at which the listing was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// CategoryName and ContactTypeName are display names joined in on
	// read paths; they are not columns of the posts table.
	CategoryName    *string `json:"category_name,omitempty" db:"-"`
	ContactTypeName *string `json:"contact_type_name,omitempty" db:"-"`
}

// Category is a listing category lookup row.
type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ContactType is a contact-kind lookup row (e.g. "Email", "Phone").
type ContactType struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Comment is a remark left on a listing by a user.
type Comment struct {
	ID          int       `json:"id" db:"id"`
	PostID      int       `json:"post_id" db:"post_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Comment     string    `json:"comment" db:"comment"`
	DateCreated time.Time `json:"date_created" db:"date_created"`
}
