package photocard

import (
	"database/sql"
	"time"
)

const (
	MaxTotalSupply      = 10
	DefaultMonthlyLimit = 3

	DefaultPageSize = 20
	MaxPageSize     = 50

	DefaultGalleryPageSize = 15
	MaxGalleryPageSize     = 50
)

// PhotoCard is a card design. TotalSupply is the sum of every owner's quantity.
type PhotoCard struct {
	ID            int64          `db:"id"`
	CreatorUserID int64          `db:"creator_user_id"`
	Name          string         `db:"name"`
	Description   sql.NullString `db:"description"`
	Genre         string         `db:"genre"`
	Grade         string         `db:"grade"`
	MinPrice      int64          `db:"min_price"`
	TotalSupply   int            `db:"total_supply"`
	ImageURL      string         `db:"image_url"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// Fingerprint identifies cards that are the same design
type Fingerprint struct {
	Name        string
	Description sql.NullString
	Genre       string
	Grade       string
	MinPrice    int64
	ImageURL    string
}

// GalleryItem is one owned card with its design fields
type GalleryItem struct {
	UserCardID    int64          `db:"user_card_id"`
	PhotoCardID   int64          `db:"photo_card_id"`
	Quantity      int            `db:"quantity"`
	AcquiredAt    time.Time      `db:"acquired_at"`
	Name          string         `db:"name"`
	Description   sql.NullString `db:"description"`
	Genre         string         `db:"genre"`
	Grade         string         `db:"grade"`
	MinPrice      int64          `db:"min_price"`
	ImageURL      string         `db:"image_url"`
	CreatorUserID int64          `db:"creator_user_id"`
}

// GalleryFilter narrows the gallery listing. Empty fields match everything.
type GalleryFilter struct {
	Search string
	Grade  string
	Genre  string
}

// Patch carries the fields an owner may change
type Patch struct {
	Name     *string
	Genre    *string
	Grade    *string
	MinPrice *int64
	ImageURL *string
	// SetDescription with a nil Description clears it
	SetDescription bool
	Description    *string
}

func (p Patch) empty() bool {
	return p.Name == nil && p.Genre == nil && p.Grade == nil && p.MinPrice == nil &&
		p.ImageURL == nil && !p.SetDescription
}
