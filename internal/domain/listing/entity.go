package listing

import (
	"time"
)

// Status of a listing
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusSoldOut  Status = "SOLD_OUT"
	StatusCanceled Status = "CANCELED"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Listing offers part of a user card for sale
type Listing struct {
	ID                int64     `db:"id"`
	SellerUserID      int64     `db:"seller_user_id"`
	UserCardID        int64     `db:"user_card_id"`
	PhotoCardID       int64     `db:"photo_card_id"`
	Quantity          int       `db:"quantity"`
	RemainingQuantity int       `db:"remaining_quantity"`
	PricePerUnit      int64     `db:"price_per_unit"`
	Status            Status    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Sold is how many units already left the listing
func (l *Listing) Sold() int {
	return l.Quantity - l.RemainingQuantity
}

// View is a listing joined with its card design
type View struct {
	Listing
	CardName string `db:"card_name"`
	Grade    string `db:"grade"`
	Genre    string `db:"genre"`
	ImageURL string `db:"image_url"`
}

// UserCard is the owned stack a listing draws from
type UserCard struct {
	ID          int64 `db:"id"`
	UserID      int64 `db:"user_id"`
	PhotoCardID int64 `db:"photo_card_id"`
	Quantity    int   `db:"quantity"`
}

// Filter narrows the public listing. Empty fields match everything.
type Filter struct {
	Status Status
	Grade  string
	Genre  string
}
