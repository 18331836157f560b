package listing

import "time"

// CreateRequest is the POST /listings body
type CreateRequest struct {
	UserCardID   int64 `json:"user_card_id" validate:"required,gt=0"`
	Quantity     int   `json:"quantity" validate:"required,gt=0"`
	PricePerUnit int64 `json:"price_per_unit" validate:"gte=0"`
}

// UpdateRequest is the PATCH /listings/{id} body; absent fields stay unchanged
type UpdateRequest struct {
	Quantity     *int   `json:"quantity" validate:"omitempty,gt=0"`
	PricePerUnit *int64 `json:"price_per_unit" validate:"omitempty,gte=0"`
}

// ListQuery holds GET /listings parameters before normalization
type ListQuery struct {
	Limit  int
	Cursor *int64
	Status string
	Grade  string
	Genre  string
}

type CardSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Grade    string `json:"grade"`
	Genre    string `json:"genre"`
	ImageURL string `json:"image_url"`
}

type Response struct {
	ID                int64       `json:"id"`
	SellerUserID      int64       `json:"seller_user_id"`
	UserCardID        int64       `json:"user_card_id"`
	Quantity          int         `json:"quantity"`
	RemainingQuantity int         `json:"remaining_quantity"`
	PricePerUnit      int64       `json:"price_per_unit"`
	Status            Status      `json:"status"`
	PhotoCard         CardSummary `json:"photo_card"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type Page struct {
	Items      []Response `json:"items"`
	NextCursor *int64     `json:"next_cursor"`
	HasMore    bool       `json:"has_more"`
}

func newResponse(v *View) Response {
	return Response{
		ID:                v.ID,
		SellerUserID:      v.SellerUserID,
		UserCardID:        v.UserCardID,
		Quantity:          v.Quantity,
		RemainingQuantity: v.RemainingQuantity,
		PricePerUnit:      v.PricePerUnit,
		Status:            v.Status,
		PhotoCard: CardSummary{
			ID:       v.PhotoCardID,
			Name:     v.CardName,
			Grade:    v.Grade,
			Genre:    v.Genre,
			ImageURL: v.ImageURL,
		},
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
