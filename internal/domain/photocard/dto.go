package photocard

import (
	"time"

	"github.com/photocard/photocard-api/internal/pkg/storage"
)

// CreateRequest for POST /photocards
type CreateRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Genre       string  `json:"genre" validate:"required,genre"`
	Grade       string  `json:"grade" validate:"required,grade"`
	MinPrice    int64   `json:"min_price" validate:"gte=0"`
	TotalSupply int     `json:"total_supply" validate:"required,min=1,max=10"`
	ImageURL    string  `json:"image_url" validate:"required"`
}

// UpdateRequest for PATCH /photocards/{id}. An empty description clears it.
type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Genre       *string `json:"genre" validate:"omitempty,genre"`
	Grade       *string `json:"grade" validate:"omitempty,grade"`
	MinPrice    *int64  `json:"min_price" validate:"omitempty,gte=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,notblank"`
}

// ImageUploadRequest for POST /photocards/images
type ImageUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type ImageUploadResponse struct {
	storage.PresignedUpload
	// ImageURL is the value to send as image_url once the upload finished
	ImageURL string `json:"image_url"`
}

type CreateResponse struct {
	PhotoCardID int64  `json:"photo_card_id"`
	UserCardID  int64  `json:"user_card_id"`
	ImageURL    string `json:"image_url"`
	TotalSupply int    `json:"total_supply"`
}

// CardResponse is the public view of a photo card
type CardResponse struct {
	ID            int64     `json:"id"`
	CreatorUserID int64     `json:"creator_user_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Genre         string    `json:"genre"`
	Grade         string    `json:"grade"`
	MinPrice      int64     `json:"min_price"`
	TotalSupply   int       `json:"total_supply"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newCardResponse(c *PhotoCard) CardResponse {
	resp := CardResponse{
		ID:            c.ID,
		CreatorUserID: c.CreatorUserID,
		Name:          c.Name,
		Genre:         c.Genre,
		Grade:         c.Grade,
		MinPrice:      c.MinPrice,
		TotalSupply:   c.TotalSupply,
		ImageURL:      c.ImageURL,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Description.Valid {
		d := c.Description.String
		resp.Description = &d
	}
	return resp
}

// CardPage is one page of the id-desc card listing
type CardPage struct {
	Items      []CardResponse `json:"items"`
	NextCursor *int64         `json:"next_cursor"`
	HasMore    bool           `json:"has_more"`
}

type GalleryItemResponse struct {
	UserCardID    int64     `json:"user_card_id"`
	PhotoCardID   int64     `json:"photo_card_id"`
	Quantity      int       `json:"quantity"`
	AcquiredAt    time.Time `json:"acquired_at"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Genre         string    `json:"genre"`
	Grade         string    `json:"grade"`
	MinPrice      int64     `json:"min_price"`
	ImageURL      string    `json:"image_url"`
	CreatorUserID int64     `json:"creator_user_id"`
}

// GradeCounts reports owned copies; epic cards are shown as super_rare
type GradeCounts struct {
	Total     int `json:"total"`
	Common    int `json:"common"`
	Rare      int `json:"rare"`
	SuperRare int `json:"super_rare"`
	Legendary int `json:"legendary"`
}

type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type GalleryResponse struct {
	Items    []GalleryItemResponse `json:"items"`
	Counts   GradeCounts           `json:"counts"`
	PageInfo PageInfo              `json:"page_info"`
}

func newGalleryItem(g GalleryItem) GalleryItemResponse {
	resp := GalleryItemResponse{
		UserCardID:    g.UserCardID,
		PhotoCardID:   g.PhotoCardID,
		Quantity:      g.Quantity,
		AcquiredAt:    g.AcquiredAt,
		Name:          g.Name,
		Genre:         g.Genre,
		Grade:         g.Grade,
		MinPrice:      g.MinPrice,
		ImageURL:      g.ImageURL,
		CreatorUserID: g.CreatorUserID,
	}
	if g.Description.Valid {
		d := g.Description.String
		resp.Description = &d
	}
	return resp
}

func buildCounts(byGrade map[string]int) GradeCounts {
	c := GradeCounts{
		Common:    byGrade["common"],
		Rare:      byGrade["rare"],
		SuperRare: byGrade["epic"],
		Legendary: byGrade["legendary"],
	}
	for _, n := range byGrade {
		c.Total += n
	}
	return c
}
