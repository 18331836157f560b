package listing

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/photocard/photocard-api/internal/pkg/validator"
)

// Service handles marketplace listings
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create lists part of the seller's user card. The units offered across all
// active listings of one user card never exceed what the seller holds.
func (s *Service) Create(ctx context.Context, sellerID int64, req CreateRequest) (*Response, error) {
	if sellerID <= 0 {
		return nil, ErrForbidden
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	var id int64
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		uc, err := tx.LockUserCard(ctx, req.UserCardID)
		if err != nil {
			return err
		}
		if uc == nil {
			return ErrUserCardNotFound
		}
		if uc.UserID != sellerID {
			return ErrForbidden
		}

		listed, err := tx.ListedQuantity(ctx, uc.ID, 0)
		if err != nil {
			return err
		}
		if free := uc.Quantity - listed; req.Quantity > free {
			return &QuantityError{Requested: req.Quantity, Available: max(free, 0)}
		}

		l := &Listing{
			SellerUserID:      sellerID,
			UserCardID:        uc.ID,
			PhotoCardID:       uc.PhotoCardID,
			Quantity:          req.Quantity,
			RemainingQuantity: req.Quantity,
			PricePerUnit:      req.PricePerUnit,
			Status:            StatusActive,
		}
		if err := tx.Insert(ctx, l); err != nil {
			return err
		}
		id = l.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("listing_id", id).Int64("seller_id", sellerID).Int("quantity", req.Quantity).Msg("listing created")
	return s.Get(ctx, id)
}

// List pages through listings newest first. Status defaults to ACTIVE; ALL disables the filter.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	limit, err := normalizeCursor(q.Limit, q.Cursor)
	if err != nil {
		return nil, err
	}
	f, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, f, q.Cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: make([]Response, 0, limit)}
	if len(rows) > limit {
		rows = rows[:limit]
		page.HasMore = true
	}
	for i := range rows {
		page.Items = append(page.Items, newResponse(&rows[i]))
	}
	if page.HasMore {
		last := rows[len(rows)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Response, error) {
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	resp := newResponse(v)
	return &resp, nil
}

// Update changes quantity and/or price of an active listing. Units already
// sold stay sold, so the new quantity must exceed them.
func (s *Service) Update(ctx context.Context, id, sellerID int64, req UpdateRequest) (*Response, error) {
	if sellerID <= 0 {
		return nil, ErrForbidden
	}
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	if req.Quantity == nil && req.PricePerUnit == nil {
		return nil, invalid("body", "provide quantity or price_per_unit")
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.LockListing(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrNotFound
		}
		if l.SellerUserID != sellerID {
			return ErrForbidden
		}
		if l.Status != StatusActive {
			return ErrNotActive
		}

		quantity, remaining, price := l.Quantity, l.RemainingQuantity, l.PricePerUnit
		if req.PricePerUnit != nil {
			price = *req.PricePerUnit
		}
		if req.Quantity != nil && *req.Quantity != l.Quantity {
			sold := l.Sold()
			if *req.Quantity <= sold {
				return invalid("quantity", "must be greater than the units already sold")
			}
			quantity = *req.Quantity
			remaining = quantity - sold

			uc, err := tx.LockUserCard(ctx, l.UserCardID)
			if err != nil {
				return err
			}
			if uc == nil {
				return ErrUserCardNotFound
			}
			listed, err := tx.ListedQuantity(ctx, uc.ID, l.ID)
			if err != nil {
				return err
			}
			if free := uc.Quantity - listed; remaining > free {
				return &QuantityError{Requested: remaining, Available: max(free, 0)}
			}
		}

		return tx.UpdateTerms(ctx, l.ID, quantity, remaining, price)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("listing_id", id).Int64("seller_id", sellerID).Msg("listing updated")
	return s.Get(ctx, id)
}

// Cancel withdraws an active listing; its remaining units become listable again
func (s *Service) Cancel(ctx context.Context, id, sellerID int64) (*Response, error) {
	if sellerID <= 0 {
		return nil, ErrForbidden
	}
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.LockListing(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrNotFound
		}
		if l.SellerUserID != sellerID {
			return ErrForbidden
		}
		if l.Status != StatusActive {
			return ErrNotActive
		}
		return tx.SetStatus(ctx, l.ID, StatusCanceled)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("listing_id", id).Int64("seller_id", sellerID).Msg("listing canceled")
	return s.Get(ctx, id)
}

func buildFilter(q ListQuery) (Filter, error) {
	var f Filter
	fields := map[string]string{}

	switch status := strings.ToUpper(strings.TrimSpace(q.Status)); status {
	case "":
		f.Status = StatusActive
	case "ALL":
	case string(StatusActive), string(StatusSoldOut), string(StatusCanceled):
		f.Status = Status(status)
	default:
		fields["status"] = "Invalid status. Must be one of: ALL, " + strings.Join(validator.ListingStatuses, ", ")
	}

	if g := strings.ToLower(strings.TrimSpace(q.Grade)); g != "" && g != "all" {
		if g == "super_rare" {
			g = "epic"
		}
		if validator.IsGrade(g) {
			f.Grade = g
		} else {
			fields["grade"] = "Invalid grade. Must be one of: " + strings.Join(validator.Grades, ", ")
		}
	}

	if g := strings.TrimSpace(q.Genre); g != "" && !strings.EqualFold(g, "all") {
		if validator.IsGenre(g) {
			f.Genre = g
		} else {
			fields["genre"] = "Invalid genre. Must be one of: " + strings.Join(validator.Genres, ", ")
		}
	}

	if len(fields) > 0 {
		return Filter{}, &ValidationError{Fields: fields}
	}
	return f, nil
}

func normalizeCursor(limit int, cursor *int64) (int, error) {
	if limit < 0 {
		return 0, invalid("limit", "must be a positive integer")
	}
	if cursor != nil && *cursor <= 0 {
		return 0, invalid("cursor", "must be a positive integer")
	}
	if limit == 0 {
		return DefaultPageSize, nil
	}
	if limit > MaxPageSize {
		return MaxPageSize, nil
	}
	return limit, nil
}
