package photocard

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	pathpkg "path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photocard/photocard-api/internal/pkg/pagination"
	"github.com/photocard/photocard-api/internal/pkg/storage"
	"github.com/photocard/photocard-api/internal/pkg/validator"
)

// Service handles photo card logic
type Service struct {
	repo         Repository
	store        storage.Storage // nil when uploads are not configured
	monthlyLimit int
	loc          *time.Location
	now          func() time.Time
}

// NewService creates photo card service. store may be nil.
func NewService(repo Repository, store storage.Storage, monthlyLimit int) *Service {
	if monthlyLimit <= 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	return &Service{
		repo:         repo,
		store:        store,
		monthlyLimit: monthlyLimit,
		loc:          time.Local,
		now:          time.Now,
	}
}

// PresignImage returns a signed upload for a new card image of userID
func (s *Service) PresignImage(ctx context.Context, userID int64, contentType string) (*ImageUploadResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	ext, err := storage.GetExtensionForMime(contentType)
	if err != nil {
		return nil, invalid("content_type", "must be image/jpeg, image/png, image/webp or image/gif")
	}

	key := storage.NewPhotoCardKey(userID, ext)
	upload, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &ImageUploadResponse{PresignedUpload: *upload, ImageURL: "/" + key}, nil
}

// Create registers a card design and credits the creator with total_supply copies.
// An identical existing design is reused while its aggregate supply stays within MaxTotalSupply.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*CreateResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Genre = strings.TrimSpace(req.Genre)
	req.Grade = strings.ToLower(strings.TrimSpace(req.Grade))
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	imagePath, err := s.checkImage(ctx, userID, req.ImageURL)
	if err != nil {
		return nil, err
	}

	fp := Fingerprint{
		Name:     req.Name,
		Genre:    req.Genre,
		Grade:    req.Grade,
		MinPrice: req.MinPrice,
		ImageURL: imagePath,
	}
	if req.Description != nil {
		fp.Description = sql.NullString{String: *req.Description, Valid: true}
	}

	from, to := s.monthRange()
	var result CreateResponse

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx CreateTx) error {
		if err := tx.LockCreator(ctx, userID); err != nil {
			return err
		}

		used, err := tx.CountCreatedBetween(ctx, userID, from, to)
		if err != nil {
			return err
		}
		if used >= s.monthlyLimit {
			return &MonthlyLimitError{Limit: s.monthlyLimit, Used: used}
		}

		existing, err := tx.FindDuplicate(ctx, fp)
		if err != nil {
			return err
		}

		var cardID int64
		if existing != nil {
			current, err := tx.TotalQuantity(ctx, existing.ID)
			if err != nil {
				return err
			}
			if current+req.TotalSupply > MaxTotalSupply {
				return invalid("total_supply", fmt.Sprintf("cannot exceed %d (current: %d, requested: %d)",
					MaxTotalSupply, current, req.TotalSupply))
			}
			cardID = existing.ID
		} else {
			card := &PhotoCard{
				CreatorUserID: userID,
				Name:          fp.Name,
				Description:   fp.Description,
				Genre:         fp.Genre,
				Grade:         fp.Grade,
				MinPrice:      fp.MinPrice,
				TotalSupply:   req.TotalSupply,
				ImageURL:      fp.ImageURL,
			}
			if err := tx.Insert(ctx, card); err != nil {
				return err
			}
			cardID = card.ID
		}

		userCardID, err := tx.AddUserCard(ctx, userID, cardID, req.TotalSupply)
		if err != nil {
			return err
		}
		total, err := tx.TotalQuantity(ctx, cardID)
		if err != nil {
			return err
		}
		if err := tx.SetTotalSupply(ctx, cardID, total); err != nil {
			return err
		}

		result = CreateResponse{PhotoCardID: cardID, UserCardID: userCardID, ImageURL: imagePath, TotalSupply: total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("photo_card_id", result.PhotoCardID).
		Int("quantity", req.TotalSupply).
		Msg("photo card created")
	return &result, nil
}

// List pages through all cards, newest first
func (s *Service) List(ctx context.Context, limit int, cursor *int64) (*CardPage, error) {
	limit, err := normalizeCursor(limit, cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &CardPage{Items: make([]CardResponse, 0, limit)}
	if len(rows) > limit {
		rows = rows[:limit]
		page.HasMore = true
	}
	for i := range rows {
		page.Items = append(page.Items, newCardResponse(&rows[i]))
	}
	if page.HasMore {
		last := rows[len(rows)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*CardResponse, error) {
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	resp := newCardResponse(c)
	return &resp, nil
}

// Update applies the creator's changes
func (s *Service) Update(ctx context.Context, id, userID int64, req UpdateRequest) (*CardResponse, error) {
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.CreatorUserID != userID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		req.Name = &v
	}
	if req.Genre != nil {
		v := strings.TrimSpace(*req.Genre)
		req.Genre = &v
	}
	if req.Grade != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Grade))
		req.Grade = &v
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	patch := Patch{
		Name:     req.Name,
		Genre:    req.Genre,
		Grade:    req.Grade,
		MinPrice: req.MinPrice,
	}
	if req.Description != nil {
		patch.SetDescription = true
		if *req.Description != "" {
			patch.Description = req.Description
		}
	}
	if req.ImageURL != nil {
		path, err := s.checkImage(ctx, userID, *req.ImageURL)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &path
	}
	if patch.empty() {
		return nil, invalid("body", "no fields to update")
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// GalleryQuery selects a page of the caller's cards
type GalleryQuery struct {
	Page   pagination.Offset
	Search string
	Grade  string // ALL, a grade, or super_rare
	Genre  string // ALL or a genre
}

// Gallery lists the cards userID owns with grade totals
func (s *Service) Gallery(ctx context.Context, userID int64, q GalleryQuery) (*GalleryResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	filter := GalleryFilter{Search: strings.TrimSpace(q.Search)}
	if g := strings.ToLower(strings.TrimSpace(q.Grade)); g != "" && g != "all" {
		if g == "super_rare" {
			g = "epic"
		}
		if !validator.IsGrade(g) {
			return nil, invalid("grade", "unknown grade")
		}
		filter.Grade = g
	}
	if g := strings.TrimSpace(q.Genre); g != "" && !strings.EqualFold(g, "all") {
		if !validator.IsGenre(g) {
			return nil, invalid("genre", "unknown genre")
		}
		filter.Genre = g
	}

	items, err := s.repo.ListGallery(ctx, userID, filter, q.Page.PageSize, q.Page.SQLOffset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountGallery(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	byGrade, err := s.repo.SumQuantityByGrade(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &GalleryResponse{
		Items:  make([]GalleryItemResponse, 0, len(items)),
		Counts: buildCounts(byGrade),
		PageInfo: PageInfo{
			Page:       q.Page.Page,
			PageSize:   q.Page.PageSize,
			TotalItems: total,
			TotalPages: q.Page.TotalPages(total),
		},
	}
	for _, it := range items {
		resp.Items = append(resp.Items, newGalleryItem(it))
	}
	return resp, nil
}

// checkImage turns an absolute URL into its path, requires the caller's
// card prefix and, when storage is configured, that the object exists.
func (s *Service) checkImage(ctx context.Context, userID int64, raw string) (string, error) {
	path := normalizeToPath(raw)
	prefix := "/" + storage.PhotoCardPrefix(userID)
	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) || pathpkg.Clean(path) != path {
		return "", invalid("image_url", "must start with "+prefix)
	}

	if s.store != nil {
		ok, err := s.store.Exists(ctx, strings.TrimPrefix(path, "/"))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrImageNotFound
		}
	}
	return path, nil
}

func normalizeToPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Path
	}
	return raw
}

// monthRange is the current calendar month in the service's location
func (s *Service) monthRange() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 1, 0)
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
