package point

import "time"

// HistoryType tags the cause of a balance change.
type HistoryType string

const (
	HistoryTypeBoxDrawEarn HistoryType = "POINT_BOX_DRAW_EARN"
)

// RefEntityBoxDraw marks history rows that point at a point_box_draws row.
const RefEntityBoxDraw = "POINT_BOX_DRAW"

const (
	// MinEarn and MaxEarn bound the reward of a single draw, inclusive.
	MinEarn = 1
	MaxEarn = 10

	DefaultPageSize = 20
	MaxPageSize     = 50
)

// HistoryEntry is an append-only ledger row.
type HistoryEntry struct {
	ID            int64       `db:"id" json:"id"`
	UserID        int64       `db:"user_id" json:"user_id"`
	Amount        int64       `db:"amount" json:"amount"`
	Type          HistoryType `db:"type" json:"type"`
	RefEntityType *string     `db:"ref_entity_type" json:"ref_entity_type"`
	RefEntityID   *int64      `db:"ref_entity_id" json:"ref_entity_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// BoxDraw records one successful draw and the history row it produced.
type BoxDraw struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	PointHistoryID int64     `db:"point_history_id" json:"point_history_id"`
	EarnedPoints   int       `db:"earned_points" json:"earned_points"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DrawResult is returned by a successful draw.
type DrawResult struct {
	EarnedPoints   int   `json:"earned_points"`
	PointBoxDrawID int64 `json:"point_box_draw_id"`
	PointHistoryID int64 `json:"point_history_id"`
}

// PageRequest selects one page of a cursor-paginated listing.
// Limit 0 means DefaultPageSize; Cursor nil means the first page.
type PageRequest struct {
	Limit  int
	Cursor *int64
}

// Page is one page of rows ordered by id descending.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor *int64 `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func (p PageRequest) normalize() (int, error) {
	if p.Limit < 0 {
		return 0, ErrInvalidInput
	}
	if p.Cursor != nil && *p.Cursor <= 0 {
		return 0, ErrInvalidInput
	}
	switch {
	case p.Limit == 0:
		return DefaultPageSize, nil
	case p.Limit > MaxPageSize:
		return MaxPageSize, nil
	default:
		return p.Limit, nil
	}
}

// buildPage trims rows fetched with limit+1 and derives the next cursor.
func buildPage[T any](rows []T, limit int, idOf func(T) int64) *Page[T] {
	page := &Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		next := idOf(page.Items[limit-1])
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}
