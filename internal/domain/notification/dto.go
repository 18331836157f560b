package notification

import "time"

// ListItem is one row of GET /notifications
type ListItem struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

type ListResponse struct {
	Items       []ListItem `json:"items"`
	UnreadCount int        `json:"unread_count"`
}

// DetailResponse for GET /notifications/{id}
type DetailResponse struct {
	ID         int64      `json:"id"`
	Type       string     `json:"type"`
	EntityType *string    `json:"entity_type"`
	EntityID   *int64     `json:"entity_id"`
	Message    string     `json:"message"`
	IsRead     bool       `json:"is_read"`
	SeenAt     *time.Time `json:"seen_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func newListItem(n *Notification) ListItem {
	return ListItem{
		ID:        n.ID,
		Type:      string(n.Type),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		IsRead:    n.IsRead,
	}
}

func newDetailResponse(n *Notification) *DetailResponse {
	resp := &DetailResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.EntityType.Valid {
		resp.EntityType = &n.EntityType.String
	}
	if n.EntityID.Valid {
		resp.EntityID = &n.EntityID.Int64
	}
	if n.SeenAt.Valid {
		resp.SeenAt = &n.SeenAt.Time
	}
	return resp
}
