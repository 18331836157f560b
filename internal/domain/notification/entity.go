package notification

import (
	"database/sql"
	"time"
)

// Type represents notification type
type Type string

const (
	TypePurchase Type = "PURCHASE"
	TypeExchange Type = "EXCHANGE"
	TypePoint    Type = "POINT"
)

// Entity types a notification can point at
const (
	EntityPurchase      = "purchase"
	EntityExchangeOffer = "exchange_offer"
	EntityPointHistory  = "point_history"
)

// MessagePointDraw is shown for box draw results
const MessagePointDraw = "랜덤포인트뽑기 결과가 도착했습니다."

// Notification represents a user notification
type Notification struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Type       Type           `db:"type"`
	EntityType sql.NullString `db:"entity_type"`
	EntityID   sql.NullInt64  `db:"entity_id"`
	Message    string         `db:"message"`
	IsRead     bool           `db:"is_read"`
	SeenAt     sql.NullTime   `db:"seen_at"`
	CreatedAt  time.Time      `db:"created_at"`
}
