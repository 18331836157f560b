package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memRepository struct {
	mu     sync.Mutex
	rows   map[int64]*Notification
	nextID int64
	now    time.Time
}

func newMemRepository() *memRepository {
	return &memRepository{rows: map[int64]*Notification{}, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memRepository) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.now = m.now.Add(time.Second)
	n.ID = m.nextID
	n.CreatedAt = m.now
	cp := *n
	m.rows[n.ID] = &cp
	return nil
}

func (m *memRepository) ListByUser(_ context.Context, userID int64, limit int) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.rows {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepository) CountUnreadByUser(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memRepository) TouchReadProgress(_ context.Context, id, userID int64) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, nil
	}
	if n.SeenAt.Valid {
		n.IsRead = true
	} else {
		n.SeenAt.Time, n.SeenAt.Valid = m.now, true
	}
	cp := *n
	return &cp, nil
}

func (m *memRepository) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, n := range m.rows {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(m.rows, id)
			deleted++
		}
	}
	return deleted, nil
}
