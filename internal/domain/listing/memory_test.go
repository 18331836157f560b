package listing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memCard struct {
	name, grade, genre string
}

// memRepository keeps listings in maps; transactions restore a snapshot on error
type memRepository struct {
	mu        sync.Mutex
	cards     map[int64]memCard
	userCards map[int64]*UserCard
	listings  map[int64]*Listing
	nextID    int64
}

func newMemRepository() *memRepository {
	return &memRepository{
		cards:     map[int64]memCard{},
		userCards: map[int64]*UserCard{},
		listings:  map[int64]*Listing{},
	}
}

func (m *memRepository) addUserCard(id, userID, cardID int64, quantity int, grade, genre string) {
	m.cards[cardID] = memCard{name: "card", grade: grade, genre: genre}
	m.userCards[id] = &UserCard{ID: id, UserID: userID, PhotoCardID: cardID, Quantity: quantity}
}

func (m *memRepository) view(l *Listing) View {
	c := m.cards[l.PhotoCardID]
	return View{Listing: *l, CardName: c.name, Grade: c.grade, Genre: c.genre, ImageURL: "/img.png"}
}

func (m *memRepository) GetByID(_ context.Context, id int64) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, nil
	}
	v := m.view(l)
	return &v, nil
}

func (m *memRepository) List(_ context.Context, f Filter, cursor *int64, fetch int) ([]View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []View{}
	for _, l := range m.listings {
		v := m.view(l)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.Grade != "" && v.Grade != f.Grade {
			continue
		}
		if f.Genre != "" && v.Genre != f.Genre {
			continue
		}
		if cursor != nil && v.ID >= *cursor {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > fetch {
		out = out[:fetch]
	}
	return out, nil
}

func (m *memRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[int64]Listing, len(m.listings))
	for id, l := range m.listings {
		snapshot[id] = *l
	}
	next := m.nextID

	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.listings = map[int64]*Listing{}
		for id, l := range snapshot {
			l := l
			m.listings[id] = &l
		}
		m.nextID = next
		return err
	}
	return nil
}

type memTx struct {
	m *memRepository
}

func (t *memTx) LockUserCard(_ context.Context, id int64) (*UserCard, error) {
	uc, ok := t.m.userCards[id]
	if !ok {
		return nil, nil
	}
	cp := *uc
	return &cp, nil
}

func (t *memTx) LockListing(_ context.Context, id int64) (*Listing, error) {
	l, ok := t.m.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (t *memTx) ListedQuantity(_ context.Context, userCardID, excludeID int64) (int, error) {
	n := 0
	for _, l := range t.m.listings {
		if l.UserCardID == userCardID && l.Status == StatusActive && l.ID != excludeID {
			n += l.RemainingQuantity
		}
	}
	return n, nil
}

func (t *memTx) Insert(_ context.Context, l *Listing) error {
	t.m.nextID++
	l.ID = t.m.nextID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	cp := *l
	t.m.listings[l.ID] = &cp
	return nil
}

func (t *memTx) UpdateTerms(_ context.Context, id int64, quantity, remaining int, price int64) error {
	l := t.m.listings[id]
	l.Quantity, l.RemainingQuantity, l.PricePerUnit = quantity, remaining, price
	return nil
}

func (t *memTx) SetStatus(_ context.Context, id int64, status Status) error {
	t.m.listings[id].Status = status
	return nil
}
