package photocard

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/photocard/photocard-api/internal/pkg/storage"
)

type memUserCard struct {
	id, userID, cardID int64
	quantity           int
	createdAt          time.Time
}

// memRepository keeps cards in maps. Transactions hold the lock and restore
// a snapshot when fn fails.
type memRepository struct {
	mu        sync.Mutex
	cards     map[int64]*PhotoCard
	userCards []*memUserCard
	users     map[int64]bool
	nextCard  int64
	nextUC    int64
	now       func() time.Time
}

func newMemRepository(now func() time.Time) *memRepository {
	return &memRepository{cards: map[int64]*PhotoCard{}, users: map[int64]bool{}, now: now}
}

func (m *memRepository) GetByID(_ context.Context, id int64) (*PhotoCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepository) List(_ context.Context, cursor *int64, fetch int) ([]PhotoCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []PhotoCard{}
	for _, c := range m.cards {
		if cursor == nil || c.ID < *cursor {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > fetch {
		out = out[:fetch]
	}
	return out, nil
}

func (m *memRepository) Update(_ context.Context, id int64, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Genre != nil {
		c.Genre = *p.Genre
	}
	if p.Grade != nil {
		c.Grade = *p.Grade
	}
	if p.MinPrice != nil {
		c.MinPrice = *p.MinPrice
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.SetDescription {
		c.Description.Valid = p.Description != nil
		c.Description.String = ""
		if p.Description != nil {
			c.Description.String = *p.Description
		}
	}
	return nil
}

func (m *memRepository) gallery(userID int64, f GalleryFilter) []GalleryItem {
	var out []GalleryItem
	for _, uc := range m.userCards {
		c := m.cards[uc.cardID]
		if uc.userID != userID || uc.quantity == 0 {
			continue
		}
		if f.Grade != "" && c.Grade != f.Grade {
			continue
		}
		if f.Genre != "" && c.Genre != f.Genre {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Description.String), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, GalleryItem{
			UserCardID: uc.id, PhotoCardID: c.ID, Quantity: uc.quantity, AcquiredAt: uc.createdAt,
			Name: c.Name, Description: c.Description, Genre: c.Genre, Grade: c.Grade,
			MinPrice: c.MinPrice, ImageURL: c.ImageURL, CreatorUserID: c.CreatorUserID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserCardID > out[j].UserCardID })
	return out
}

func (m *memRepository) ListGallery(_ context.Context, userID int64, f GalleryFilter, limit, offset int) ([]GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.gallery(userID, f)
	if offset >= len(all) {
		return []GalleryItem{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memRepository) CountGallery(_ context.Context, userID int64, f GalleryFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gallery(userID, f)), nil
}

func (m *memRepository) SumQuantityByGrade(_ context.Context, userID int64) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, uc := range m.userCards {
		if uc.userID == userID {
			out[m.cards[uc.cardID].Grade] += uc.quantity
		}
	}
	return out, nil
}

func (m *memRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx CreateTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cards := make(map[int64]PhotoCard, len(m.cards))
	for id, c := range m.cards {
		cards[id] = *c
	}
	ucs := make([]memUserCard, len(m.userCards))
	for i, uc := range m.userCards {
		ucs[i] = *uc
	}
	nextCard, nextUC := m.nextCard, m.nextUC

	if err := fn(ctx, memTx{m}); err != nil {
		m.cards = map[int64]*PhotoCard{}
		for id := range cards {
			c := cards[id]
			m.cards[id] = &c
		}
		m.userCards = m.userCards[:0]
		for i := range ucs {
			uc := ucs[i]
			m.userCards = append(m.userCards, &uc)
		}
		m.nextCard, m.nextUC = nextCard, nextUC
		return err
	}
	return nil
}

// memTx runs with m.mu already held
type memTx struct{ m *memRepository }

func (t memTx) LockCreator(_ context.Context, userID int64) error {
	if !t.m.users[userID] {
		return ErrNotFound
	}
	return nil
}

func (t memTx) CountCreatedBetween(_ context.Context, userID int64, from, to time.Time) (int, error) {
	n := 0
	for _, c := range t.m.cards {
		if c.CreatorUserID == userID && !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (t memTx) FindDuplicate(_ context.Context, fp Fingerprint) (*PhotoCard, error) {
	for _, c := range t.m.cards {
		if c.Name == fp.Name && c.Description == fp.Description && c.Genre == fp.Genre &&
			c.Grade == fp.Grade && c.MinPrice == fp.MinPrice && c.ImageURL == fp.ImageURL {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (t memTx) Insert(_ context.Context, c *PhotoCard) error {
	t.m.nextCard++
	c.ID = t.m.nextCard
	c.CreatedAt = t.m.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	t.m.cards[c.ID] = &cp
	return nil
}

func (t memTx) AddUserCard(_ context.Context, userID, cardID int64, quantity int) (int64, error) {
	for _, uc := range t.m.userCards {
		if uc.userID == userID && uc.cardID == cardID {
			uc.quantity += quantity
			return uc.id, nil
		}
	}
	t.m.nextUC++
	t.m.userCards = append(t.m.userCards, &memUserCard{
		id: t.m.nextUC, userID: userID, cardID: cardID, quantity: quantity, createdAt: t.m.now(),
	})
	return t.m.nextUC, nil
}

func (t memTx) TotalQuantity(_ context.Context, cardID int64) (int, error) {
	n := 0
	for _, uc := range t.m.userCards {
		if uc.cardID == cardID {
			n += uc.quantity
		}
	}
	return n, nil
}

func (t memTx) SetTotalSupply(_ context.Context, cardID int64, total int) error {
	if total > MaxTotalSupply {
		return errSupplyCheck
	}
	t.m.cards[cardID].TotalSupply = total
	return nil
}

type fakeStorage struct {
	objects map[string]bool
}

func (f *fakeStorage) PresignPut(_ context.Context, key, contentType string) (*storage.PresignedUpload, error) {
	return &storage.PresignedUpload{
		UploadURL: "https://storage.test/" + key,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		Key:       key,
	}, nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeStorage) GetURL(key string) string { return "https://cdn.test/" + key }
