package point

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// memRepository is a Repository whose transactions are serialized by one
// mutex and whose writes become visible only on commit.
type memRepository struct {
	txMu sync.Mutex
	mu   sync.Mutex

	balances      map[int64]int64
	history       []HistoryEntry
	draws         []BoxDraw
	nextHistoryID int64
	nextDrawID    int64

	now            func() time.Time
	failInsertDraw error
	txCount        int
}

func newMemRepository(now func() time.Time) *memRepository {
	return &memRepository{balances: map[int64]int64{}, now: now}
}

func (m *memRepository) addUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[id] = 0
}

// seedHistory appends n committed earn entries of 1 point each.
func (m *memRepository) seedHistory(userID int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.nextHistoryID++
		m.history = append(m.history, HistoryEntry{ID: m.nextHistoryID, UserID: userID, Amount: 1, Type: HistoryTypeBoxDrawEarn, CreatedAt: m.now()})
		m.balances[userID]++
	}
}

func (m *memRepository) GetBalance(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	return b, nil
}

func (m *memRepository) ListHistory(_ context.Context, userID int64, cursor *int64, fetch int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []HistoryEntry{}
	for _, e := range m.history {
		if e.UserID == userID && (cursor == nil || e.ID < *cursor) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > fetch {
		out = out[:fetch]
	}
	return out, nil
}

func (m *memRepository) ListBoxDraws(_ context.Context, userID int64, cursor *int64, fetch int) ([]BoxDraw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []BoxDraw{}
	for _, d := range m.draws {
		if d.UserID == userID && (cursor == nil || d.ID < *cursor) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > fetch {
		out = out[:fetch]
	}
	return out, nil
}

func (m *memRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.txCount++
	m.mu.Unlock()

	tx := &memTx{repo: m, deltas: map[int64]int64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range tx.deltas {
		m.balances[id] += d
	}
	m.history = append(m.history, tx.history...)
	m.draws = append(m.draws, tx.draws...)
	return nil
}

func (m *memRepository) snapshot(userID int64) (balance int64, history []HistoryEntry, draws []BoxDraw) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.history {
		if e.UserID == userID {
			history = append(history, e)
		}
	}
	for _, d := range m.draws {
		if d.UserID == userID {
			draws = append(draws, d)
		}
	}
	return m.balances[userID], history, draws
}

type memTx struct {
	repo    *memRepository
	deltas  map[int64]int64
	history []HistoryEntry
	draws   []BoxDraw
}

func (t *memTx) LockBalance(_ context.Context, userID int64) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	b, ok := t.repo.balances[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	return b, nil
}

func (t *memTx) CooldownRemaining(_ context.Context, userID int64, cooldown time.Duration) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	var last *BoxDraw
	for i := range t.repo.draws {
		d := &t.repo.draws[i]
		if d.UserID == userID && (last == nil || d.ID > last.ID) {
			last = d
		}
	}
	if last == nil {
		return 0, nil
	}
	remaining := math.Ceil(last.CreatedAt.Add(cooldown).Sub(t.repo.now()).Seconds())
	if remaining < 0 {
		return 0, nil
	}
	return int64(remaining), nil
}

func (t *memTx) NextBoxDrawID(context.Context) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.repo.nextDrawID++
	return t.repo.nextDrawID, nil
}

func (t *memTx) InsertHistory(_ context.Context, entry HistoryEntry) (int64, error) {
	t.repo.mu.Lock()
	t.repo.nextHistoryID++
	entry.ID = t.repo.nextHistoryID
	entry.CreatedAt = t.repo.now()
	t.repo.mu.Unlock()

	t.history = append(t.history, entry)
	return entry.ID, nil
}

func (t *memTx) AddPoints(_ context.Context, userID, amount int64) error {
	t.deltas[userID] += amount
	return nil
}

func (t *memTx) InsertBoxDraw(_ context.Context, draw BoxDraw) error {
	if t.repo.failInsertDraw != nil {
		return t.repo.failInsertDraw
	}
	draw.CreatedAt = t.repo.now()
	t.draws = append(t.draws, draw)
	return nil
}

// fixedRandom returns values in order, repeating the last one.
type fixedRandom struct {
	mu     sync.Mutex
	values []int
}

func (f *fixedRandom) IntRange(min, max int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[0]
	if len(f.values) > 1 {
		f.values = f.values[1:]
	}
	return v, nil
}

// clock is a settable time source shared by the repository and the test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
