package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
)

type mockBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	putErr  error
}

func newMockBackend() *mockBackend {
	return &mockBackend{objects: map[string][]byte{}}
}

func (m *mockBackend) Exists(ctx context.Context, hash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects["mem://"+hash]
	if !ok {
		return "", false, nil
	}
	return "mem://" + hash, true, nil
}

func (m *mockBackend) Put(ctx context.Context, hash string, data []byte, contentType string) (string, error) {
	// widen the window for concurrent callers
	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.puts++
	location := "mem://" + hash
	m.objects[location] = append([]byte(nil), data...)
	return location, nil
}

func (m *mockBackend) Get(ctx context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[location]
	if !ok {
		return nil, domain.NotFoundError{Resource: "object"}
	}
	return data, nil
}

func (m *mockBackend) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type mockIndex struct {
	mu     sync.Mutex
	assets map[string]domain.Asset
}

func newMockIndex() *mockIndex {
	return &mockIndex{assets: map[string]domain.Asset{}}
}

func (m *mockIndex) Lookup(ctx context.Context, hash string) (domain.Asset, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[hash]
	return a, ok, nil
}

func (m *mockIndex) Save(ctx context.Context, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[asset.ContentHash]; !ok {
		m.assets[asset.ContentHash] = asset
	}
	return nil
}

// mockRewriteTable only supports whole-table replacement and does not
// serialize anything itself, so lost updates show up without the lock.
type mockRewriteTable struct {
	mu       sync.Mutex
	records  []domain.Record
	writeErr error
	writes   int
	reads    int
}

func (m *mockRewriteTable) Name() string { return "mock" }

func (m *mockRewriteTable) ReadAll(ctx context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return append([]domain.Record(nil), m.records...), nil
}

func (m *mockRewriteTable) WriteAll(ctx context.Context, records []domain.Record) error {
	time.Sleep(100 * time.Microsecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.records = append([]domain.Record(nil), records...)
	return nil
}

func (m *mockRewriteTable) Rows(ctx context.Context, after int64, limit int) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []Row
	for i, r := range m.records {
		seq := int64(i + 1)
		if seq <= after {
			continue
		}
		if len(rows) == limit {
			break
		}
		rows = append(rows, Row{Seq: seq, Record: r})
	}
	return rows, nil
}

func (m *mockRewriteTable) Get(ctx context.Context, id string) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Record{}, domain.NotFoundError{Resource: "record"}
}

func (m *mockRewriteTable) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

// mockAppendTable appends natively.
type mockAppendTable struct {
	mockRewriteTable
	appends int
}

func (m *mockAppendTable) AppendRow(ctx context.Context, record domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	m.records = append(m.records, record)
	return nil
}

var _ RowAppender = (*mockAppendTable)(nil)
var _ TableRewriter = (*mockRewriteTable)(nil)

type mockLocker struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	acquired int
	released int
	fail     bool
}

func newMockLocker() *mockLocker {
	return &mockLocker{locks: map[string]*sync.Mutex{}}
}

func (m *mockLocker) Lock(ctx context.Context, name string) (func(), error) {
	m.mu.Lock()
	if m.fail {
		m.mu.Unlock()
		return nil, errors.New("lock unavailable")
	}
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.acquired++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		m.released++
		m.mu.Unlock()
	}, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []dishbook.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event dishbook.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func fakeJPEG(size int, seed byte) []byte {
	b := make([]byte, size)
	copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	for i := 11; i < size; i++ {
		b[i] = byte(i) ^ seed
	}
	return b
}

func fakePNG(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte("\x89PNG\r\n\x1a\n"))
	return b
}

func validFields() domain.Fields {
	return domain.Fields{Name: "Jollof Rice", Country: "Nigeria", State: "Lagos", Tribe: "Yoruba"}
}
