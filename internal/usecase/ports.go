package usecase

import (
	"context"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
)

// Row is a record together with its position in the table.
// Seq increases strictly with insertion order.
type Row struct {
	Seq    int64
	Record domain.Record
}

// RecordTable is the read side every table backend provides.
type RecordTable interface {
	// Rows returns up to limit rows with Seq > after, in Seq order.
	Rows(ctx context.Context, after int64, limit int) ([]Row, error)
	Get(ctx context.Context, id string) (domain.Record, error)
	Count(ctx context.Context) (int64, error)
}

// RowAppender is a table that appends natively and serializes writers itself.
type RowAppender interface {
	RecordTable
	AppendRow(ctx context.Context, record domain.Record) error
}

// TableRewriter is a table that can only be replaced as a whole.
// Callers must hold the table lock across ReadAll and WriteAll.
type TableRewriter interface {
	RecordTable
	Name() string
	ReadAll(ctx context.Context) ([]domain.Record, error)
	WriteAll(ctx context.Context, records []domain.Record) error
}

// AssetBackend stores asset bytes under their content hash.
type AssetBackend interface {
	Exists(ctx context.Context, hash string) (location string, ok bool, err error)
	Put(ctx context.Context, hash string, data []byte, contentType string) (location string, err error)
	Get(ctx context.Context, location string) ([]byte, error)
}

// AssetIndex records which location holds which content hash.
type AssetIndex interface {
	Lookup(ctx context.Context, hash string) (domain.Asset, bool, error)
	Save(ctx context.Context, asset domain.Asset) error
}

// Locker provides named exclusive sections. unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// EventPublisher fans record events out to realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event dishbook.Event) error
}
