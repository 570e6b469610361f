package repository

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/tabular"
	"github.com/foodielens/dishbook/internal/usecase"
)

// FileStore holds whole files by name. ReadFile returns nil for a file that
// has never been written.
type FileStore interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
}

// CSVTable keeps the record table as one CSV file in a FileStore. It can only
// be replaced as a whole, so appends go through the record usecase's table lock.
type CSVTable struct {
	files FileStore
	name  string
}

func NewCSVTable(files FileStore, name string) *CSVTable {
	return &CSVTable{files: files, name: name}
}

func (t *CSVTable) Name() string {
	return t.name
}

func (t *CSVTable) ReadAll(ctx context.Context) ([]domain.Record, error) {
	data, err := t.files.ReadFile(ctx, t.name)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", t.name)
	}
	records, err := tabular.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", t.name)
	}
	return records, nil
}

func (t *CSVTable) WriteAll(ctx context.Context, records []domain.Record) error {
	var buf bytes.Buffer
	if err := tabular.Encode(&buf, records); err != nil {
		return errors.Wrapf(err, "encode %s", t.name)
	}
	return errors.Wrapf(t.files.WriteFile(ctx, t.name, buf.Bytes()), "write %s", t.name)
}

// Rows numbers records by their line in the file, starting at 1.
func (t *CSVTable) Rows(ctx context.Context, after int64, limit int) ([]usecase.Row, error) {
	records, err := t.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var rows []usecase.Row
	for i := after; i < int64(len(records)) && len(rows) < limit; i++ {
		rows = append(rows, usecase.Row{Seq: i + 1, Record: records[i]})
	}
	return rows, nil
}

func (t *CSVTable) Get(ctx context.Context, id string) (domain.Record, error) {
	records, err := t.ReadAll(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Record{}, domain.NotFoundError{Resource: "record"}
}

func (t *CSVTable) Count(ctx context.Context) (int64, error) {
	records, err := t.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

var _ usecase.TableRewriter = (*CSVTable)(nil)
