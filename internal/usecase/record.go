package usecase

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/foodielens/dishbook/internal/domain"
)

// RecordUsecase is the append-only record store. Appends go straight to an
// append-native table, or through the table lock for whole-table backends.
type RecordUsecase struct {
	table  RecordTable
	locker Locker
	now    func() time.Time
	newID  func() (string, error)
}

func NewRecordUsecase(table RecordTable, locker Locker) *RecordUsecase {
	return &RecordUsecase{
		table:  table,
		locker: locker,
		now:    time.Now,
		newID:  newRecordID,
	}
}

func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (uc *RecordUsecase) Append(ctx context.Context, fields domain.Fields, ref domain.AssetRef) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Append")
	defer span.End()

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return domain.Record{}, err
	}
	if ref.IsZero() {
		return domain.Record{}, domain.ValidationError{Fields: []string{domain.FieldAsset}}
	}

	id, err := uc.newID()
	if err != nil {
		return domain.Record{}, domain.PersistenceError{Asset: ref, Err: errors.Wrap(err, "generate id")}
	}

	record := domain.Record{
		ID:          id,
		Name:        fields.Name,
		Description: fields.Description,
		Country:     fields.Country,
		State:       fields.State,
		Tribe:       fields.Tribe,
		Asset:       ref,
		CreatedAt:   uc.now().UTC(),
	}
	span.SetAttributes(attribute.String("record", record.ID))

	switch table := uc.table.(type) {
	case RowAppender:
		err = table.AppendRow(ctx, record)
	case TableRewriter:
		err = uc.rewrite(ctx, table, record)
	default:
		err = fmt.Errorf("table %T does not support appends", uc.table)
	}
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, domain.PersistenceError{Asset: ref, Err: err}
	}

	return record, nil
}

// rewrite runs the read-modify-write cycle under the table lock.
func (uc *RecordUsecase) rewrite(ctx context.Context, table TableRewriter, record domain.Record) error {
	if uc.locker == nil {
		return fmt.Errorf("table %s requires a locker", table.Name())
	}

	unlock, err := uc.locker.Lock(ctx, table.Name())
	if err != nil {
		return errors.Wrap(err, "acquire table lock")
	}
	defer unlock()

	records, err := table.ReadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "read table")
	}
	for _, existing := range records {
		if existing.ID == record.ID {
			return fmt.Errorf("duplicate record id %s", record.ID)
		}
	}

	records = append(records, record)
	if err := table.WriteAll(ctx, records); err != nil {
		return errors.Wrap(err, "write table")
	}
	return nil
}

func (uc *RecordUsecase) Get(ctx context.Context, id string) (domain.Record, error) {
	return uc.table.Get(ctx, id)
}

func (uc *RecordUsecase) Count(ctx context.Context) (int64, error) {
	return uc.table.Count(ctx)
}

// ListPage returns up to limit records after cursor. An empty cursor starts
// from the beginning; the returned Next is empty once the table is exhausted.
func (uc *RecordUsecase) ListPage(ctx context.Context, cursor string, limit int) (domain.Page, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.ListPage")
	defer span.End()

	after, err := DecodeCursor(cursor)
	if err != nil {
		return domain.Page{}, err
	}
	limit = ClampLimit(limit)

	rows, err := uc.table.Rows(ctx, after, limit+1)
	if err != nil {
		span.RecordError(err)
		return domain.Page{}, err
	}

	page := domain.Page{Records: make([]domain.Record, 0, min(len(rows), limit))}
	for i, row := range rows {
		if i == limit {
			page.Next = EncodeCursor(rows[i-1].Seq)
			break
		}
		page.Records = append(page.Records, row.Record)
	}
	return page, nil
}

// List yields every record in insertion order, fetching pageSize rows at a time.
// Tables that can only be read whole are read once per range instead.
// Each range over the sequence starts again from the first record.
func (uc *RecordUsecase) List(ctx context.Context, pageSize int) iter.Seq2[domain.Record, error] {
	pageSize = ClampLimit(pageSize)
	if _, native := uc.table.(RowAppender); !native {
		if table, ok := uc.table.(TableRewriter); ok {
			return listWhole(ctx, table)
		}
	}
	return func(yield func(domain.Record, error) bool) {
		var after int64
		for {
			rows, err := uc.table.Rows(ctx, after, pageSize)
			if err != nil {
				yield(domain.Record{}, err)
				return
			}
			for _, row := range rows {
				if !yield(row.Record, nil) {
					return
				}
				after = row.Seq
			}
			if len(rows) < pageSize {
				return
			}
		}
	}
}

func listWhole(ctx context.Context, table TableRewriter) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		records, err := table.ReadAll(ctx)
		if err != nil {
			yield(domain.Record{}, err)
			return
		}
		for _, record := range records {
			if !yield(record, nil) {
				return
			}
		}
	}
}

func EncodeCursor(seq int64) string {
	return strconv.FormatInt(seq, 10)
}

func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq < 0 {
		return 0, domain.ValidationError{Fields: []string{"cursor"}}
	}
	return seq, nil
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultPageSize
	}
	if limit > domain.MaxPageSize {
		return domain.MaxPageSize
	}
	return limit
}
