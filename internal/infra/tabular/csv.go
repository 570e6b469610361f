// Package tabular encodes record tables as CSV: a header row followed by one
// UTF-8 row per record in insertion order.
package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
)

const utf8BOM = "\xef\xbb\xbf"

// Writer streams records as CSV. The header is written before the first row,
// or by Flush when no row was written.
type Writer struct {
	csv    *csv.Writer
	header bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

func (w *Writer) writeHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	return w.csv.Write(domain.TableColumns)
}

func (w *Writer) Write(record domain.Record) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.csv.Write([]string{
		record.ID,
		record.Name,
		record.Description,
		record.Country,
		record.State,
		record.Tribe,
		dishbook.ComposeAssetRef(record.Asset),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Encode writes a complete table.
func Encode(w io.Writer, records []domain.Record) error {
	tw := NewWriter(w)
	for _, r := range records {
		if err := tw.Write(r); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Decode reads a table written by Encode. Empty input is an empty table.
// A leading byte order mark, as left by spreadsheet exports, is skipped.
func Decode(r io.Reader) ([]domain.Record, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(domain.TableColumns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, domain.TableColumns) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var records []domain.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		ref, err := dishbook.ParseAssetRef(row[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, row[7])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid created_at: %w", line, err)
		}

		records = append(records, domain.Record{
			ID:          row[0],
			Name:        row[1],
			Description: row[2],
			Country:     row[3],
			State:       row[4],
			Tribe:       row[5],
			Asset:       ref,
			CreatedAt:   createdAt.UTC(),
		})
	}
}
