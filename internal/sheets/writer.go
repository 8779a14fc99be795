// Package sheets shapes submission batches into row tuples and writes them to
// the destination tables of the external store.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/domain/entity"
)

// SummaryMode selects how the trailing total reaches the sheet.
type SummaryMode string

const (
	// SummaryInline appends the total as a seventh cell of the last row.
	SummaryInline SummaryMode = "inline"
	// SummaryPatch appends six-cell rows, then patches the summary column of
	// the last appended row with a separate single-cell update. The target
	// row is computed from the row count observed before the append, so the
	// sequence is not atomic.
	SummaryPatch SummaryMode = "patch"
)

// SummaryColumn is the 1-based sheet column holding the per-batch total.
const SummaryColumn = 7

// RowBatch is one destination's share of a submission.
type RowBatch struct {
	Destination port.Destination
	Records     []entity.WorkRecord
	Total       float64
	// Summary stamps the trailing total on the batch's last row. Auxiliary
	// destinations skip it.
	Summary bool
	Mode    SummaryMode
}

// Writer writes shaped rows to a sheet store.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a writer.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// FormatSummary renders the trailing total cell.
func FormatSummary(total float64) string {
	return fmt.Sprintf("合計 %.2f 時間", total)
}

// BuildRows shapes records into positional row tuples:
// [date, worker, customer, job type, job number, hours(, summary)].
// With withSummary the last row carries the formatted total and every other
// row an empty string in that position.
func BuildRows(date, worker string, records []entity.WorkRecord, total float64, withSummary bool) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for i, rec := range records {
		row := []interface{}{
			date,
			worker,
			rec.EffectiveCustomer(),
			rec.EffectiveJobType(),
			rec.JobNumber,
			rec.Hours,
		}
		if withSummary {
			if i == len(records)-1 {
				row = append(row, FormatSummary(total))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Write appends each batch to its destination, stamping the trailing summary
// per destination. Batches are written in order; on failure the error is
// returned immediately and rows already appended to earlier destinations stay
// written; there is no rollback.
func (w *Writer) Write(ctx context.Context, store port.SheetStore, date, worker string, batches []RowBatch) error {
	for _, b := range batches {
		if len(b.Records) == 0 {
			continue
		}
		if err := w.writeBatch(ctx, store, date, worker, b); err != nil {
			return fmt.Errorf("destination %s: %w", b.Destination, err)
		}
	}
	return nil
}

func (w *Writer) writeBatch(ctx context.Context, store port.SheetStore, date, worker string, b RowBatch) error {
	inline := b.Summary && b.Mode != SummaryPatch

	var before int
	if b.Summary && !inline {
		// Observe the row count first so the patch can address the last
		// appended row.
		n, err := store.RowCount(ctx, b.Destination)
		if err != nil {
			return fmt.Errorf("row count: %w", err)
		}
		before = n
	}

	rows := BuildRows(date, worker, b.Records, b.Total, inline)
	if err := store.AppendRows(ctx, b.Destination, rows); err != nil {
		return fmt.Errorf("append %d rows: %w", len(rows), err)
	}

	if b.Summary && !inline {
		lastRow := before + len(rows)
		if err := store.UpdateCell(ctx, b.Destination, lastRow, SummaryColumn, FormatSummary(b.Total)); err != nil {
			return fmt.Errorf("patch summary at row %d: %w", lastRow, err)
		}
	}

	w.logger.Info("Batch written",
		zap.String("destination", string(b.Destination)),
		zap.Int("rows", len(b.Records)),
		zap.Float64("total_hours", b.Total),
		zap.Bool("summary", b.Summary))
	return nil
}
