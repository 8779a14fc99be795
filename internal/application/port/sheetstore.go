package port

import "context"

// Destination names a target table within one department's spreadsheet.
type Destination string

const (
	// DestinationMain receives regular work rows and the trailing summary.
	DestinationMain Destination = "main"
	// DestinationAuto receives automated-operation rows, without a summary.
	DestinationAuto Destination = "auto"
)

// SheetStore is the external tabular store for one department. Appends are
// assumed to serialize in arrival order on the remote side; the store offers
// no transactions, so multi-destination writes are not atomic.
type SheetStore interface {
	// AppendRows bulk-appends rows below the last used row of dest.
	AppendRows(ctx context.Context, dest Destination, rows [][]interface{}) error

	// RowCount returns the current number of used rows in dest. It is
	// observed before an append to address a trailing patch cell.
	RowCount(ctx context.Context, dest Destination) (int, error)

	// UpdateCell writes a single cell at the 1-based row/column of dest.
	UpdateCell(ctx context.Context, dest Destination, row, col int, value interface{}) error
}
