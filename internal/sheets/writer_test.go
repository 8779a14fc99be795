package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/domain/entity"
)

// fakeStore keeps rows in memory and can fail per destination.
type fakeStore struct {
	rows      map[port.Destination][][]interface{}
	patches   map[port.Destination]map[[2]int]interface{}
	failOn    map[port.Destination]error
	appendLog []port.Destination
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    make(map[port.Destination][][]interface{}),
		patches: make(map[port.Destination]map[[2]int]interface{}),
		failOn:  make(map[port.Destination]error),
	}
}

func (f *fakeStore) AppendRows(_ context.Context, dest port.Destination, rows [][]interface{}) error {
	if err := f.failOn[dest]; err != nil {
		return err
	}
	f.rows[dest] = append(f.rows[dest], rows...)
	f.appendLog = append(f.appendLog, dest)
	return nil
}

func (f *fakeStore) RowCount(_ context.Context, dest port.Destination) (int, error) {
	return len(f.rows[dest]), nil
}

func (f *fakeStore) UpdateCell(_ context.Context, dest port.Destination, row, col int, value interface{}) error {
	if f.patches[dest] == nil {
		f.patches[dest] = make(map[[2]int]interface{})
	}
	f.patches[dest][[2]int{row, col}] = value
	return nil
}

func records(n int) []entity.WorkRecord {
	recs := make([]entity.WorkRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, entity.WorkRecord{
			Slot:      i + 1,
			Customer:  "ジーテクト",
			JobType:   "新規",
			JobNumber: "51A111",
			Hours:     1.5,
		})
	}
	return recs
}

func TestBuildRowsShaping(t *testing.T) {
	recs := []entity.WorkRecord{
		{Customer: entity.CustomerOther, CustomerOther: "新星金型", JobType: "新規", JobNumber: "51A111", Hours: 1.5},
		{Customer: entity.CustomerMisc, JobType: "その他", JobNumber: "工場内清掃", Hours: 0.5},
	}

	rows := BuildRows("2025-01-10", "田中", recs, 2.0, true)
	require.Len(t, rows, 2)

	assert.Equal(t, []interface{}{"2025-01-10", "田中", "新星金型", "新規", "51A111", 1.5, ""}, rows[0])
	assert.Equal(t, []interface{}{"2025-01-10", "田中", entity.CustomerMisc, "", "工場内清掃", 0.5, "合計 2.00 時間"}, rows[1])
}

func TestBuildRowsWithoutSummaryColumn(t *testing.T) {
	rows := BuildRows("2025-01-10", "田中", records(2), 3.0, false)
	for _, row := range rows {
		assert.Len(t, row, 6)
	}
}

func TestSummaryOnLastRowOnly(t *testing.T) {
	const n = 4
	rows := BuildRows("2025-01-10", "田中", records(n), 6.0, true)

	for i, row := range rows {
		require.Len(t, row, 7)
		if i == n-1 {
			assert.Equal(t, "合計 6.00 時間", row[6])
		} else {
			assert.Equal(t, "", row[6])
		}
	}
}

func TestWriteInline(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(zap.NewNop())

	err := w.Write(context.Background(), store, "2025-01-10", "田中", []RowBatch{
		{Destination: port.DestinationMain, Records: records(2), Total: 3.0, Summary: true, Mode: SummaryInline},
	})
	require.NoError(t, err)

	rows := store.rows[port.DestinationMain]
	require.Len(t, rows, 2)
	assert.Equal(t, "合計 3.00 時間", rows[1][6])
	assert.Empty(t, store.patches[port.DestinationMain], "inline mode must not patch")
}

func TestWritePatchAddressesLastAppendedRow(t *testing.T) {
	store := newFakeStore()
	// Pre-existing rows from earlier submissions.
	require.NoError(t, store.AppendRows(context.Background(), port.DestinationMain, BuildRows("2025-01-09", "鈴木", records(3), 4.5, false)))

	w := NewWriter(zap.NewNop())
	err := w.Write(context.Background(), store, "2025-01-10", "田中", []RowBatch{
		{Destination: port.DestinationMain, Records: records(2), Total: 3.0, Summary: true, Mode: SummaryPatch},
	})
	require.NoError(t, err)

	// 3 existing + 2 appended: the patch lands on row 5, summary column 7.
	require.Len(t, store.patches[port.DestinationMain], 1)
	assert.Equal(t, "合計 3.00 時間", store.patches[port.DestinationMain][[2]int{5, SummaryColumn}])

	for _, row := range store.rows[port.DestinationMain][3:] {
		assert.Len(t, row, 6, "patch mode appends six-cell rows")
	}
}

func TestWriteRoutesPerDestination(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(zap.NewNop())

	err := w.Write(context.Background(), store, "2025-01-10", "大地", []RowBatch{
		{Destination: port.DestinationMain, Records: records(2), Total: 3.0, Summary: true, Mode: SummaryInline},
		{Destination: port.DestinationAuto, Records: records(1), Total: 1.5, Summary: false},
	})
	require.NoError(t, err)

	require.Len(t, store.rows[port.DestinationMain], 2)
	require.Len(t, store.rows[port.DestinationAuto], 1)
	assert.Len(t, store.rows[port.DestinationAuto][0], 6, "auto destination carries no summary column")
}

// A failure on the second destination leaves the first destination's rows
// durably written. A retry would append them again; the no-transaction design
// accepts this duplication risk.
func TestWritePartialFailureLeavesEarlierRows(t *testing.T) {
	store := newFakeStore()
	store.failOn[port.DestinationAuto] = errors.New("transport error")
	w := NewWriter(zap.NewNop())

	batches := []RowBatch{
		{Destination: port.DestinationMain, Records: records(2), Total: 3.0, Summary: true, Mode: SummaryInline},
		{Destination: port.DestinationAuto, Records: records(1), Total: 1.5, Summary: false},
	}

	err := w.Write(context.Background(), store, "2025-01-10", "大地", batches)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto")

	assert.Len(t, store.rows[port.DestinationMain], 2, "no rollback of the main destination")
	assert.Empty(t, store.rows[port.DestinationAuto])

	// Retrying the same batches duplicates the main rows.
	store.failOn = map[port.Destination]error{}
	require.NoError(t, w.Write(context.Background(), store, "2025-01-10", "大地", batches))
	assert.Len(t, store.rows[port.DestinationMain], 4, "retry is not idempotent")
}

func TestWriteSkipsEmptyBatches(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(zap.NewNop())

	err := w.Write(context.Background(), store, "2025-01-10", "田中", []RowBatch{
		{Destination: port.DestinationAuto, Records: nil, Total: 0},
	})
	require.NoError(t, err)
	assert.Empty(t, store.rows[port.DestinationAuto])
	assert.Empty(t, store.appendLog)
}
