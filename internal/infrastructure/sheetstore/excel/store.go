// Package excel implements the sheet store against a local workbook file,
// used for offline operation and tests. One worksheet per destination.
package excel

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
)

// Store is a port.SheetStore backed by an .xlsx file.
type Store struct {
	mu     sync.Mutex
	path   string
	sheets map[port.Destination]string
	logger *zap.Logger
}

// NewStore creates a store for the workbook at path. The file is created on
// first write when missing.
func NewStore(path string, sheets map[port.Destination]string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		sheets: sheets,
		logger: logger,
	}
}

// AppendRows appends rows below the last used row of the destination sheet.
func (s *Store) AppendRows(ctx context.Context, dest port.Destination, rows [][]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.sheetName(dest)
	if err != nil {
		return err
	}

	f, created, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	existing, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, len(existing)+1+i)
		if err != nil {
			return fmt.Errorf("address row: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", len(existing)+1+i, err)
		}
	}

	return s.save(f, created)
}

// RowCount returns the number of used rows in the destination sheet.
func (s *Store) RowCount(ctx context.Context, dest port.Destination) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.sheetName(dest)
	if err != nil {
		return 0, err
	}

	f, _, err := s.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return len(rows), nil
}

// UpdateCell writes a single cell at the 1-based row/column.
func (s *Store) UpdateCell(ctx context.Context, dest port.Destination, row, col int, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.sheetName(dest)
	if err != nil {
		return err
	}

	f, created, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("address cell: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}

	return s.save(f, created)
}

// open loads the workbook, creating it with the destination sheets when the
// file does not exist yet.
func (s *Store) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("open workbook %s: %w", s.path, err)
	}

	f = excelize.NewFile()
	keepDefault := false
	for _, name := range s.sheets {
		if name == "Sheet1" {
			keepDefault = true
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, false, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	if !keepDefault {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, false, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	s.logger.Info("Workbook created", zap.String("path", s.path))
	return f, true, nil
}

func (s *Store) save(f *excelize.File, created bool) error {
	if created {
		if err := f.SaveAs(s.path); err != nil {
			return fmt.Errorf("save workbook %s: %w", s.path, err)
		}
		return nil
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) sheetName(dest port.Destination) (string, error) {
	name, ok := s.sheets[dest]
	if !ok {
		return "", fmt.Errorf("no worksheet bound for destination %s", dest)
	}
	return name, nil
}
