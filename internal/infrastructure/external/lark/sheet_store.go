// Package lark implements the sheet store against the Lark spreadsheet open
// API. The typed v3 SDK has no values endpoints, so the calls go through the
// SDK client's raw request mode with a cached tenant token.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
)

// Config holds the Lark app credentials and the spreadsheet binding of one
// department.
type Config struct {
	AppID            string
	AppSecret        string
	SpreadsheetToken string
	// Sheets maps destinations to worksheet ids within the spreadsheet.
	Sheets map[port.Destination]string
}

// SheetStore is a port.SheetStore backed by one Lark spreadsheet.
type SheetStore struct {
	client *lark.Client
	token  string
	sheets map[port.Destination]string
	logger *zap.Logger
}

// NewSheetStore creates a sheet store. The underlying HTTP client and its
// tenant token cache are shared for the process lifetime; no per-call
// re-authentication happens.
func NewSheetStore(cfg Config, logger *zap.Logger) *SheetStore {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &SheetStore{
		client: client,
		token:  cfg.SpreadsheetToken,
		sheets: cfg.Sheets,
		logger: logger,
	}
}

// NewSheetStoreWithClient creates a sheet store sharing an existing SDK
// client, so several departments reuse one token cache.
func NewSheetStoreWithClient(client *lark.Client, spreadsheetToken string, sheets map[port.Destination]string, logger *zap.Logger) *SheetStore {
	return &SheetStore{
		client: client,
		token:  spreadsheetToken,
		sheets: sheets,
		logger: logger,
	}
}

// apiEnvelope is the common open-API response envelope.
type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// AppendRows bulk-appends rows below the last used row of the destination
// worksheet.
func (s *SheetStore) AppendRows(ctx context.Context, dest port.Destination, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	sheetID, err := s.sheetID(dest)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"valueRange": map[string]interface{}{
			"range":  fmt.Sprintf("%s!A:%s", sheetID, columnName(len(rows[0]))),
			"values": rows,
		},
	}

	path := fmt.Sprintf("/open-apis/sheets/v2/spreadsheets/%s/values_append", s.token)
	if _, err := s.call(ctx, "POST", path, body); err != nil {
		return fmt.Errorf("append rows to %s: %w", dest, err)
	}

	s.logger.Debug("Appended rows",
		zap.String("destination", string(dest)),
		zap.Int("count", len(rows)))
	return nil
}

// RowCount returns the number of used rows, observed by reading the first
// column of the destination worksheet.
func (s *SheetStore) RowCount(ctx context.Context, dest port.Destination) (int, error) {
	sheetID, err := s.sheetID(dest)
	if err != nil {
		return 0, err
	}

	path := fmt.Sprintf("/open-apis/sheets/v2/spreadsheets/%s/values/%s!A:A", s.token, sheetID)
	data, err := s.call(ctx, "GET", path, nil)
	if err != nil {
		return 0, fmt.Errorf("row count of %s: %w", dest, err)
	}

	var out struct {
		ValueRange struct {
			Values [][]interface{} `json:"values"`
		} `json:"valueRange"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode row count response: %w", err)
	}
	return len(out.ValueRange.Values), nil
}

// UpdateCell writes a single cell, used for the patched trailing summary.
func (s *SheetStore) UpdateCell(ctx context.Context, dest port.Destination, row, col int, value interface{}) error {
	sheetID, err := s.sheetID(dest)
	if err != nil {
		return err
	}

	cell := fmt.Sprintf("%s%d", columnName(col), row)
	body := map[string]interface{}{
		"valueRange": map[string]interface{}{
			"range":  fmt.Sprintf("%s!%s:%s", sheetID, cell, cell),
			"values": [][]interface{}{{value}},
		},
	}

	path := fmt.Sprintf("/open-apis/sheets/v2/spreadsheets/%s/values", s.token)
	if _, err := s.call(ctx, "PUT", path, body); err != nil {
		return fmt.Errorf("update cell %s of %s: %w", cell, dest, err)
	}
	return nil
}

// call performs a raw open-API request and unwraps the response envelope.
func (s *SheetStore) call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var resp *larkcore.ApiResp
	var err error

	switch method {
	case "GET":
		resp, err = s.client.Get(ctx, path, body, larkcore.AccessTokenTypeTenant)
	case "PUT":
		resp, err = s.client.Put(ctx, path, body, larkcore.AccessTokenTypeTenant)
	default:
		resp, err = s.client.Post(ctx, path, body, larkcore.AccessTokenTypeTenant)
	}
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(resp.RawBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Code != 0 {
		return nil, fmt.Errorf("lark api error %d: %s", envelope.Code, envelope.Msg)
	}
	return envelope.Data, nil
}

func (s *SheetStore) sheetID(dest port.Destination) (string, error) {
	id, ok := s.sheets[dest]
	if !ok {
		return "", fmt.Errorf("no worksheet bound for destination %s", dest)
	}
	return id, nil
}

// columnName converts a 1-based column index to its letter name (7 -> "G").
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
