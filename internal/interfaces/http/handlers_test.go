package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/application/service"
	"github.com/hokusei/nippo/internal/domain/entity"
	"github.com/hokusei/nippo/internal/domain/session"
	"github.com/hokusei/nippo/internal/sheets"
	"github.com/hokusei/nippo/pkg/utils"
)

type fakeStore struct {
	rows map[port.Destination][][]interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[port.Destination][][]interface{})}
}

func (f *fakeStore) AppendRows(_ context.Context, dest port.Destination, rows [][]interface{}) error {
	f.rows[dest] = append(f.rows[dest], rows...)
	return nil
}

func (f *fakeStore) RowCount(_ context.Context, dest port.Destination) (int, error) {
	return len(f.rows[dest]), nil
}

func (f *fakeStore) UpdateCell(_ context.Context, dest port.Destination, row, col int, value interface{}) error {
	return nil
}

type fakeJournal struct {
	subs []*entity.Submission
}

func (f *fakeJournal) Create(_ context.Context, sub *entity.Submission) error {
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeJournal) MarkStatus(_ context.Context, id, status, errorMessage string) error {
	for _, sub := range f.subs {
		if sub.ID == id {
			sub.Status = status
			sub.ErrorMessage = errorMessage
		}
	}
	return nil
}

func (f *fakeJournal) GetByID(_ context.Context, id string) (*entity.Submission, error) {
	for _, sub := range f.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("submission %s not found", id)
}

func (f *fakeJournal) ListRecent(_ context.Context, department string, limit int) ([]*entity.Submission, error) {
	var out []*entity.Submission
	for _, sub := range f.subs {
		if department == "" || sub.Department == department {
			out = append(out, sub)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	departments := entity.DefaultDepartments()
	store := newFakeStore()
	journal := &fakeJournal{}

	targets := make(map[string]service.DeptTarget, len(departments))
	for code := range departments {
		targets[code] = service.DeptTarget{Store: store, Mode: sheets.SummaryInline}
	}

	formService := service.NewFormService(targets, sheets.NewWriter(logger), journal, logger)
	manager := session.NewManager(logger)

	srv := NewServer(DefaultServerConfig(), departments, manager, formService, journal, utils.NewKVLogger(logger))
	return srv, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func sessionData(t *testing.T, resp Response) SessionResponse {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var sr SessionResponse
	require.NoError(t, json.Unmarshal(raw, &sr))
	return sr
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	w, resp := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestCreateSessionUnknownDepartment(t *testing.T) {
	srv, _ := newTestServer(t)

	w, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "painting"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestSessionHidesSlotsUntilWorkerChosen(t *testing.T) {
	srv, _ := newTestServer(t)

	w, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "cad"})
	require.Equal(t, http.StatusCreated, w.Code)

	sr := sessionData(t, resp)
	assert.NotEmpty(t, sr.ID)
	assert.Empty(t, sr.Worker)
	assert.Empty(t, sr.Slots)
	assert.NotEmpty(t, sr.Date)

	w, resp = doJSON(t, srv.Router(), http.MethodPut, "/api/sessions/"+sr.ID+"/fields",
		UpdateFieldsRequest{Worker: strPtr("鈴木")})
	require.Equal(t, http.StatusOK, w.Code)

	sr = sessionData(t, resp)
	assert.Equal(t, "鈴木", sr.Worker)
	assert.Len(t, sr.Slots, 1)
}

// Submit stays disabled until at least one record is complete, not just until
// a worker is chosen.
func TestSubmitControlRequiresCompleteRecord(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "cad"})
	sr := sessionData(t, resp)

	w, resp := doJSON(t, srv.Router(), http.MethodPut, "/api/sessions/"+sr.ID+"/fields",
		UpdateFieldsRequest{Worker: strPtr("富寛")})
	require.Equal(t, http.StatusOK, w.Code)

	sr = sessionData(t, resp)
	require.Equal(t, 0, sr.ValidRows)
	assert.False(t, sr.CanSubmit, "nothing complete yet")
	assert.True(t, sr.CanAddSlot)

	w, resp = doJSON(t, srv.Router(), http.MethodPut, "/api/sessions/"+sr.ID+"/fields",
		UpdateFieldsRequest{Slots: []SlotFields{{
			Index:     1,
			Customer:  "ジーテクト",
			JobType:   "新規",
			JobNumber: "51A111",
			Hours:     "1.5",
		}}})
	require.Equal(t, http.StatusOK, w.Code)

	sr = sessionData(t, resp)
	require.Equal(t, 1, sr.ValidRows)
	assert.True(t, sr.CanSubmit)
}

func TestUpdateFieldsRejectsUnknownWorker(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "cad"})
	sr := sessionData(t, resp)

	w, resp := doJSON(t, srv.Router(), http.MethodPut, "/api/sessions/"+sr.ID+"/fields",
		UpdateFieldsRequest{Worker: strPtr("大地")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestAddSlotStopsAtCap(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "cad"})
	sr := sessionData(t, resp)

	for i := 0; i < 12; i++ {
		w, _ := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions/"+sr.ID+"/slots", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/sessions/"+sr.ID, nil)
	sr = sessionData(t, resp)
	assert.Equal(t, 10, sr.SlotCount)
}

func TestSubmitFlow(t *testing.T) {
	srv, store := newTestServer(t)

	_, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "cad"})
	sr := sessionData(t, resp)

	w, resp := doJSON(t, srv.Router(), http.MethodPut, "/api/sessions/"+sr.ID+"/fields",
		UpdateFieldsRequest{
			Date:   strPtr("2025-01-10"),
			Worker: strPtr("鈴木"),
			Slots: []SlotFields{{
				Index:     1,
				Customer:  "ヨロズ",
				JobType:   "新規",
				JobNumber: "a123",
				Hours:     "1.5",
			}},
		})
	require.Equal(t, http.StatusOK, w.Code)

	sr = sessionData(t, resp)
	assert.Equal(t, 1, sr.ValidRows)
	assert.Equal(t, 1.5, sr.TotalHours)

	w, resp = doJSON(t, srv.Router(), http.MethodPost, "/api/sessions/"+sr.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result service.SubmitResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.RowCount)

	require.Len(t, store.rows[port.DestinationMain], 1)
	row := store.rows[port.DestinationMain][0]
	assert.Equal(t, "2025-01-10", row[0])
	assert.Equal(t, "鈴木", row[1])
	assert.Equal(t, "A123", row[4])

	// The success flag is one-shot: first read true, then cleared.
	_, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/sessions/"+sr.ID, nil)
	assert.True(t, sessionData(t, resp).JustSubmitted)
	_, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/sessions/"+sr.ID, nil)
	assert.False(t, sessionData(t, resp).JustSubmitted)

	// The attempt landed in the journal.
	w, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/submissions?department=cad", nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, err = json.Marshal(resp.Data)
	require.NoError(t, err)
	var subs []*entity.Submission
	require.NoError(t, json.Unmarshal(raw, &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, entity.SubmissionStatusWritten, subs[0].Status)

	// Each attempt is also addressable by its id.
	w, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/submissions/"+result.SubmissionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, err = json.Marshal(resp.Data)
	require.NoError(t, err)
	var sub entity.Submission
	require.NoError(t, json.Unmarshal(raw, &sub))
	assert.Equal(t, entity.SubmissionStatusWritten, sub.Status)

	w, resp = doJSON(t, srv.Router(), http.MethodGet, "/api/submissions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestSubmitWithoutWorker(t *testing.T) {
	srv, store := newTestServer(t)

	_, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions",
		CreateSessionRequest{Department: "finishing"})
	sr := sessionData(t, resp)

	w, resp := doJSON(t, srv.Router(), http.MethodPost, "/api/sessions/"+sr.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result service.SubmitResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.False(t, result.OK)
	assert.Empty(t, store.rows[port.DestinationMain])
}

func TestSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions/missing"},
		{http.MethodPost, "/api/sessions/missing/slots"},
		{http.MethodPost, "/api/sessions/missing/submit"},
	} {
		w, resp := doJSON(t, srv.Router(), tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, fmt.Sprintf("%s %s", tc.method, tc.path))
		assert.False(t, resp.Success)
	}
}

func strPtr(s string) *string {
	return &s
}
