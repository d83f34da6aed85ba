package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy_workbench/generator"
	"policy_workbench/policy"
	"policy_workbench/store"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type genFunc func(ctx context.Context, p generator.Prompt, model string, max int) (generator.Result, string, error)

func (f genFunc) GenerateJSON(ctx context.Context, p generator.Prompt, model string, max int) (generator.Result, string, error) {
	return f(ctx, p, model, max)
}

func newTestServer(t *testing.T, gen generator.Generator) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "meetings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	repo, err := policy.Open(context.Background(), st.DB(), policy.WithLocation(time.UTC))
	require.NoError(t, err)

	if gen == nil {
		agent, err := generator.NewAgent(generator.MockLLM{})
		require.NoError(t, err)
		gen = agent
	}
	srv, err := New(Options{
		Store:           st,
		Policies:        repo,
		Agent:           gen,
		Catalog:         generator.DefaultCatalog(),
		Model:           "mock",
		MaxOutputTokens: 3200,
		SessionTTL:      time.Hour,
		Now:             func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	return decode[errorEnvelope](t, w).Error
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	st := decode[sessionResp](t, w)
	require.NotEmpty(t, st.SessionID)
	return st.SessionID
}

func validRequest() map[string]any {
	return map[string]any{
		"meeting_title": "Weekly review",
		"meeting_date":  "2025-06-01",
		"meeting_time":  "09:30",
		"policy_title":  "Night bus expansion",
		"question":      "Should we extend night bus routes?",
		"keywords":      "transport, night",
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","records":0}`, w.Body.String())
}

func TestCatalog(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cat := decode[generator.Catalog](t, w)
	assert.Equal(t, generator.DefaultCatalog().VideoLengths, cat.VideoLengths)
}

func TestSessionLifecycle(t *testing.T) {
	srv, st := newTestServer(t, nil)
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	w := do(t, srv, http.MethodPost, base+"/generate", validRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	state := decode[sessionResp](t, w)
	assert.Equal(t, int64(1), state.RecordID)
	assert.False(t, state.Locked)
	require.NotNil(t, state.Payload)
	assert.Equal(t, generator.Keywords{"transport", "night"}, state.Payload.Keywords)
	assert.True(t, state.Payload.DecisiveMode, "omitted decisive_mode takes the session default")
	require.NotNil(t, state.Views)
	assert.Contains(t, state.Views.Summary, "Night bus expansion")

	w = do(t, srv, http.MethodPost, base+"/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[sessionResp](t, w).Locked)

	w = do(t, srv, http.MethodPost, base+"/generate", validRequest())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "locked", errorCode(t, w).Code)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = do(t, srv, http.MethodPost, base+"/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[sessionResp](t, w).Locked)

	w = do(t, srv, http.MethodPost, base+"/generate", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(2), decode[sessionResp](t, w).RecordID)

	w = do(t, srv, http.MethodPost, base+"/load/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[sessionResp](t, w).RecordID)

	w = do(t, srv, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state = decode[sessionResp](t, w)
	assert.Zero(t, state.RecordID)
	assert.Nil(t, state.Views)

	w = do(t, srv, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, srv, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session_not_found", errorCode(t, w).Code)
	assert.Equal(t, 0, srv.sessions.count())
}

func TestSessionErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	t.Run("missing input", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, base+"/generate", map[string]any{"meeting_title": "x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		e := errorCode(t, w)
		assert.Equal(t, "missing_input", e.Code)
		assert.ElementsMatch(t, []string{"policy_title", "question"}, e.Missing)
	})

	t.Run("invalid enum", func(t *testing.T) {
		req := validRequest()
		req["depth"] = "shallow"
		w := do(t, srv, http.MethodPost, base+"/generate", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"depth"}, errorCode(t, w).Invalid)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/generate", strings.NewReader("{"))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", errorCode(t, w).Code)
	})

	t.Run("lock without active record", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, base+"/lock", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "no_active_record", errorCode(t, w).Code)
	})

	t.Run("load unknown record", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, base+"/load/99", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", errorCode(t, w).Code)
	})

	t.Run("bad view mode", func(t *testing.T) {
		w := do(t, srv, http.MethodPut, base+"/preferences", map[string]any{"view_mode": "secret"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionPreferences(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	w := do(t, srv, http.MethodPut, base+"/preferences", map[string]any{"view_mode": "internal", "decisive_mode": false})
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[sessionResp](t, w)
	assert.Equal(t, generator.ViewInternal, state.ViewMode)
	assert.False(t, state.DecisiveMode)

	w = do(t, srv, http.MethodPost, base+"/generate", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[sessionResp](t, w).Payload.DecisiveMode)

	req := validRequest()
	req["decisive_mode"] = true
	w = do(t, srv, http.MethodPost, base+"/generate", req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[sessionResp](t, w).Payload.DecisiveMode)
}

func TestGenerateFailures(t *testing.T) {
	t.Run("parse failure carries raw text", func(t *testing.T) {
		srv, st := newTestServer(t, genFunc(func(context.Context, generator.Prompt, string, int) (generator.Result, string, error) {
			return nil, "still not json", nil
		}))
		id := createSession(t, srv)
		w := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/generate", validRequest())
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		e := errorCode(t, w)
		assert.Equal(t, "parse_failed", e.Code)
		assert.Equal(t, "still not json", e.Raw)

		n, err := st.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv, _ := newTestServer(t, genFunc(func(context.Context, generator.Prompt, string, int) (generator.Result, string, error) {
			return nil, "", &generator.TransportError{Attempt: "first", Err: errors.New("dial tcp: refused")}
		}))
		id := createSession(t, srv)
		w := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/generate", validRequest())
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "transport", errorCode(t, w).Code)
	})
}

func seedRecords(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	result := map[string]any{
		"meeting_summary": map[string]any{"one_liner": "Pilot first", "decision": "Go", "talk_track": []any{"a"}},
		"kpi":             map[string]any{"outcome_kpi": []any{map[string]any{"kpi": "Ridership"}}},
	}
	for _, e := range []store.Entry{
		{Date: "2025-06-01", Time: "09:00", Title: "Transit sync", Payload: map[string]any{"policy_title": "Night bus", "preset": "Transport", "target": "Commuters", "question": "Extend?"}, Result: result},
		{Date: "2025-06-03", Time: "14:00", Title: "Housing sync", Payload: map[string]any{"policy_title": "Rent cap"}, Result: result},
	} {
		_, err := st.Insert(ctx, e)
		require.NoError(t, err)
	}
}

func TestRecordsEndpoints(t *testing.T) {
	srv, st := newTestServer(t, nil)
	seedRecords(t, st)

	type listResp struct {
		Records []store.Summary `json:"records"`
	}

	w := do(t, srv, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[listResp](t, w).Records
	require.Len(t, rows, 1, "defaults to today")
	assert.Equal(t, "Transit sync", rows[0].Title)

	w = do(t, srv, http.MethodGet, "/api/records?date=2025-06-02", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[listResp](t, w).Records)
	assert.Contains(t, w.Body.String(), `"records":[]`)

	w = do(t, srv, http.MethodGet, "/api/records?year=2025&month=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[listResp](t, w).Records, 2)

	w = do(t, srv, http.MethodGet, "/api/records?year=2025&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/records/range?from=2025-06-01&to=2025-06-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows = decode[listResp](t, w).Records
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)

	w = do(t, srv, http.MethodGet, "/api/records/range?from=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/records/search?q=housing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows = decode[listResp](t, w).Records
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)

	w = do(t, srv, http.MethodGet, "/api/records/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[store.Record](t, w)
	assert.Equal(t, "Night bus", rec.Payload["policy_title"])

	w = do(t, srv, http.MethodGet, "/api/records/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodGet, "/api/records/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/records/1/views", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[generator.Views](t, w)
	assert.Contains(t, views.Summary, "Pilot first")
	assert.Contains(t, views.KPI, "Ridership")
}

func TestExportEndpoints(t *testing.T) {
	srv, st := newTestServer(t, nil)
	seedRecords(t, st)

	w := do(t, srv, http.MethodGet, "/api/records/1/export.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Transit sync")

	w = do(t, srv, http.MethodGet, "/api/records/1/export.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "meeting-1-2025-06-01.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(t, srv, http.MethodGet, "/api/records/1/export.zip", nil)
	require.Equal(t, http.StatusOK, w.Code)
	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "result_full.json")
	assert.Contains(t, names, "meta.txt")

	w = do(t, srv, http.MethodGet, "/api/records/9/export.zip", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportPDF_KoreanNeedsFont(t *testing.T) {
	srv, st := newTestServer(t, nil)
	_, err := st.Insert(context.Background(), store.Entry{Date: "2025-06-01", Time: "09:00", Title: "대기질 회의",
		Payload: map[string]any{}, Result: map[string]any{"meeting_summary": map[string]any{"one_liner": "학교부터 시작"}}})
	require.NoError(t, err)

	w := do(t, srv, http.MethodGet, "/api/records/1/export.pdf", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "font_required", errorCode(t, w).Code)
}

func TestPolicyEndpoints(t *testing.T) {
	srv, st := newTestServer(t, nil)
	seedRecords(t, st)

	w := do(t, srv, http.MethodPost, "/api/records/1/promote", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[policy.Policy](t, w)
	assert.Equal(t, "Night bus", p.Title)
	assert.Equal(t, "Transport", p.Category)
	assert.Equal(t, policy.StatusDraft, p.Status)

	type policiesResp struct {
		Policies []policy.Policy `json:"policies"`
	}
	w = do(t, srv, http.MethodGet, "/api/policies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[policiesResp](t, w).Policies, 1)

	w = do(t, srv, http.MethodGet, "/api/policies?q=night&category=Transport", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[policiesResp](t, w).Policies, 1)

	w = do(t, srv, http.MethodGet, "/api/policies?date=June", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/policies/" + jsonInt(p.ID)
	w = do(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, path+"/contents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var contents struct {
		Contents []policy.Content `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contents))
	assert.Len(t, contents.Contents, 2)

	w = do(t, srv, http.MethodPut, path+"/status", map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, policy.StatusApproved, decode[policy.Policy](t, w).Status)

	w = do(t, srv, http.MethodPut, path+"/status", map[string]any{"status": "shredded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_status", errorCode(t, w).Code)

	w = do(t, srv, http.MethodPut, path+"/metrics", map[string]any{"views": 120})
	require.Equal(t, http.StatusOK, w.Code)
	perf := decode[policy.Performance](t, w)
	assert.Equal(t, p.ID, perf.PolicyID)
	assert.JSONEq(t, `{"views":120}`, string(perf.MetricsData))

	w = do(t, srv, http.MethodGet, "/api/policies/77/contents", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodPut, "/api/policies/77/status", map[string]any{"status": "review"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
