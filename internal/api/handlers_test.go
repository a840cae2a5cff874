package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/careercompass/compass/internal/store"
	"github.com/careercompass/compass/internal/summary"
	"github.com/careercompass/compass/internal/validation"
)

// --- Mock Implementations for Testing ---

// mockStore implements store.Store for testing.
type mockStore struct {
	appendErr   error
	appendCalls int
	lastRecord  store.Record

	listResult []store.Record
	listErr    error

	rangeStart, rangeEnd string
}

func (m *mockStore) appendRecord(rec store.Record) error {
	m.appendCalls++
	m.lastRecord = rec
	return m.appendErr
}

func (m *mockStore) AppendEntry(ctx context.Context, rec store.Record) error { return m.appendRecord(rec) }
func (m *mockStore) ListEntries(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) EntriesByDateRange(ctx context.Context, start, end string) ([]store.Record, error) {
	m.rangeStart, m.rangeEnd = start, end
	return m.listResult, m.listErr
}
func (m *mockStore) AppendGoal(ctx context.Context, rec store.Record) error { return m.appendRecord(rec) }
func (m *mockStore) ListGoals(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) CurrentGoals(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendMilestone(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListMilestones(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) MilestoneRollups(ctx context.Context) (map[string]store.Rollup, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return map[string]store.Rollup{
		"G1": {GoalID: "G1", Done: 2, Total: 3, LatestCompletion: "2026-08-01"},
	}, nil
}
func (m *mockStore) AppendCompetency(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListCompetencies(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendMapping(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListMappings(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendGoalReview(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListGoalReviews(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendGoalEvaluation(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListGoalEvaluations(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendCompetencyEvaluation(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListCompetencyEvaluations(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}
func (m *mockStore) AppendReminderSetting(ctx context.Context, rec store.Record) error {
	return m.appendRecord(rec)
}
func (m *mockStore) ListReminderSettings(ctx context.Context) ([]store.Record, error) {
	return m.listResult, m.listErr
}

var _ store.Store = (*mockStore)(nil)

func newTestRouter(s store.Store) http.Handler {
	h := NewHandler(s, summary.Fallback{}, "test-key", "1.0.0")
	return NewRouter(h)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer test-key")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Health Endpoint Tests ---

func TestHealth_IsPublicAndHealthy(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", "", false)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
	if resp["version"] != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", resp["version"])
	}
}

// --- Auth Tests ---

func TestProtectedRoutes_RequireBearerToken(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodGet, "/api/v1/entries", "", false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem+json", ct)
	}
}

func TestProtectedRoutes_RejectWrongKey(t *testing.T) {
	router := newTestRouter(&mockStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// --- Append Endpoint Tests ---

func TestAppendEntry_Returns201AndDefaultsTimestamp(t *testing.T) {
	ms := &mockStore{}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodPost, "/api/v1/entries",
		`{"type":"accomplishment","text":"Shipped the importer"}`, true)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if ms.appendCalls != 1 {
		t.Errorf("appendCalls = %d, want 1", ms.appendCalls)
	}
	if ms.lastRecord["timestamp"] == "" || ms.lastRecord["date"] == "" {
		t.Errorf("record = %v, want timestamp and date defaulted", ms.lastRecord)
	}
}

func TestAppendEntry_InvalidJSONIs400(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodPost, "/api/v1/entries", `{not json`, true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAppend_ValidationErrorIs422WithFields(t *testing.T) {
	ms := &mockStore{appendErr: &store.RecordError{
		Sheet: "Accomplishments",
		Errors: []validation.ValidationError{
			{Field: "type", Message: `value "celebration" must be one of: accomplishment, task, idea`},
		},
	}}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodPost, "/api/v1/entries", `{"type":"celebration"}`, true)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
	var resp ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "type" {
		t.Errorf("errors = %v, want field-level detail", resp.Errors)
	}
}

func TestAppend_ProvisioningErrorIs503(t *testing.T) {
	ms := &mockStore{appendErr: store.ErrSheetMissing}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodPost, "/api/v1/goals", `{"goalid":"G1"}`, true)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if strings.Contains(w.Body.String(), "goalid") {
		t.Errorf("body %q leaks internal detail", w.Body.String())
	}
}

func TestAppend_UnknownErrorIs500WithGenericDetail(t *testing.T) {
	ms := &mockStore{appendErr: errors.New("token exchange failed: secret stuff")}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodPost, "/api/v1/entries",
		`{"type":"task","text":"x"}`, true)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret stuff") {
		t.Errorf("body %q leaks internal error detail", w.Body.String())
	}
}

// --- List Endpoint Tests ---

func TestListEntries_ReturnsItemsAndCount(t *testing.T) {
	ms := &mockStore{listResult: []store.Record{
		{"date": "2026-08-28", "text": "a"},
		{"date": "2026-08-27", "text": "b"},
	}}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodGet, "/api/v1/entries", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Items []store.Record `json:"items"`
		Count int            `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Errorf("count = %d items = %d, want 2/2", resp.Count, len(resp.Items))
	}
}

func TestListEntries_EmptyResultIsEmptyArray(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodGet, "/api/v1/entries", "", true)

	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want empty items array, not null", w.Body.String())
	}
}

func TestListEntries_DateRangeFilterPassesThrough(t *testing.T) {
	ms := &mockStore{}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodGet,
		"/api/v1/entries?start=2026-08-01&end=2026-08-15", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ms.rangeStart != "2026-08-01" || ms.rangeEnd != "2026-08-15" {
		t.Errorf("range = %q..%q, want passthrough", ms.rangeStart, ms.rangeEnd)
	}
}

func TestListEntries_BadDateFilterIs400(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodGet, "/api/v1/entries?start=yesterday", "", true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListGoals_CurrentViewUsesFold(t *testing.T) {
	ms := &mockStore{listResult: []store.Record{{"goalid": "G1", "title": "latest"}}}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodGet, "/api/v1/goals?view=current", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "latest") {
		t.Errorf("body = %s, want folded goals", w.Body.String())
	}
}

func TestMilestoneRollup_FormatsProgressStrings(t *testing.T) {
	router := newTestRouter(&mockStore{})

	w := doRequest(t, router, http.MethodGet, "/api/v1/goals/milestones/rollup", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Rollups map[string]string `json:"rollups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got := resp.Rollups["G1"]; got != "2/3 done (latest 2026-08-01)" {
		t.Errorf("rollup = %q, want formatted progress", got)
	}
}

// --- Summary Endpoint Tests ---

func TestEntriesSummary_UsesFallbackSummarizer(t *testing.T) {
	ms := &mockStore{listResult: []store.Record{
		{"date": "2026-08-28", "text": "Shipped the importer"},
	}}
	router := newTestRouter(ms)

	w := doRequest(t, router, http.MethodGet, "/api/v1/entries/summary?days=7", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Entries int    `json:"entries"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Entries != 1 {
		t.Errorf("entries = %d, want 1", resp.Entries)
	}
	if !strings.Contains(resp.Summary, "Shipped the importer") {
		t.Errorf("summary = %q, want entry text", resp.Summary)
	}
}

func TestEntriesSummary_RejectsBadDays(t *testing.T) {
	router := newTestRouter(&mockStore{})

	for _, q := range []string{"days=0", "days=91", "days=soon"} {
		w := doRequest(t, router, http.MethodGet, "/api/v1/entries/summary?"+q, "", true)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}
