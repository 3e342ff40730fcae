package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pathakanu/vitalTrack/internal/analysis"
	"github.com/pathakanu/vitalTrack/internal/database"
	"github.com/pathakanu/vitalTrack/internal/model"
	"github.com/pathakanu/vitalTrack/internal/store"
)

var fixedNow = time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	clock := func() time.Time { return fixedNow }
	st := store.New(db, store.WithClock(clock), store.WithLocation(time.UTC))
	srv := New(st, log.New(io.Discard, "", 0), time.UTC, 7)
	srv.now = clock

	mux := http.NewServeMux()
	srv.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestCreateAndListMeals(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/api/meals", `{"name": "Pizza", "ingredients": "tomato, cheese", "timestamp": "2024-06-10T12:00:00Z"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created model.Meal
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Pizza", created.Name)
	assert.NotEmpty(t, created.ID)

	resp, body = do(t, ts, http.MethodGet, "/api/meals", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meals []model.Meal
	require.NoError(t, json.Unmarshal(body, &meals))
	require.Len(t, meals, 1)
	assert.Equal(t, "2024-06-10T12:00:00.000Z", meals[0].Timestamp)
}

func TestCreateValidationErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/api/meals", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "meal name is required")

	resp, _ = do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "acidity", "severity": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPost, "/api/symptoms", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCorrelationsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/meals", `{"name": "Pizza", "timestamp": "2024-06-10T09:00:00Z"}`)
	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "acidity", "severity": 6, "timestamp": "2024-06-10T12:00:00Z"}`)
	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "acidity", "severity": 3, "timestamp": "2024-06-08T12:00:00Z"}`)

	resp, body := do(t, ts, http.MethodGet, "/api/correlations?symptom=acidity", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got correlationsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 2, got.Occurrences)
	assert.Equal(t, []analysis.TriggerResult{{Trigger: "Pizza", OccurrenceCount: 1, Percentage: 50}}, got.Triggers)

	resp, body = do(t, ts, http.MethodGet, "/api/correlations?symptom=headache", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Empty(t, got.Triggers)
	assert.Contains(t, string(body), `"triggers":[]`)

	resp, _ = do(t, ts, http.MethodGet, "/api/correlations", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrendsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "headache", "severity": 4, "timestamp": "2024-06-10T08:00:00Z"}`)
	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "headache", "severity": 4, "timestamp": "2024-06-09T08:00:00Z"}`)

	resp, body := do(t, ts, http.MethodGet, "/api/trends", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var trend analysis.TrendSeries
	require.NoError(t, json.Unmarshal(body, &trend))
	assert.Len(t, trend.Labels, 7)
	assert.Equal(t, "Jun 10", trend.Labels[6])
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1}, trend.Series["headache"])

	resp, body = do(t, ts, http.MethodGet, "/api/trends?days=3&at=2024-06-11T08:00:00Z", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &trend))
	assert.Equal(t, []string{"Jun 9", "Jun 10", "Jun 11"}, trend.Labels)
	assert.Equal(t, []int{1, 1, 0}, trend.Series["headache"])

	resp, _ = do(t, ts, http.MethodGet, "/api/trends?days=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/trends?at=someday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboardEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/meals", `{"name": "Oats"}`)
	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "mood", "severity": 5}`)

	resp, body := do(t, ts, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got dashboardResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.MealsToday)
	assert.Equal(t, 1, got.SymptomsToday)
	assert.Len(t, got.Recent, 2)
}

func TestExportImportAndClear(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/meals", `{"name": "Pizza"}`)

	resp, exported := do(t, ts, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="vitaltrack_export_2024-06-10.json"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(exported), `"name": "Pizza"`)

	resp, body := do(t, ts, http.MethodPost, "/api/import", `{"symptoms": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "missing meals or symptoms")

	resp, _ = do(t, ts, http.MethodDelete, "/api/data", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = do(t, ts, http.MethodGet, "/api/meals", "")
	assert.JSONEq(t, `[]`, string(body))

	resp, body = do(t, ts, http.MethodPost, "/api/import", string(exported))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"meals": 1, "symptoms": 0}`, string(body))
}

func TestSettingsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	_, body := do(t, ts, http.MethodGet, "/api/settings", "")
	assert.JSONEq(t, `{"theme": "light"}`, string(body))

	resp, body := do(t, ts, http.MethodPut, "/api/settings", `{"theme": "dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"theme": "dark"}`, string(body))

	resp, _ = do(t, ts, http.MethodPut, "/api/settings", `{"theme": "sepia"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSymptomTypesEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/symptoms", `{"symptom": "acidity", "severity": 5}`)

	_, body := do(t, ts, http.MethodGet, "/api/symptom-types", "")
	var got symptomTypesResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Vocabulary, len(model.SymptomVocabulary()))
	assert.Equal(t, []string{"acidity"}, got.Logged)
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	do(t, ts, http.MethodPost, "/api/meals", `{"name": "Oats"}`)

	resp, body := do(t, ts, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vitaltrack_records_logged_total")
}
