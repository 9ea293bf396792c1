package httpapi_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/cdc"
	"github.com/myyrakle/batchman/internal/containerrt"
	"github.com/myyrakle/batchman/internal/dbsetup"
	"github.com/myyrakle/batchman/internal/httpapi"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	taskDefs := repo.NewSQLiteTaskDefinitionRepository(db)
	jobs := repo.NewSQLiteJobRepository(db)
	scheds := repo.NewSQLiteScheduleRepository(db)
	bus := cdc.New(discardLogger())

	jobSvc := service.NewJobService(jobs, taskDefs, containerrt.NewFake(), discardLogger())
	scheduleSvc := service.NewScheduleService(scheds, taskDefs, bus, discardLogger())

	return httpapi.NewRouter(httpapi.Deps{
		DB:              db,
		TaskDefinitions: taskDefs,
		Jobs:            jobSvc,
		Schedules:       scheduleSvc,
		CORS:            httpapi.DefaultCORSConfig(),
		Logger:          discardLogger(),
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDatabaseCheck(t *testing.T) {
	h := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/database-check", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskDefinitionLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/task-definitions", map[string]any{
		"name":  "etl",
		"image": "busybox",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"]
	require.NotZero(t, id)

	rec = doRequest(t, h, http.MethodGet, "/api/task-definitions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/api/task-definitions/"+itoa(id), map[string]any{
		"enabled": false,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/task-definitions/"+itoa(id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/task-definitions/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobSubmitAndList(t *testing.T) {
	h := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/task-definitions", map[string]any{
		"name": "etl", "image": "busybox",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	tdID := created["id"]

	rec = doRequest(t, h, http.MethodPost, "/api/jobs/submit", map[string]any{
		"task_definition_id": tdID,
		"job_name":           "nightly",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Jobs       []map[string]any `json:"jobs"`
		TotalCount int64            `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.EqualValues(t, 1, listResp.TotalCount)
	assert.Equal(t, "nightly", listResp.Jobs[0]["name"])
}

func TestJobSubmit_UnknownTaskDefinitionReturns500(t *testing.T) {
	h := newTestRouter(t)
	rec := doRequest(t, h, http.MethodPost, "/api/jobs/submit", map[string]any{
		"task_definition_id": 999,
		"job_name":           "x",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TASK_DEFINITION_NOT_FOUND", body["error_code"])
}

func TestScheduleLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/task-definitions", map[string]any{
		"name": "etl", "image": "busybox",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	tdID := created["id"]

	rec = doRequest(t, h, http.MethodPost, "/api/schedules", map[string]any{
		"name":               "nightly",
		"job_name":           "nightly",
		"cron_expression":    "0 0 * * *",
		"task_definition_id": tdID,
		"enabled":            true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/schedules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduleCreate_InvalidCronReturns400(t *testing.T) {
	h := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/task-definitions", map[string]any{
		"name": "etl", "image": "busybox",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	tdID := created["id"]

	rec = doRequest(t, h, http.MethodPost, "/api/schedules", map[string]any{
		"name":               "bad",
		"job_name":           "bad",
		"cron_expression":    "garbage",
		"task_definition_id": tdID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticFallback(t *testing.T) {
	h := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "batchman")
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	h := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
