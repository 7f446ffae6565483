package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/dno/pkg/metrics"
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/services"
	"github.com/dukex/dno/pkg/testutil"
	"github.com/dukex/dno/pkg/web"
	"github.com/dukex/dno/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	reg := testutil.NewRegistry(t, testutil.CreateTestDefinition())
	engine := testutil.NewEngine(t, reg, workflow.Config{})
	collector := metrics.NewCollector(metrics.Namespace)

	handlers := web.NewAPIHandlers(
		services.NewUseCase(engine),
		services.NewTask(engine),
		services.NewClientAction(engine),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	app.Use(web.MetricsMiddleware(collector))
	app.Get("/metrics", web.MetricsHandler(collector))
	web.RegisterRoutes(app, handlers)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))

	return out
}

func startDummy(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, body := doRequest(t, app, http.MethodPost, "/use-cases/Dummy", web.StartUseCaseRequest{
		Attributes: testutil.DummyAttributes(),
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	return decode[web.StartUseCaseResponse](t, body).ID
}

func waitForActions(t *testing.T, app *fiber.App, taskID string) []models.ActionSnapshot {
	t.Helper()

	var actions []models.ActionSnapshot

	require.Eventually(t, func() bool {
		status, body := doRequest(t, app, http.MethodGet, "/tasks/"+taskID+"/actions", nil)
		if status != http.StatusOK {
			return false
		}

		actions = decode[[]models.ActionSnapshot](t, body)

		return len(actions) > 0
	}, 2*time.Second, 10*time.Millisecond)

	return actions
}

func TestAPIHandlers_UseCases(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/use-cases", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{testutil.DummyKind}, decode[[]string](t, body))

	status, body = doRequest(t, app, http.MethodGet, "/use-cases/Dummy", nil)
	require.Equal(t, http.StatusOK, status)

	descriptor := decode[map[string]any](t, body)
	assert.Equal(t, testutil.DummyKind, descriptor["kind"])
	assert.Len(t, descriptor["actions"], 1)

	status, _ = doRequest(t, app, http.MethodGet, "/use-cases/Missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_StartUseCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		requestBody    any
		expectedStatus int
		expectedType   string
		expectedFields []string
	}{
		{
			name:           "successful start",
			path:           "/use-cases/Dummy",
			requestBody:    web.StartUseCaseRequest{Attributes: testutil.DummyAttributes()},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown kind",
			path:           "/use-cases/Missing",
			requestBody:    web.StartUseCaseRequest{Attributes: testutil.DummyAttributes()},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "missing and unknown attributes",
			path:           "/use-cases/Dummy",
			requestBody:    web.StartUseCaseRequest{Attributes: map[string]any{"a": 1, "c": 2}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "construction_error",
			expectedFields: []string{"b", "c"},
		},
		{
			name:           "no body",
			path:           "/use-cases/Dummy",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "construction_error",
			expectedFields: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			status, body := doRequest(t, app, http.MethodPost, tt.path, tt.requestBody)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedStatus == http.StatusCreated {
				started := decode[web.StartUseCaseResponse](t, body)
				assert.NotEmpty(t, started.ID)
				assert.Equal(t, testutil.DummyKind, started.Kind)
				assert.Equal(t, models.UseCaseStatusRunning, started.Status)

				return
			}

			problem := decode[web.ValidationProblem](t, body)
			assert.Equal(t, tt.expectedType, problem.Type)
			assert.Equal(t, tt.expectedStatus, problem.Status)

			fields := make([]string, 0, len(problem.Fields))
			for _, f := range problem.Fields {
				fields = append(fields, f.Field)
			}

			if tt.expectedFields != nil {
				assert.Equal(t, tt.expectedFields, fields)
			}
		})
	}
}

func TestAPIHandlers_ClientActionRoundTrip(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	taskID := startDummy(t, app)

	actions := waitForActions(t, app, taskID)
	require.Len(t, actions, 1)

	actionID := actions[0].ID

	status, body := doRequest(t, app, http.MethodGet, "/actions/"+actionID, nil)
	require.Equal(t, http.StatusOK, status)
	action := decode[models.ActionSnapshot](t, body)
	assert.Equal(t, "get_vm", action.Name)
	assert.Equal(t, "abc", action.Args["z"])

	status, body = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/result", web.SetResultRequest{Result: testutil.DummyPayload()})
	require.Equal(t, http.StatusConflict, status)
	conflict := decode[web.ConflictProblem](t, body)
	assert.Equal(t, "pending", conflict.CurrentStatus)

	status, _ = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/running", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/result", web.SetResultRequest{Result: map[string]any{"a": "500"}})
	require.Equal(t, http.StatusBadRequest, status)
	invalid := decode[web.ValidationProblem](t, body)
	require.Len(t, invalid.Fields, 1)
	assert.Equal(t, "b", invalid.Fields[0].Field)

	status, _ = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/result", map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/result", web.SetResultRequest{Result: testutil.DummyPayload()})
	require.Equal(t, http.StatusOK, status, string(body))

	require.Eventually(t, func() bool {
		status, body := doRequest(t, app, http.MethodGet, "/tasks/"+taskID, nil)

		return status == http.StatusOK && decode[models.UseCaseSnapshot](t, body).Status == models.UseCaseStatusFinished
	}, 2*time.Second, 10*time.Millisecond)

	status, body = doRequest(t, app, http.MethodGet, "/tasks/"+taskID, nil)
	require.Equal(t, http.StatusOK, status)
	task := decode[map[string]any](t, body)
	assert.Equal(t, "500", task["result"].(map[string]any)["a"])

	status, body = doRequest(t, app, http.MethodGet, "/tasks?status=finished", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.UseCaseSnapshot](t, body), 1)

	status, _ = doRequest(t, app, http.MethodDelete, "/actions/"+actionID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/actions/"+actionID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_SetActionError(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	taskID := startDummy(t, app)
	actionID := waitForActions(t, app, taskID)[0].ID

	status, _ := doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/running", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/error", web.SetErrorRequest{Error: map[string]any{"reason": "denied"}})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.ActionStatusError, decode[models.ActionSnapshot](t, body).Status)

	status, _ = doRequest(t, app, http.MethodPost, "/actions/"+actionID+"/error", nil)
	assert.Equal(t, http.StatusConflict, status)

	require.Eventually(t, func() bool {
		_, body := doRequest(t, app, http.MethodGet, "/tasks/"+taskID, nil)

		return decode[models.UseCaseSnapshot](t, body).Status == models.UseCaseStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPIHandlers_NotFound(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks/nope"},
		{http.MethodGet, "/tasks/nope/actions"},
		{http.MethodGet, "/actions/nope"},
		{http.MethodPost, "/actions/nope/running"},
		{http.MethodPost, "/actions/nope/error"},
		{http.MethodDelete, "/actions/nope"},
	}

	for _, tt := range tests {
		status, body := doRequest(t, app, tt.method, tt.path, nil)
		assert.Equal(t, http.StatusNotFound, status, "%s %s", tt.method, tt.path)
		assert.Equal(t, "not_found", decode[map[string]any](t, body)["type"])
	}
}

func TestAPIHandlers_GetTasks_InvalidStatus(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/tasks?status=sleeping", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "status failed on 'oneof'")
}

func TestAPIHandlers_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])

	startDummy(t, app)

	status, body = doRequest(t, app, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "dno_http_requests_total")
}
