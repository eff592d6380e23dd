package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
	"github.com/custodia-labs/handover-core/internal/metrics"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	if token == "valid-token" {
		return &domain.AuthContext{UserID: "user-1", YachtID: "yacht-1", Role: domain.RoleEngineer}, nil
	}
	return nil, domain.ErrTokenInvalid
}

func (m *mockAuthService) IssueToken(ctx context.Context, req driving.IssueTokenRequest) (string, error) {
	return "", errors.New("not implemented")
}

type mockAggregationService struct {
	aggregateFn func(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error)
}

func (m *mockAggregationService) Aggregate(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockHandoverService struct {
	saveFn func(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error)
	editFn func(ctx context.Context, req driving.EditHandoverRequest) (*driving.EditHandoverResponse, error)
	getFn  func(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error)
	listFn func(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error)
}

func (m *mockHandoverService) Save(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockHandoverService) Edit(ctx context.Context, req driving.EditHandoverRequest) (*driving.EditHandoverResponse, error) {
	if m.editFn != nil {
		return m.editFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockHandoverService) Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, errors.New("not implemented")
}

func (m *mockHandoverService) List(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, yachtID, limit)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

type testServer struct {
	*Server
	aggregation *mockAggregationService
	handovers   *mockHandoverService
	store       *mockPinger
	metrics     *metrics.Metrics
}

func newTestServer() *testServer {
	ts := &testServer{
		aggregation: &mockAggregationService{},
		handovers:   &mockHandoverService{},
		store:       &mockPinger{},
		metrics:     metrics.New(),
	}
	ts.Server = NewServer(DefaultConfig(), &mockAuthService{}, ts.aggregation, ts.handovers, ts.store, nil, ts.metrics, nil)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Authorization", "Bearer valid-token")

	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, r)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeJSON(t, w, &resp)
	return resp.Error
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var resp StatusResponse
	decodeJSON(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
}

func TestHandleReady(t *testing.T) {
	ts := newTestServer()

	if w := ts.do(http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	ts.store.err = errors.New("connection refused")
	w := ts.do(http.MethodGet, "/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestHandleReady_CacheDown(t *testing.T) {
	ts := newTestServer()
	ts.Server = NewServer(DefaultConfig(), &mockAuthService{}, ts.aggregation, ts.handovers, ts.store, &mockPinger{err: errors.New("down")}, nil, nil)

	if w := ts.do(http.MethodGet, "/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodGet, "/version", "")

	var resp VersionResponse
	decodeJSON(t, w, &resp)
	if resp.Version != "dev" {
		t.Errorf("expected version dev, got %s", resp.Version)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer()

	ts.do(http.MethodGet, "/health", "")
	w := ts.do(http.MethodGet, "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "handover_http_request_duration_seconds") {
		t.Error("expected http duration histogram in metrics output")
	}
}

// Search

func TestHandleSearch(t *testing.T) {
	ts := newTestServer()

	var got domain.AggregateRequest
	ts.aggregation.aggregateFn = func(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error) {
		got = req
		return &domain.AggregateResponse{
			ResultSet: domain.NewResultSet(),
			Entities:  []domain.Entity{},
		}, nil
	}

	w := ts.do(http.MethodPost, "/api/v1/search", `{"query":"port engine","sources":["email"],"limit":5}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Query != "port engine" || got.Limit != 5 || len(got.Sources) != 1 {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.UserID != "user-1" || got.YachtID != "yacht-1" {
		t.Errorf("expected identity from token, got %s/%s", got.UserID, got.YachtID)
	}

	var body map[string]any
	decodeJSON(t, w, &body)
	for _, key := range []string{"primary", "secondary", "tertiary", "hidden", "handoverDraft", "handoverMetadata"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %q in response", key)
		}
	}
}

func TestHandleSearch_IdentityNotTakenFromBody(t *testing.T) {
	ts := newTestServer()

	var got domain.AggregateRequest
	ts.aggregation.aggregateFn = func(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error) {
		got = req
		return &domain.AggregateResponse{ResultSet: domain.NewResultSet()}, nil
	}

	ts.do(http.MethodPost, "/api/v1/search", `{"query":"x","UserID":"intruder","user_id":"intruder"}`)

	if got.UserID != "user-1" {
		t.Errorf("expected token identity, got %s", got.UserID)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", fmt.Errorf("%w: query is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"unknown source", fmt.Errorf("%w: \"fax\"", domain.ErrUnknownSource), http.StatusBadRequest},
		{"all back-ends down", fmt.Errorf("%w: boom", domain.ErrServiceUnavailable), http.StatusBadGateway},
		{"cancelled", context.Canceled, http.StatusGatewayTimeout},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.aggregation.aggregateFn = func(ctx context.Context, req domain.AggregateRequest) (*domain.AggregateResponse, error) {
				return nil, tt.err
			}

			w := ts.do(http.MethodPost, "/api/v1/search", `{"query":"x"}`)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodPost, "/api/v1/search", `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "invalid request body" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestHandleSearch_RequiresToken(t *testing.T) {
	ts := newTestServer()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(`{"query":"x"}`))
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

// Handovers

func TestHandleSaveHandover(t *testing.T) {
	ts := newTestServer()

	var got driving.SaveHandoverRequest
	ts.handovers.saveFn = func(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error) {
		got = req
		record := domain.NewHandoverRecord(req.Key, req.Draft, domain.HandoverStatusSaved)
		return &driving.SaveHandoverResponse{Record: record, State: domain.EditStateSaved}, nil
	}

	w := ts.do(http.MethodPost, "/api/v1/handovers",
		`{"solutionId":"sol-1","draft":{"system":"Port Main Engine","faultCode":"E047","durationMinutes":30},"state":"unsaved"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	want := domain.HandoverKey{UserID: "user-1", SolutionID: "sol-1", YachtID: "yacht-1"}
	if got.Key != want {
		t.Errorf("expected key %+v, got %+v", want, got.Key)
	}
	if got.Draft.System != "Port Main Engine" || got.Draft.DurationMinutes == nil || *got.Draft.DurationMinutes != 30 {
		t.Errorf("unexpected draft %+v", got.Draft)
	}
	if got.State != domain.EditStateUnsaved {
		t.Errorf("expected unsaved state, got %s", got.State)
	}

	var resp struct {
		Record domain.HandoverRecord `json:"record"`
		State  string                `json:"state"`
	}
	decodeJSON(t, w, &resp)
	if resp.State != "saved" {
		t.Errorf("expected state saved, got %s", resp.State)
	}
	if resp.Record.SolutionID != "sol-1" {
		t.Errorf("expected record for sol-1, got %s", resp.Record.SolutionID)
	}
}

func TestHandleSaveHandover_StoreFailureReturnsDraft(t *testing.T) {
	ts := newTestServer()

	ts.handovers.saveFn = func(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error) {
		return nil, &domain.SaveError{Key: req.Key, Draft: req.Draft, Err: errors.New("connection reset")}
	}

	w := ts.do(http.MethodPost, "/api/v1/handovers",
		`{"solutionId":"sol-1","draft":{"system":"Watermaker","symptoms":"low output"},"state":"editing"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}

	var resp SaveErrorResponse
	decodeJSON(t, w, &resp)
	if resp.Draft.System != "Watermaker" || resp.Draft.Symptoms != "low output" {
		t.Errorf("expected draft echoed back, got %+v", resp.Draft)
	}
	if resp.State != domain.EditStateEditing {
		t.Errorf("expected state to stay editing, got %s", resp.State)
	}
	if strings.Contains(resp.Error, "connection reset") {
		t.Error("store error details must not leak to clients")
	}
}

func TestHandleSaveHandover_Invalid(t *testing.T) {
	ts := newTestServer()
	ts.handovers.saveFn = func(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error) {
		return nil, fmt.Errorf("%w: solution id is required", domain.ErrInvalidInput)
	}

	w := ts.do(http.MethodPost, "/api/v1/handovers", `{"draft":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/v1/handovers", `{"state":"archived"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown state, got %d", w.Code)
	}
}

func TestHandleEditHandover(t *testing.T) {
	ts := newTestServer()

	var got driving.EditHandoverRequest
	ts.handovers.editFn = func(ctx context.Context, req driving.EditHandoverRequest) (*driving.EditHandoverResponse, error) {
		got = req
		return &driving.EditHandoverResponse{
			Record: &domain.HandoverRecord{SolutionID: req.Key.SolutionID},
			State:  domain.EditStateEditing,
		}, nil
	}

	w := ts.do(http.MethodPost, "/api/v1/handovers/edit", `{"solutionId":"sol-1","state":"saved"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.State != domain.EditStateSaved || got.Key.SolutionID != "sol-1" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestHandleEditHandover_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not saved", fmt.Errorf("%w: cannot edit from unsaved", domain.ErrInvalidTransition), http.StatusConflict},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.handovers.editFn = func(ctx context.Context, req driving.EditHandoverRequest) (*driving.EditHandoverResponse, error) {
				return nil, tt.err
			}

			w := ts.do(http.MethodPost, "/api/v1/handovers/edit", `{"solutionId":"sol-1","state":"unsaved"}`)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestHandleGetHandover(t *testing.T) {
	ts := newTestServer()

	var got domain.HandoverKey
	ts.handovers.getFn = func(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
		got = key
		if key.SolutionID == "missing" {
			return nil, domain.ErrNotFound
		}
		return &domain.HandoverRecord{ID: "h-1", SolutionID: key.SolutionID}, nil
	}

	w := ts.do(http.MethodGet, "/api/v1/handovers/sol-7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got != (domain.HandoverKey{UserID: "user-1", SolutionID: "sol-7", YachtID: "yacht-1"}) {
		t.Errorf("unexpected key %+v", got)
	}

	if w := ts.do(http.MethodGet, "/api/v1/handovers/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandleListHandovers(t *testing.T) {
	ts := newTestServer()

	var gotLimit int
	ts.handovers.listFn = func(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
		gotLimit = limit
		return []*domain.HandoverRecord{{ID: "a"}, {ID: "b"}}, nil
	}

	w := ts.do(http.MethodGet, "/api/v1/handovers?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotLimit != 10 {
		t.Errorf("expected limit 10, got %d", gotLimit)
	}

	var resp ListHandoversResponse
	decodeJSON(t, w, &resp)
	if resp.Count != 2 || resp.Handovers[0].ID != "a" {
		t.Errorf("unexpected response %+v", resp)
	}

	if w := ts.do(http.MethodGet, "/api/v1/handovers?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad limit, got %d", w.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	ts := newTestServer()

	if w := ts.do(http.MethodGet, "/api/v1/nothing", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
