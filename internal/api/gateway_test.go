package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"schedule-orchestrator/internal/adapters/cache"
	"schedule-orchestrator/internal/adapters/engine"
	"schedule-orchestrator/internal/api/dto"
	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/ports"
	"schedule-orchestrator/internal/services"
)

const testToken = "test-token"

func newGateway(t *testing.T) (*httptest.Server, *engine.MockEngine) {
	t.Helper()

	store := cache.NewMemoryScheduleCache(5*time.Minute, time.Hour)
	eng := engine.NewMockEngine()
	orch := services.NewOrchestrator(store, eng, time.UTC).WithRetryBackoff(time.Millisecond)

	srv := httptest.NewServer(NewRouter(orch, time.UTC, testToken))
	t.Cleanup(srv.Close)

	return srv, eng
}

func do(t *testing.T, method, url, body string, authed bool) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func engineWeek() *domain.OptimizedSchedule {
	s := &domain.OptimizedSchedule{
		Days: map[string]domain.DaySchedule{
			"2026-03-02": {
				Date: "2026-03-02",
				Customers: []domain.ScheduleCustomer{
					{ID: "c1", Price: 45, RouteOrder: 1},
					{ID: "c2", Price: 45, RouteOrder: 2},
				},
				TotalDuration: 120,
				TotalRevenue:  90,
			},
		},
		CustomersFromDatabase: 7,
	}
	s.RecomputeSummaries()
	return s
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	srv, _ := newGateway(t)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1"}`, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGatewayHealthNeedsNoToken(t *testing.T) {
	srv, _ := newGateway(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "", false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGatewayOptimizeSuccessEnvelope(t *testing.T) {
	srv, eng := newGateway(t)
	eng.Enqueue(engineWeek(), nil)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1"}`, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body dto.OptimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !body.Success {
		t.Fatal("success should be true")
	}
	if !body.IsFirstTime {
		t.Fatal("first call should report is_first_time=true")
	}
	if len(body.ProtectedDates) != 0 {
		t.Fatalf("protected_dates = %v, want empty", body.ProtectedDates)
	}
	if body.Message == "" {
		t.Fatal("success envelope should carry a message")
	}
	if body.Data == nil {
		t.Fatal("success envelope should carry data")
	}
	if body.Data.CustomersFromDatabase != 7 {
		t.Fatalf("customers_from_database = %d, want 7", body.Data.CustomersFromDatabase)
	}
	if body.Data.Metrics.TotalCustomers != 2 {
		t.Fatalf("metrics total customers = %d, want 2", body.Data.Metrics.TotalCustomers)
	}
	if len(body.Data.FullSchedule) != 1 {
		t.Fatalf("full_schedule days = %d, want 1", len(body.Data.FullSchedule))
	}
}

func TestGatewayFirstTimeAndReturningMessagesDiffer(t *testing.T) {
	srv, eng := newGateway(t)
	eng.Enqueue(engineWeek(), nil)
	eng.Enqueue(engineWeek(), nil)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1"}`, true)
	var first dto.OptimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	resp = do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1"}`, true)
	var second dto.OptimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if second.IsFirstTime {
		t.Fatal("second call should report is_first_time=false")
	}
	if first.Message == second.Message {
		t.Fatal("first-time and returning-user messages should differ")
	}
}

func TestGatewayNoCustomersFailureEnvelope(t *testing.T) {
	srv, eng := newGateway(t)
	eng.Enqueue(nil, ports.ErrNoCustomers)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u2"}`, true)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var body dto.OptimizeErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Success {
		t.Fatal("failure envelope should have success=false")
	}
	if body.Code != "no_customers_found" {
		t.Fatalf("code = %q, want no_customers_found", body.Code)
	}
	if body.OptimizationType != "failed" {
		t.Fatalf("optimization_type = %q, want failed", body.OptimizationType)
	}
	if !strings.Contains(body.Error, "customers") {
		t.Fatalf("error message should mention customers, got %q", body.Error)
	}
}

func TestGatewayValidationFailure(t *testing.T) {
	srv, eng := newGateway(t)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize",
		`{"user_id":"u1","work_schedule":{"monday_hours":30}}`, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body dto.OptimizeErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Code != "validation_error" {
		t.Fatalf("code = %q, want validation_error", body.Code)
	}
	if eng.Calls() != 0 {
		t.Fatalf("engine calls = %d, want 0 before validation passes", eng.Calls())
	}
}

func TestGatewayUnreachableFailure(t *testing.T) {
	srv, eng := newGateway(t)
	eng.Enqueue(nil, ports.ErrUnreachable)
	eng.Enqueue(nil, ports.ErrUnreachable)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1"}`, true)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body dto.OptimizeErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Code != "engine_unreachable" {
		t.Fatalf("code = %q, want engine_unreachable", body.Code)
	}
}

func TestGatewayReadThroughAndClear(t *testing.T) {
	srv, eng := newGateway(t)
	eng.Enqueue(engineWeek(), nil)

	// First read populates via the engine; second is served from cache.
	resp := do(t, http.MethodGet, srv.URL+"/schedule?user_id=u1", "", true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/schedule?user_id=u1", "", true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if eng.Calls() != 1 {
		t.Fatalf("engine calls = %d, want 1 for two reads within TTL", eng.Calls())
	}

	// A hard refresh clears the entry; the next read needs the engine.
	resp = do(t, http.MethodDelete, srv.URL+"/schedule/cache?user_id=u1", "", true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", resp.StatusCode)
	}

	eng.Enqueue(engineWeek(), nil)
	resp = do(t, http.MethodGet, srv.URL+"/schedule?user_id=u1", "", true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if eng.Calls() != 2 {
		t.Fatalf("engine calls = %d, want 2 after a hard refresh", eng.Calls())
	}
}

func TestGatewayRejectsUnknownFields(t *testing.T) {
	srv, _ := newGateway(t)

	resp := do(t, http.MethodPost, srv.URL+"/schedule/optimize", `{"user_id":"u1","bogus":1}`, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
