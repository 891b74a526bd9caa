package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/ports"
)

func validEngineBody() map[string]any {
	return map[string]any{
		"customers_from_database": 12,
		"schedule": map[string]any{
			"2026-03-02": map[string]any{
				"date":      "2026-03-02",
				"max_hours": 8,
				"customers": []map[string]any{
					{"id": "c1", "price": 45, "estimated_duration": 60, "route_order": 1},
					{"id": "c2", "price": 45, "estimated_duration": 60, "route_order": 2},
				},
				"total_duration": 120,
				"total_revenue":  90,
			},
		},
		"summary": map[string]any{
			"total_customers_scheduled": 2,
			"total_revenue":             90,
			"working_days":              1,
		},
		"time_savings_summary": map[string]any{
			"total_time_saved_minutes": 30,
		},
		"unscheduled_customers": 0,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-key", 2*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestOptimizeSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(validEngineBody())
	})

	ws := domain.DefaultWorkSchedule()
	schedule, err := client.Optimize(context.Background(), "u1", ws, domain.DefaultStartLocation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/optimize-schedule/u1" {
		t.Fatalf("path = %q, want /optimize-schedule/u1", gotPath)
	}
	if _, ok := gotBody["work_schedule"]; !ok {
		t.Fatal("request body missing work_schedule")
	}
	if _, ok := gotBody["cleaner_start_location"]; !ok {
		t.Fatal("request body missing cleaner_start_location")
	}

	if schedule.CustomersFromDatabase != 12 {
		t.Fatalf("customers_from_database = %d, want 12", schedule.CustomersFromDatabase)
	}
	day, ok := schedule.DayFor("2026-03-02")
	if !ok {
		t.Fatal("missing day 2026-03-02")
	}
	if len(day.Customers) != 2 {
		t.Fatalf("customers = %d, want 2", len(day.Customers))
	}
	// The submitted work schedule travels with the result.
	if schedule.WorkSchedule.MondayHours == nil || *schedule.WorkSchedule.MondayHours != 8 {
		t.Fatal("result should carry the submitted work schedule")
	}
}

func TestOptimizeClassifiesNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no customers", http.StatusNotFound)
	})

	_, err := client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrNoCustomers) {
		t.Fatalf("expected ErrNoCustomers, got %v", err)
	}
}

func TestOptimizeClassifiesEngineFault(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrEngineFault) {
		t.Fatalf("expected ErrEngineFault, got %v", err)
	}
}

func TestOptimizeClassifiesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	srv.Close() // nothing listens anymore

	_, err = client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestOptimizeTimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "", 30*time.Millisecond)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable on timeout, got %v", err)
	}
}

func TestOptimizeClassifiesUndecodableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"schedule": "not a map"`))
	})

	_, err := client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestOptimizeClassifiesContractViolations(t *testing.T) {
	// A route_order gap violates the wire contract even though the JSON
	// itself decodes fine.
	body := validEngineBody()
	day := body["schedule"].(map[string]any)["2026-03-02"].(map[string]any)
	day["customers"] = []map[string]any{
		{"id": "c1", "route_order": 1},
		{"id": "c2", "route_order": 3},
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})

	_, err := client.Optimize(context.Background(), "u1", domain.DefaultWorkSchedule(), domain.DefaultStartLocation())
	if !errors.Is(err, ports.ErrMalformed) {
		t.Fatalf("expected ErrMalformed on route_order gap, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  ", "", time.Second); err == nil {
		t.Fatal("empty base URL should be rejected")
	}
}
