package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/platform/obs"
	"schedule-orchestrator/internal/ports"
)

// DefaultTimeout bounds a single engine call, independent of any
// caller-side deadline.
const DefaultTimeout = 30 * time.Second

// Client implements ports.OptimizationEngine over the engine's HTTP API.
//
// It serializes requests per the wire contract, bounds each call with its
// own timeout, validates the response shape, and classifies failures into
// the closed taxonomy in ports. It performs no retries; retry policy
// belongs to the orchestrator. Safe for concurrent use.
type Client struct {
	session *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("engine client: base URL is empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
	}, nil
}

// Request body for POST /optimize-schedule/{userID}.
type optimizeRequest struct {
	WorkSchedule         domain.WorkSchedule  `json:"work_schedule"`
	CleanerStartLocation domain.StartLocation `json:"cleaner_start_location"`
}

// Success body returned by the engine.
type optimizeResponse struct {
	CustomersFromDatabase int                           `json:"customers_from_database"`
	Schedule              map[string]domain.DaySchedule `json:"schedule"`
	Summary               domain.ScheduleSummary        `json:"summary"`
	TimeSavingsSummary    domain.TimeSavingsSummary     `json:"time_savings_summary"`
	UnscheduledCustomers  int                           `json:"unscheduled_customers"`
}

// Optimize requests a schedule for one user and returns the normalized
// result, or one of the ports sentinel errors.
func (c *Client) Optimize(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (_ *domain.OptimizedSchedule, err error) {
	defer obs.Time(ctx, "engine.Optimize")(&err)

	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("engine optimize: userID must be non-empty")
	}

	body, err := json.Marshal(optimizeRequest{
		WorkSchedule:         ws,
		CleanerStartLocation: start,
	})
	if err != nil {
		return nil, fmt.Errorf("engine optimize: marshal request: %w", err)
	}

	// Per-call deadline, distinct from whatever the caller carries.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/optimize-schedule/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("engine optimize: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		// Transport failures and fired deadlines both mean the engine
		// never produced a response.
		return nil, fmt.Errorf("engine optimize: %w: %v", ports.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var decoded optimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("engine optimize: %w: decode body: %v", ports.ErrMalformed, err)
	}

	schedule := &domain.OptimizedSchedule{
		WorkSchedule:          ws,
		Days:                  decoded.Schedule,
		Summary:               decoded.Summary,
		TimeSavings:           decoded.TimeSavingsSummary,
		UnscheduledCustomers:  decoded.UnscheduledCustomers,
		CustomersFromDatabase: decoded.CustomersFromDatabase,
	}
	if schedule.Days == nil {
		schedule.Days = map[string]domain.DaySchedule{}
	}

	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("engine optimize: %w: %v", ports.ErrMalformed, err)
	}

	return schedule, nil
}

// classifyStatus maps non-200 responses onto the closed error taxonomy.
// The body excerpt is carried for diagnosis, never for control flow.
func classifyStatus(resp *http.Response) error {
	excerpt := readExcerpt(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("engine optimize: %w", ports.ErrNoCustomers)
	case resp.StatusCode >= 500:
		return fmt.Errorf("engine optimize: %w: status %d: %s", ports.ErrEngineFault, resp.StatusCode, excerpt)
	default:
		return fmt.Errorf("engine optimize: %w: unexpected status %d: %s", ports.ErrEngineFault, resp.StatusCode, excerpt)
	}
}

func readExcerpt(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
