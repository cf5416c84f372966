package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
)

// API error codes the upstream uses for a dead trace.
const (
	codeInvalidSession = "INVALID_SESSION"
	codeTraceExpired   = "TRACE_EXPIRED"
)

type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RateLimitRPS int
	Limiter      *redis_rate.Limiter
}

// Client talks to the backend booking API. It shapes requests, attaches
// the trace id, translates failures into typed errors and nothing more:
// no retries, no shared state.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	limiter      *redis_rate.Limiter
	rateLimitRPS int
}

func NewClient(config Config) *Client {
	return &Client{
		baseURL:      config.BaseURL,
		apiKey:       config.APIKey,
		httpClient:   &http.Client{Timeout: config.Timeout},
		limiter:      config.Limiter,
		rateLimitRPS: config.RateLimitRPS,
	}
}

// SearchResult carries the supplier trace and the raw results payload;
// normalization is the caller's concern.
type SearchResult struct {
	TraceID string
	Payload json.RawMessage
}

type searchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	ReturnDate  string `json:"returnDate,omitempty"`
	TripType    string `json:"tripType"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	Infants     int    `json:"infants"`
	CabinClass  string `json:"cabinClass"`
}

type traceRequest struct {
	TraceID     string `json:"traceId"`
	ResultIndex string `json:"resultIndex"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Search(ctx context.Context, criteria itinerary.SearchCriteria) (SearchResult, error) {
	data, err := c.post(ctx, "/flights/search", searchRequest{
		Origin:      criteria.Origin,
		Destination: criteria.Destination,
		DepartDate:  criteria.DepartDate,
		ReturnDate:  criteria.ReturnDate,
		TripType:    criteria.TripType,
		Adults:      criteria.Adults,
		Children:    criteria.Children,
		Infants:     criteria.Infants,
		CabinClass:  criteria.CabinClass,
	})
	if err != nil {
		return SearchResult{}, err
	}

	traceID := extractTraceID(data)
	if traceID == "" {
		return SearchResult{}, SearchFailedError{Reason: "search response carries no trace id"}
	}

	return SearchResult{TraceID: traceID, Payload: data}, nil
}

func (c *Client) FareQuote(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	return c.tracedPost(ctx, "/flights/fare-quote", traceID, resultIndex)
}

func (c *Client) FareRule(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	return c.tracedPost(ctx, "/flights/fare-rule", traceID, resultIndex)
}

func (c *Client) SSR(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	return c.tracedPost(ctx, "/flights/ssr", traceID, resultIndex)
}

func (c *Client) tracedPost(ctx context.Context, path, traceID, resultIndex string) (json.RawMessage, error) {
	if traceID == "" {
		return nil, InvalidSessionError{Reason: "missing trace id, search first"}
	}

	return c.post(ctx, path, traceRequest{TraceID: traceID, ResultIndex: resultIndex})
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	if err := c.allow(ctx, path); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, SearchFailedError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, SearchFailedError{Reason: http.StatusText(resp.StatusCode), HTTPStatus: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, SearchFailedError{Reason: "unreadable response body", HTTPStatus: resp.StatusCode}
	}

	if !env.Success {
		return nil, translateAPIError(env.Error, resp.StatusCode)
	}

	return env.Data, nil
}

// allow applies the per-endpoint outbound rate limit. Calls against a
// paid aggregator get throttled before they leave the process.
func (c *Client) allow(ctx context.Context, path string) error {
	if c.limiter == nil || c.rateLimitRPS <= 0 {
		return nil
	}

	res, err := c.limiter.Allow(ctx, "supplier:limit:"+path, redis_rate.PerSecond(c.rateLimitRPS))
	if err != nil {
		return fmt.Errorf("failed to rate limit: %w", err)
	}

	if res.Allowed == 0 {
		return SearchFailedError{Reason: "outbound rate limit exhausted", HTTPStatus: http.StatusTooManyRequests}
	}

	return nil
}

func translateAPIError(apiErr *apiError, httpStatus int) error {
	if apiErr != nil {
		if apiErr.Code == codeInvalidSession || apiErr.Code == codeTraceExpired {
			return InvalidSessionError{Reason: apiErr.Message}
		}

		return SearchFailedError{Reason: apiErr.Message, HTTPStatus: httpStatus}
	}

	return SearchFailedError{Reason: "upstream reported failure", HTTPStatus: httpStatus}
}

func extractTraceID(data json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}

	for _, key := range []string{"traceId", "TraceId", "trace_id"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var traceID string
		if err := json.Unmarshal(raw, &traceID); err == nil && traceID != "" {
			return traceID
		}
	}

	return ""
}
