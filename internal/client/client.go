// Package client is a typed HTTP client for the records API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/recordbook/internal/location"
	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/models"
)

const (
	// DefaultBaseURL is where a locally started server serves the API.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
)

// ErrNoResponse is wrapped when the server could not be reached.
var ErrNoResponse = errors.New("no response received from server")

// APIError is returned for every non-2xx response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   map[string]interface{}
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// FieldErrors returns the per-field messages of a validation failure.
func (e *APIError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Details))
	for k, v := range e.Details {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// AsAPIError unwraps err into *APIError when it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Client calls the records API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger logs every request and response at debug level.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the API rooted at baseURL (for example
// "http://localhost:5000/api"). An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListParams are the listing query parameters. Zero values are omitted.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	return q
}

// DeleteResult is the body of a successful delete.
type DeleteResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Health is the body of GET /health.
type Health struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	Uptime      float64 `json:"uptime"`
	Database    string  `json:"database"`
}

// ListRecords fetches one page of records.
func (c *Client) ListRecords(ctx context.Context, p ListParams) (*models.RecordPage, error) {
	var page models.RecordPage
	if err := c.do(ctx, http.MethodGet, "/records", p.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetRecord fetches a single record.
func (c *Client) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodGet, "/records/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateRecord stores a new record.
func (c *Client) CreateRecord(ctx context.Context, in models.RecordInput) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPost, "/records", nil, in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateRecord sends the non-nil fields of in.
func (c *Client) UpdateRecord(ctx context.Context, id string, in models.RecordInput) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(id), nil, in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, id string) (*DeleteResult, error) {
	var res DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/records/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CountRecords returns the total number of records.
func (c *Client) CountRecords(ctx context.Context) (int64, error) {
	var res struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/records/count/total", nil, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// RecordsByField lists records whose field (state, district, city or
// zipcode) contains value.
func (c *Client) RecordsByField(ctx context.Context, field, value string) ([]models.Record, error) {
	records := []models.Record{}
	path := "/records/" + url.PathEscape(field) + "/" + url.PathEscape(value)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordsByDateRange lists records dated between start and end inclusive.
// Both bounds are YYYY-MM-DD dates or RFC 3339 timestamps.
func (c *Client) RecordsByDateRange(ctx context.Context, start, end string) ([]models.Record, error) {
	records := []models.Record{}
	q := url.Values{"startDate": {start}, "endDate": {end}}
	if err := c.do(ctx, http.MethodGet, "/records/date-range", q, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// States lists the state names in table order.
func (c *Client) States(ctx context.Context) ([]string, error) {
	states := []string{}
	if err := c.do(ctx, http.MethodGet, "/location/states", nil, nil, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Districts lists the districts of state.
func (c *Client) Districts(ctx context.Context, state string) ([]string, error) {
	districts := []string{}
	if err := c.do(ctx, http.MethodGet, "/location/districts/"+url.PathEscape(state), nil, nil, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}

// Locations fetches the whole states/districts table keeping state order.
func (c *Client) Locations(ctx context.Context) (*location.Table, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/location/all", nil, nil, &raw); err != nil {
		return nil, err
	}
	return location.Parse(bytes.NewReader(raw))
}

// Health calls GET /health, which lives outside the /api prefix.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doURL(ctx, http.MethodGet, strings.TrimSuffix(c.baseURL, "/api")+"/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doURL(ctx, method, u, body, out)
}

func (c *Client) doURL(ctx context.Context, method, u string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("API request", map[string]interface{}{
		"method": method,
		"url":    u,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("API request failed", map[string]interface{}{
			"method": method,
			"url":    u,
			"error":  err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("API response", map[string]interface{}{
		"method": method,
		"url":    u,
		"status": resp.StatusCode,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// decodeAPIError reads the error envelope, falling back to a generic message
// per status when the body is not one.
func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var envelope struct {
		Error struct {
			Code      string                 `json:"code"`
			Message   string                 `json:"message"`
			Details   map[string]interface{} `json:"details"`
			RequestID string                 `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
		apiErr.RequestID = envelope.Error.RequestID
	}

	if apiErr.Message == "" {
		apiErr.Message = fallbackMessage(status)
	}
	return apiErr
}

func fallbackMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid data provided"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusInternalServerError:
		return "Internal server error occurred"
	default:
		return "An unexpected error occurred"
	}
}
