package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"eventhub/models"
)

// EventsAPI is what the form and the list need from the JSON API.
type EventsAPI interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, in models.InsertEvent) (models.Event, error)
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Errors  []models.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type clientIPKey struct{}

// WithClientIP makes APIClient calls made with ctx forward ip in
// X-Forwarded-For, so the API limits the browser and not this server.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// APIClient talks to /api over HTTP.
type APIClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewAPIClient(baseURL string, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ EventsAPI = (*APIClient)(nil)

func (c *APIClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := c.do(req, http.StatusOK, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (c *APIClient) CreateEvent(ctx context.Context, in models.InsertEvent) (models.Event, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return models.Event{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/events", bytes.NewReader(body))
	if err != nil {
		return models.Event{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var event models.Event
	if err := c.do(req, http.StatusCreated, &event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

func (c *APIClient) do(req *http.Request, want int, out any) error {
	if ip, _ := req.Context().Value(clientIPKey{}).(string); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("API request failed", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Error(err))
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string              `json:"message"`
			Errors  []models.FieldError `json:"errors"`
		}
		if data, _ := io.ReadAll(resp.Body); json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Errors = payload.Errors
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("API returned error", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode API response", zap.Error(err))
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
