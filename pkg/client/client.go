package client

import (
	"bufio"
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

	"github.com/vyvo/trafficlight/pkg/api"
	"github.com/vyvo/trafficlight/pkg/feed"
	"github.com/vyvo/trafficlight/pkg/registry"
)

var (
	// ErrNotFound is returned when the service does not know the junction.
	ErrNotFound = errors.New("junction not found")
	// ErrInvalidData is returned when the service rejects an update.
	ErrInvalidData = errors.New("invalid data")
)

// Client talks to the traffic light service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetJunction fetches the current state of one junction.
func (c *Client) GetJunction(ctx context.Context, id string) (registry.Junction, error) {
	endpoint := fmt.Sprintf("%s/traffic_light/%s", c.baseURL, url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return registry.Junction{}, fmt.Errorf("create get request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return registry.Junction{}, fmt.Errorf("get junction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return registry.Junction{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return registry.Junction{}, unexpectedStatus("get junction", resp)
	}

	var out registry.Junction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return registry.Junction{}, fmt.Errorf("decode junction: %w", err)
	}
	return out, nil
}

// UpdateJunction creates or replaces a junction's state.
func (c *Client) UpdateJunction(ctx context.Context, id string, j registry.Junction) error {
	body, err := json.Marshal(api.UpdateRequest{JunctionID: id, Status: j.Status, TimeLeft: j.TimeLeft})
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	endpoint := c.baseURL + "/update_traffic_light"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create update request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("update junction: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return ErrInvalidData
	default:
		return unexpectedStatus("update junction", resp)
	}
}

// ListJunctions fetches every junction keyed by identifier.
func (c *Client) ListJunctions(ctx context.Context) (map[string]registry.Junction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/traffic_lights", nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list junctions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus("list junctions", resp)
	}

	var out map[string]registry.Junction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode junction list: %w", err)
	}
	return out, nil
}

// Watch follows the update stream, invoking fn for every event until ctx is
// cancelled, the server closes the stream, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(feed.Event) error) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/traffic_lights/stream", nil)
	if err != nil {
		return fmt.Errorf("create stream request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	// The stream outlives the request timeout of the regular client.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus("open stream", resp)
	}

	err = ReadEvents(resp.Body, func(payload json.RawMessage) error {
		var e feed.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode event payload: %w", err)
		}
		return fn(e)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func unexpectedStatus(op string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var apiErr api.ErrorResponse
	if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, strings.TrimSpace(string(payload)))
}

// ParseSSEEvent extracts the JSON payload from the lines of one SSE event.
func ParseSSEEvent(lines []string) (json.RawMessage, bool) {
	for _, line := range lines {
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" {
				continue
			}
			return json.RawMessage(payload), true
		}
	}
	return nil, false
}

// ReadEvents streams SSE events, invoking eventFn for each completed event.
func ReadEvents(body io.Reader, eventFn func(json.RawMessage) error) error {
	reader := bufio.NewReader(body)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return dispatchEvent(lines, eventFn)
			}
			return err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if err := dispatchEvent(lines, eventFn); err != nil {
				return err
			}
			lines = lines[:0]
			continue
		}
		lines = append(lines, trimmed)
	}
}

func dispatchEvent(lines []string, eventFn func(json.RawMessage) error) error {
	if len(lines) == 0 {
		return nil
	}
	payload, ok := ParseSSEEvent(lines)
	if !ok {
		return nil
	}
	return eventFn(payload)
}
