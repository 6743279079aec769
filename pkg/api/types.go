package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errTrailingData = errors.New("unexpected data after update body")

// Fixed response messages.
const (
	MessageJunctionNotFound = "Junction not found"
	MessageInvalidData      = "Invalid data"
	MessageUpdated          = "Traffic light updated successfully"
)

// UpdateRequest is the body accepted by POST /update_traffic_light.
type UpdateRequest struct {
	JunctionID string  `json:"junction_id"`
	Status     string  `json:"status"`
	TimeLeft   float64 `json:"time_left"`
}

// Valid reports whether every field is set. Zero values count as missing, so
// a time_left of 0 is rejected along with absent or null fields.
func (r UpdateRequest) Valid() bool {
	return r.JunctionID != "" && r.Status != "" && r.TimeLeft != 0
}

// DecodeUpdateRequest reads exactly one JSON object from r. Keys must match
// the wire names exactly; differently cased keys count as missing.
func DecodeUpdateRequest(r io.Reader) (UpdateRequest, error) {
	dec := json.NewDecoder(r)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return UpdateRequest{}, fmt.Errorf("decode update body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return UpdateRequest{}, errTrailingData
	}

	var req UpdateRequest
	targets := map[string]any{
		"junction_id": &req.JunctionID,
		"status":      &req.Status,
		"time_left":   &req.TimeLeft,
	}
	for key, dst := range targets {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return UpdateRequest{}, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return req, nil
}

// MessageResponse acknowledges a successful write.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
