package feed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vyvo/trafficlight/pkg/registry"
)

// Event announces that a junction was written.
type Event struct {
	ID         string    `json:"id"`
	JunctionID string    `json:"junction_id"`
	Status     string    `json:"status"`
	TimeLeft   float64   `json:"time_left"`
	UpdatedAt  time.Time `json:"updated_at"`
	Origin     string    `json:"origin,omitempty"`
}

// NewEvent stamps a fresh event for the given junction state.
func NewEvent(junctionID string, j registry.Junction) Event {
	return Event{
		ID:         uuid.NewString(),
		JunctionID: junctionID,
		Status:     j.Status,
		TimeLeft:   j.TimeLeft,
		UpdatedAt:  time.Now().UTC(),
	}
}

// Junction returns the state carried by the event.
func (e Event) Junction() registry.Junction {
	return registry.Junction{Status: e.Status, TimeLeft: e.TimeLeft}
}

// Publisher announces accepted junction updates.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}
