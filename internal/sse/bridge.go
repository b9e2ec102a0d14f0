package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/playgate/internal/api/response"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
)

// Stream event names
const (
	EventConnected  = "connected"
	EventState      = "state"
	EventAuthFailed = "auth_failed"
	EventClosed     = "closed"
)

// Bridge gives every viewer a hub and forwards its events as JSON
type Bridge struct {
	hubs   *HubManager
	logger *slog.Logger
}

var _ viewer.Observer = (*Bridge)(nil)

// NewBridge creates a Bridge
func NewBridge(hubs *HubManager, logger *slog.Logger) *Bridge {
	return &Bridge{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "sse-bridge")),
	}
}

// ViewerOpened creates the viewer's hub and subscribes to its events
func (b *Bridge) ViewerOpened(v *viewer.Viewer) {
	hub, _ := b.hubs.GetOrCreateHub(v.ID())
	v.Subscribe(func(evt model.Event) {
		b.forward(hub, evt)
	})
}

// ViewerClosed does nothing; the hub goes away once the viewer's own close
// event has been forwarded.
func (b *Bridge) ViewerClosed(*viewer.Viewer) {}

func (b *Bridge) forward(hub *Hub, evt model.Event) {
	state := response.ViewStateFromModel(evt.State)

	switch evt.Type {
	case model.EventStateChanged:
		b.send(hub, EventState, state)
	case model.EventAuthFailed:
		payload, _ := evt.Payload.(model.AuthFailedPayload)
		b.send(hub, EventAuthFailed, response.AuthFailed{
			Operation: payload.Operation,
			Reason:    payload.Reason,
			State:     state,
		})
	case model.EventViewerClosed:
		b.send(hub, EventClosed, state)
		b.hubs.RemoveHub(evt.ViewerID)
	}
}

func (b *Bridge) send(hub *Hub, name string, data any) {
	encoded, err := json.Marshal(data)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("event", name),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(name, string(encoded))
}
