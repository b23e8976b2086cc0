package attendance

import (
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/sse"
)

// HubPublisher forwards clock events to the administrators' SSE feed.
type HubPublisher struct {
	hub *sse.Hub
}

func NewHubPublisher(hub *sse.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) PublishClockEvent(event attendance.ClockEvent) {
	p.hub.Publish(sse.TopicAdmin, sse.Event{Event: event.Type, Data: event})
}
