package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/campusdesk/apiserver/internal/mq"
)

// Domain event types published after successful mutations.
const (
	EventItemCreated       = "item.created"
	EventItemClaimed       = "item.claimed"
	EventItemVerified      = "item.verified"
	EventItemClosed        = "item.closed"
	EventIssueCreated      = "issue.created"
	EventIssueAssigned     = "issue.assigned"
	EventIssueStatusChange = "issue.status_changed"
	EventIssueUpvoted      = "issue.upvoted"
)

// Event is the envelope published to the event stream.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// EventPublisher publishes domain events through the message queue.
// A nil publisher is valid and drops every event, so services can hold
// one unconditionally. Publish failures are logged, never surfaced:
// the mutation already succeeded.
type EventPublisher struct {
	mq      *mq.MQ
	channel string
}

// NewEventPublisher wraps the given queue. Returns nil when m is nil.
func NewEventPublisher(m *mq.MQ, channel string) *EventPublisher {
	if m == nil {
		return nil
	}
	return &EventPublisher{mq: m, channel: channel}
}

// Publish sends one event, best effort.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, data any) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, At: time.Now(), Data: data})
	if err != nil {
		log.Printf("events: marshal %s: %v", eventType, err)
		return
	}
	if _, err := p.mq.Publish(ctx, p.channel, payload, map[string]string{"type": eventType}); err != nil {
		log.Printf("events: publish %s: %v", eventType, err)
	}
}
