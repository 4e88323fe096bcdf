package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeCommand          EventType = "command"
	EventTypeDeployment       EventType = "deployment"
	EventTypeDeploymentFailed EventType = "deployment_failed"
	EventTypePost             EventType = "post"
	EventTypeBatchSummary     EventType = "batch_summary"
	EventTypeEngagement       EventType = "engagement"
)

// Topics events are published on. Subscribers to BroadcastTopic get everything.
const (
	TopicCommands    = "commands"
	TopicDeployments = "deployments"
	TopicSocial      = "social"
	BroadcastTopic   = "__broadcast__"
)

type Event struct {
	Topic     string
	Type      EventType
	Data      string // JSON payload
	Timestamp int64
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event // Key: topic
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a topic
func (b *EventBus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[topic] = append(b.subs[topic], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[topic]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[topic] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	}

	return ch, unsub
}

// Publish sends an event to the topic's subscribers and to broadcast subscribers.
// Full subscriber buffers drop the event rather than block the scheduler.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.deliver(e.Topic, e)
	if e.Topic != BroadcastTopic {
		b.deliver(BroadcastTopic, e)
	}
}

func (b *EventBus) deliver(key string, e Event) {
	for _, ch := range b.subs[key] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "topic", e.Topic, "type", e.Type)
		}
	}
}

// PublishJSON marshals payload and publishes it. A nil bus is a no-op so
// components can run without observability wired.
func (b *EventBus) PublishJSON(topic string, typ EventType, payload any) {
	if b == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("failed to encode event payload", "type", typ, "error", err)
		return
	}
	b.Publish(Event{
		Topic:     topic,
		Type:      typ,
		Data:      string(data),
		Timestamp: time.Now().UnixMilli(),
	})
}
