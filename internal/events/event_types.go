package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/miniticker/internal/domain"
)

// Topic identifies what an event is about. Cache invalidations use the
// resource tag itself as topic.
type Topic string

const (
	TopicSessionExpired  Topic = "session.expired"
	TopicSessionLogout   Topic = "session.logout"
	TopicActivityArrived Topic = "activity.arrived"
)

// TagTopic is the invalidation topic of a cache tag.
func TagTopic(tag string) Topic {
	return Topic(tag)
}

// Event represents something that happened on the client.
type Event struct {
	ID        string      `json:"id"`
	Topic     Topic       `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an id and time on a payload.
func NewEvent(topic Topic, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// InvalidatedPayload is published on a tag topic after a successful mutation.
type InvalidatedPayload struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason,omitempty"`
}

// ActivityArrivedPayload announces a new leading item in a feed.
type ActivityArrivedPayload struct {
	Feed string              `json:"feed"`
	Item domain.ActivityItem `json:"item"`
}

// SessionExpiredPayload is published when the backend rejected the token.
type SessionExpiredPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// SessionLogoutPayload is published after an explicit logout.
type SessionLogoutPayload struct {
	UserID string `json:"user_id,omitempty"`
}
