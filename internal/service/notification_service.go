package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/format"
)

const recentNotifications = 50

// Notification is a one-shot message for the user.
type Notification struct {
	ID       string      `json:"id"`
	Kind     string      `json:"kind"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	Tone     format.Tone `json:"tone"`
	TicketID string      `json:"ticketId,omitempty"`
	At       time.Time   `json:"at"`
}

// Notifier delivers notifications, e.g. to a terminal.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// NotificationService turns session and activity events into notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	notifiers  []Notifier

	mu     sync.Mutex
	recent []Notification
	unsubs []func()
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, notifiers ...Notifier) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		notifiers:  notifiers,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsubs = append(n.unsubs,
		n.dispatcher.Subscribe(events.TopicActivityArrived, n.handleActivityArrived),
		n.dispatcher.Subscribe(events.TopicSessionExpired, n.handleSessionExpired),
		n.dispatcher.Subscribe(events.TopicSessionLogout, n.handleSessionLogout),
	)
}

// Unregister drops every subscription.
func (n *NotificationService) Unregister() {
	n.mu.Lock()
	unsubs := n.unsubs
	n.unsubs = nil
	n.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

// Recent returns the latest notifications, newest first.
func (n *NotificationService) Recent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.recent))
	for i, item := range n.recent {
		out[len(n.recent)-1-i] = item
	}
	return out
}

func (n *NotificationService) handleActivityArrived(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ActivityArrivedPayload)
	if !ok {
		return nil
	}
	cfg := format.Activity(payload.Item.Tipo)
	note := Notification{
		ID:      event.ID,
		Kind:    payload.Item.Tipo,
		Title:   cfg.Label,
		Message: payload.Item.Titulo,
		Tone:    cfg.Tone,
		At:      event.Timestamp,
	}
	if payload.Item.Mensaje != "" {
		note.Message = payload.Item.Mensaje
	}
	if payload.Item.HasTicket() {
		note.TicketID = *payload.Item.TicketID
	}
	n.logger.Info("ActivityArrived", zap.String("feed", payload.Feed), zap.String("activity_id", payload.Item.ID))
	return n.deliver(ctx, note)
}

func (n *NotificationService) handleSessionExpired(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionExpired", zap.Any("payload", event.Payload))
	return n.deliver(ctx, Notification{
		ID:      event.ID,
		Kind:    string(events.TopicSessionExpired),
		Title:   "Sesión expirada",
		Message: "Inicia sesión nuevamente para continuar.",
		Tone:    format.ToneWarning,
		At:      event.Timestamp,
	})
}

func (n *NotificationService) handleSessionLogout(_ context.Context, event events.Event) error {
	n.logger.Info("SessionLogout", zap.Any("payload", event.Payload))
	n.mu.Lock()
	n.recent = nil
	n.mu.Unlock()
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, note Notification) error {
	n.mu.Lock()
	n.recent = append(n.recent, note)
	if len(n.recent) > recentNotifications {
		n.recent = n.recent[len(n.recent)-recentNotifications:]
	}
	n.mu.Unlock()

	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, note); err != nil {
			n.logger.Warn("notify failed", zap.String("kind", note.Kind), zap.Error(err))
		}
	}
	return nil
}
