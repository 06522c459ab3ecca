package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// Service is the toast sink. Notifications carry a message key only;
// translation happens at the edge.
type Service interface {
	Send(ctx context.Context, notification *model.Notification) error
}

type service struct {
	log     *logger.Logger
	broker  messaging.Broker
	metrics *metrics.Metrics
}

// NewService logs every notification and, when broker is set, publishes it
// on the notification topic.
func NewService(log *logger.Logger, broker messaging.Broker, m *metrics.Metrics) Service {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &service{log: log, broker: broker, metrics: m}
}

func (s *service) Send(ctx context.Context, notification *model.Notification) error {
	if err := validateNotification(notification); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	s.metrics.NotificationsEmitted.WithLabelValues(string(notification.Kind)).Inc()

	fields := map[string]interface{}{
		"kind":       notification.Kind,
		"key":        notification.Key,
		"session_id": notification.SessionID,
	}
	if notification.Kind == model.NotificationError {
		s.log.WithFields(fields).Warn("notification")
	} else {
		s.log.WithFields(fields).Debug("notification")
	}

	if s.broker == nil {
		return nil
	}
	env, err := messaging.NewEnvelope(messaging.TopicNotification, notification)
	if err != nil {
		return err
	}
	if err := s.broker.Publish(ctx, messaging.TopicNotification, env); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func validateNotification(notification *model.Notification) error {
	if notification == nil {
		return fmt.Errorf("notification is required")
	}
	switch notification.Kind {
	case model.NotificationInfo, model.NotificationSuccess, model.NotificationError:
	default:
		return fmt.Errorf("unknown kind %q", notification.Kind)
	}
	if notification.Key == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}

// Recorder keeps every notification in memory. It is used by tests and by
// tools that want to inspect what a flow emitted.
type Recorder struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, notification *model.Notification) error {
	if err := validateNotification(notification); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification)
	return nil
}

// Sent returns the notifications received so far.
func (r *Recorder) Sent() []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Notification(nil), r.sent...)
}

// Keys returns the message keys received so far, in order.
func (r *Recorder) Keys() []string {
	sent := r.Sent()
	keys := make([]string, 0, len(sent))
	for _, n := range sent {
		keys = append(keys, n.Key)
	}
	return keys
}
