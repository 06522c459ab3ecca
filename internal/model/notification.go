package model

import (
	"time"
)

type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a user facing message. Core logic only sets Key; text
// is resolved by the localization layer.
type Notification struct {
	Kind      NotificationKind  `json:"kind"`
	Key       string            `json:"key"`
	Message   string            `json:"message,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewNotification(kind NotificationKind, key string) *Notification {
	return &Notification{Kind: kind, Key: key, CreatedAt: time.Now().UTC()}
}

// With adds a template parameter.
func (n *Notification) With(name, value string) *Notification {
	if n.Params == nil {
		n.Params = make(map[string]string)
	}
	n.Params[name] = value
	return n
}
