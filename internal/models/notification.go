package models

import (
	"time"
)

type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"notification_type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	Recipient int64     `json:"recipient"`
}

type NotificationPreferences struct {
	EmailEnabled bool            `json:"email_enabled"`
	SMSEnabled   bool            `json:"sms_enabled"`
	PushEnabled  bool            `json:"push_enabled"`
	Types        map[string]bool `json:"notification_types"`
}
