package domain

import "time"

// Webhook represents a subscriber's registration for an event notification.
type Webhook struct {
	WebhookID  string
	Subscriber Address
	Event      string
	URL        string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
