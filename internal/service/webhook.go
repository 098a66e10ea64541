package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/store"
)

// Webhook-subscribable event types. Withdrawals are owner bookkeeping and
// are not fanned out.
var validWebhookEvents = map[string]bool{
	domain.EventTradeOpened:       true,
	domain.EventTradeExecuted:     true,
	domain.EventTradeClosed:       true,
	domain.EventTradePriceChanged: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Subscriber string
	URL        string
	Events     []string
}

// WebhookService handles webhook CRUD and event delivery.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewWebhookService creates a new WebhookService with the given delivery
// timeout.
func NewWebhookService(webhookStore *store.WebhookStore, timeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates one subscription per
// event. Returns the resulting webhooks and whether any new subscription
// was created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	subscriber, err := parseAddress("subscriber", req.Subscriber)
	if err != nil {
		return nil, false, err
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event +
					". Must be one of: trade.opened, trade.executed, trade.closed, trade.price_changed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID:  uuid.New().String(),
			Subscriber: subscriber,
			Event:      event,
			URL:        req.URL,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if s.store.Upsert(w) {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else if existing := s.store.GetBySubscriberEvent(subscriber, event); existing != nil {
			webhooks = append(webhooks, existing)
		}
	}

	return webhooks, anyCreated, nil
}

// List returns a subscriber's webhooks in stable event order.
func (s *WebhookService) List(subscriber string) ([]*domain.Webhook, error) {
	addr, err := parseAddress("subscriber", subscriber)
	if err != nil {
		return nil, err
	}

	webhooks := s.store.ListBySubscriber(addr)
	sort.Slice(webhooks, func(i, j int) bool {
		return webhooks[i].Event < webhooks[j].Event
	})
	return webhooks, nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// eventPayload is the JSON body delivered to webhook URLs.
type eventPayload struct {
	Event     string    `json:"event"`
	Timestamp string    `json:"timestamp"`
	Data      eventData `json:"data"`
}

type eventData struct {
	EventID   string `json:"event_id"`
	Asset     string `json:"asset"`
	UnitID    int64  `json:"unit_id"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    int64  `json:"amount"`
	Price     int64  `json:"price"`
}

// Dispatch delivers the event to the subscriber's matching webhook, if any.
// Fire-and-forget: delivery runs in its own goroutine and errors are
// silently ignored.
func (s *WebhookService) Dispatch(subscriber domain.Address, ev *domain.Event) {
	wh := s.store.GetBySubscriberEvent(subscriber, ev.Type)
	if wh == nil {
		return
	}

	payload := eventPayload{
		Event:     ev.Type,
		Timestamp: ev.At.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: eventData{
			EventID:   ev.EventID,
			Asset:     string(ev.Asset),
			UnitID:    ev.UnitID,
			Seller:    string(ev.Seller),
			Buyer:     string(ev.Buyer),
			Recipient: string(ev.Recipient),
			Amount:    ev.Amount,
			Price:     ev.Price,
		},
	}

	go s.deliver(wh, ev.Type, payload)
}

// deliver sends the webhook payload via HTTP POST with delivery headers.
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
