package store

import (
	"errors"
	"testing"
	"time"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

func newTestWebhook(id string, subscriber domain.Address, event string) *domain.Webhook {
	now := time.Now()
	return &domain.Webhook{
		WebhookID:  id,
		Subscriber: subscriber,
		Event:      event,
		URL:        "https://example.com/hooks",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestWebhookStore_UpsertCreate(t *testing.T) {
	s := NewWebhookStore()

	created := s.Upsert(newTestWebhook("wh-1", seller, domain.EventTradeExecuted))
	if !created {
		t.Fatal("expected creation")
	}

	w, err := s.Get("wh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Subscriber != seller {
		t.Fatalf("subscriber = %s, want %s", w.Subscriber, seller)
	}
}

func TestWebhookStore_UpsertUpdate(t *testing.T) {
	s := NewWebhookStore()

	s.Upsert(newTestWebhook("wh-1", seller, domain.EventTradeExecuted))

	updated := newTestWebhook("wh-2", seller, domain.EventTradeExecuted)
	updated.URL = "https://example.com/other"
	created := s.Upsert(updated)
	if created {
		t.Fatal("expected update, not creation")
	}

	// The webhook_id stays stable; the URL changes.
	w := s.GetBySubscriberEvent(seller, domain.EventTradeExecuted)
	if w == nil {
		t.Fatal("expected webhook")
	}
	if w.WebhookID != "wh-1" {
		t.Fatalf("webhook_id = %s, want wh-1", w.WebhookID)
	}
	if w.URL != "https://example.com/other" {
		t.Fatalf("url = %s, want updated url", w.URL)
	}
}

func TestWebhookStore_GetMissing(t *testing.T) {
	s := NewWebhookStore()

	_, err := s.Get("nope")
	if !errors.Is(err, domain.ErrWebhookNotFound) {
		t.Fatalf("expected webhook_not_found, got %v", err)
	}
}

func TestWebhookStore_ListBySubscriber(t *testing.T) {
	s := NewWebhookStore()

	s.Upsert(newTestWebhook("wh-1", seller, domain.EventTradeExecuted))
	s.Upsert(newTestWebhook("wh-2", seller, domain.EventTradeClosed))

	list := s.ListBySubscriber(seller)
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	other := s.ListBySubscriber(domain.Address("0xcccccccccccccccccccccccccccccccccccccccc"))
	if other == nil || len(other) != 0 {
		t.Fatalf("expected non-nil empty slice, got %v", other)
	}
}

func TestWebhookStore_Delete(t *testing.T) {
	s := NewWebhookStore()

	s.Upsert(newTestWebhook("wh-1", seller, domain.EventTradeExecuted))

	if err := s.Delete("wh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete("wh-1"); !errors.Is(err, domain.ErrWebhookNotFound) {
		t.Fatalf("expected webhook_not_found, got %v", err)
	}
	if w := s.GetBySubscriberEvent(seller, domain.EventTradeExecuted); w != nil {
		t.Fatal("secondary index not cleaned up")
	}
}
