package nats

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

func TestSubject(t *testing.T) {
	cases := map[string]string{
		"":                 "verification.events.shopStatusChanged",
		"acme.":            "acme.shopStatusChanged",
		" .tenant.events ": "tenant.events.shopStatusChanged",
	}
	for prefix, want := range cases {
		if got := Subject(prefix, domain.EventShopStatusChanged); got != want {
			t.Fatalf("Subject(%q) = %q, want %q", prefix, got, want)
		}
	}
}

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := []byte(`{"type":"documentRejected","shop_id":4,"document_id":9,"document_type":"PAN_CARD","status":"REJECTED","notes":"blurry","occurred_at":"2024-03-01T10:00:00Z"}`)

	event, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if event.Type != domain.EventDocumentRejected || event.DocumentID != 9 || event.Notes != "blurry" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("unexpected occurred_at %s", event.OccurredAt)
	}

	if _, err := DecodeEvent([]byte(`{"shop_id":1}`)); err == nil {
		t.Fatalf("expected error for event without type")
	}
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestClassifyNATSError(t *testing.T) {
	if class := classifyNATSError(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed)); !class.Retryable {
		t.Fatalf("expected closed connection to be retryable")
	}
	if class := classifyNATSError(nats.ErrMaxPayload); class.Retryable || class.RecordFailure {
		t.Fatalf("expected max payload to be permanent, got %+v", class)
	}
	if class := classifyNATSError(errors.New("other")); class.Retryable || !class.RecordFailure {
		t.Fatalf("unexpected classification %+v", class)
	}
}
