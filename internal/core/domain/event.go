package domain

import "time"

type EventType string

const (
	EventDocumentUploaded  EventType = "documentUploaded"
	EventDocumentVerified  EventType = "documentVerified"
	EventDocumentRejected  EventType = "documentRejected"
	EventDocumentDeleted   EventType = "documentDeleted"
	EventDocumentExpired   EventType = "documentExpired"
	// EventDocumentExpiryDue is published by the external expiry scheduler, never by this service.
	EventDocumentExpiryDue EventType = "documentExpiryDue"
	EventShopStatusChanged EventType = "shopStatusChanged"
)

// Event is published after a state change has been committed.
type Event struct {
	Type         EventType    `json:"type"`
	ShopID       int64        `json:"shop_id"`
	DocumentID   int64        `json:"document_id,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty"`
	Status       string       `json:"status,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Actor        string       `json:"actor,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// DocumentEvent derives the event announcing a document's current state.
func DocumentEvent(doc DocumentRecord, actor string, at time.Time) (Event, bool) {
	var eventType EventType
	switch doc.VerificationStatus {
	case VerificationPending:
		eventType = EventDocumentUploaded
	case VerificationVerified:
		eventType = EventDocumentVerified
	case VerificationRejected:
		eventType = EventDocumentRejected
	case VerificationExpired:
		eventType = EventDocumentExpired
	default:
		return Event{}, false
	}
	return Event{
		Type:         eventType,
		ShopID:       doc.ShopID,
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Status:       string(doc.VerificationStatus),
		Notes:        doc.VerificationNotes,
		Actor:        actor,
		OccurredAt:   at.UTC(),
	}, true
}

func ShopStatusEvent(shopID int64, entry StatusHistoryEntry) Event {
	return Event{
		Type:       EventShopStatusChanged,
		ShopID:     shopID,
		Status:     string(entry.Status),
		Notes:      entry.Notes,
		Actor:      entry.Actor,
		OccurredAt: entry.Timestamp,
	}
}

// OwnerNotification is what the shop owner is told after a decision on their shop.
type OwnerNotification struct {
	ShopID     int64      `json:"shop_id"`
	ShopCode   string     `json:"shop_code"`
	ShopName   string     `json:"shop_name"`
	OwnerName  string     `json:"owner_name"`
	OwnerEmail string     `json:"owner_email"`
	Status     ShopStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
