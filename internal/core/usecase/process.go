package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

// expirySweepActor is recorded when the scheduler does not name itself.
const expirySweepActor = "expiry-sweep"

// ProcessEventUseCase reacts to lifecycle events in the worker: it notifies shop
// owners about decisions, inspects freshly uploaded PDFs and applies expiries
// requested by the external scheduler.
type ProcessEventUseCase struct {
	shops    ports.ShopRepository
	docs     ports.DocumentRepository
	storage  ports.ObjectStorage
	notifier ports.OwnerNotifier
	pages    ports.PageCounter
	expiry   ports.DocumentExpiry
	maxBytes int64
}

func NewProcessEventUseCase(
	shops ports.ShopRepository,
	docs ports.DocumentRepository,
	storage ports.ObjectStorage,
	notifier ports.OwnerNotifier,
	pages ports.PageCounter,
	maxBytes int64,
) *ProcessEventUseCase {
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	return &ProcessEventUseCase{
		shops:    shops,
		docs:     docs,
		storage:  storage,
		notifier: notifier,
		pages:    pages,
		maxBytes: maxBytes,
	}
}

// WithExpiry enables handling of documentExpiryDue events. Call before the worker subscribes.
func (uc *ProcessEventUseCase) WithExpiry(expiry ports.DocumentExpiry) *ProcessEventUseCase {
	uc.expiry = expiry
	return uc
}

func (uc *ProcessEventUseCase) HandleEvent(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.EventShopStatusChanged:
		return uc.notifyOwner(ctx, event)
	case domain.EventDocumentUploaded:
		return uc.inspectDocument(ctx, event.DocumentID)
	case domain.EventDocumentExpiryDue:
		return uc.expireDocument(ctx, event)
	default:
		return nil
	}
}

// expireDocument applies a scheduled expiry. Documents that were deleted, rejected
// or already expired in the meantime are skipped.
func (uc *ProcessEventUseCase) expireDocument(ctx context.Context, event domain.Event) error {
	if uc.expiry == nil {
		return nil
	}
	actor := event.Actor
	if actor == "" {
		actor = expirySweepActor
	}
	_, err := uc.expiry.Expire(ctx, event.DocumentID, actor)
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrInvalidTransition):
		slog.Info("document_expiry_skipped", "document_id", event.DocumentID, "reason", err)
		return nil
	default:
		return fmt.Errorf("expire document: %w", err)
	}
}

func (uc *ProcessEventUseCase) notifyOwner(ctx context.Context, event domain.Event) error {
	status, err := domain.ParseShopStatus(event.Status)
	if err != nil {
		return err
	}
	if !status.NotifiesOwner() || uc.notifier == nil {
		return nil
	}

	shop, err := uc.shops.GetByID(ctx, event.ShopID)
	if err != nil {
		return fmt.Errorf("load shop: %w", err)
	}
	notification := domain.OwnerNotification{
		ShopID:     shop.ID,
		ShopCode:   shop.Code,
		ShopName:   shop.Name,
		OwnerName:  shop.OwnerName,
		OwnerEmail: shop.OwnerEmail,
		Status:     status,
		Notes:      event.Notes,
		OccurredAt: event.OccurredAt,
	}
	if err := uc.notifier.NotifyOwner(ctx, notification); err != nil {
		return fmt.Errorf("notify owner: %w", err)
	}
	return nil
}

// inspectDocument records the page count of an uploaded PDF. An unreadable PDF is
// logged and left for the reviewer; it is never rejected automatically.
func (uc *ProcessEventUseCase) inspectDocument(ctx context.Context, documentID int64) error {
	if uc.pages == nil {
		return nil
	}
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("load document: %w", err)
	}
	if !isPDF(doc) {
		return nil
	}

	data, err := uc.readStored(ctx, doc.StorageKey)
	if err != nil {
		return err
	}
	pages, err := uc.pages.CountPages(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("document_inspection_failed", "document_id", doc.ID, "shop_id", doc.ShopID, "error", err)
		return nil
	}
	if err := uc.docs.SavePageCount(ctx, doc.ID, pages); err != nil {
		return fmt.Errorf("save page count: %w", err)
	}
	return nil
}

func (uc *ProcessEventUseCase) readStored(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return data, nil
}

func isPDF(doc *domain.DocumentRecord) bool {
	if strings.EqualFold(doc.FileType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.OriginalFilename), ".pdf")
}
