package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

type DocumentUseCase struct {
	docs     ports.DocumentRepository
	shops    ports.ShopRepository
	storage  ports.ObjectStorage
	catalog  ports.RequirementCatalog
	events   ports.EventPublisher
	maxBytes int64
	now      func() time.Time
}

func NewDocumentUseCase(
	docs ports.DocumentRepository,
	shops ports.ShopRepository,
	storage ports.ObjectStorage,
	catalog ports.RequirementCatalog,
	events ports.EventPublisher,
	maxBytes int64,
) *DocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	return &DocumentUseCase{
		docs:     docs,
		shops:    shops,
		storage:  storage,
		catalog:  catalog,
		events:   events,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Upload validates the file, stores it and appends a PENDING record.
// Nothing is left behind when any step fails.
func (uc *DocumentUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.DocumentRecord, error) {
	if err := domain.ValidateUpload(req.Filename, req.Size, uc.maxBytes); err != nil {
		return nil, err
	}
	if _, err := uc.shops.GetByID(ctx, req.ShopID); err != nil {
		return nil, err
	}

	storageKey := fmt.Sprintf("shops/%d/%s_%s_%s", req.ShopID, req.DocumentType, uuid.NewString(), sanitizeFilename(req.Filename))
	body := &countingReader{r: io.LimitReader(req.Body, uc.maxBytes+1)}
	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if body.n > uc.maxBytes || body.n == 0 {
		uc.discardObject(ctx, storageKey)
		return nil, domain.ValidateUpload(req.Filename, body.n, uc.maxBytes)
	}

	doc := domain.NewDocumentRecord(req.ShopID, req.DocumentType, req.DocumentName, req.Filename, req.ContentType, body.n, uc.now())
	doc.StorageKey = storageKey
	if err := uc.docs.Create(ctx, doc); err != nil {
		uc.discardObject(ctx, storageKey)
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if event, ok := domain.DocumentEvent(*doc, req.Actor, doc.CreatedAt); ok {
		announce(ctx, uc.events, event)
	}
	return doc, nil
}

func (uc *DocumentUseCase) List(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error) {
	if _, err := uc.shops.GetByID(ctx, shopID); err != nil {
		return nil, err
	}
	docs, err := uc.docs.ListByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (uc *DocumentUseCase) SetVerification(
	ctx context.Context,
	documentID int64,
	status domain.VerificationStatus,
	notes, reviewer string,
) (*domain.DocumentRecord, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := doc.ApplyVerification(status, notes, reviewer, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.docs.UpdateVerification(ctx, doc); err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}

	if event, ok := domain.DocumentEvent(*doc, reviewer, *doc.VerifiedAt); ok {
		announce(ctx, uc.events, event)
	}
	return doc, nil
}

// Expire moves a PENDING or VERIFIED record to EXPIRED on behalf of the expiry sweep.
func (uc *DocumentUseCase) Expire(ctx context.Context, documentID int64, actor string) (*domain.DocumentRecord, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := doc.Expire(uc.now()); err != nil {
		return nil, err
	}
	if err := uc.docs.MarkExpired(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark document expired: %w", err)
	}

	if event, ok := domain.DocumentEvent(*doc, actor, *doc.ExpiredAt); ok {
		announce(ctx, uc.events, event)
	}
	return doc, nil
}

// Delete hard-deletes a record and its file. The latest verified evidence of a
// required type cannot be removed while the shop is approved.
func (uc *DocumentUseCase) Delete(ctx context.Context, documentID int64, actor string) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := uc.ensureDeletable(ctx, doc); err != nil {
		return err
	}

	if err := uc.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	uc.discardObject(ctx, doc.StorageKey)

	announce(ctx, uc.events, domain.Event{
		Type:         domain.EventDocumentDeleted,
		ShopID:       doc.ShopID,
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Status:       string(doc.VerificationStatus),
		Actor:        actor,
		OccurredAt:   uc.now().UTC(),
	})
	return nil
}

func (uc *DocumentUseCase) Download(ctx context.Context, documentID int64) (*domain.DocumentRecord, io.ReadCloser, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := uc.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored document: %w", err)
	}
	return doc, rc, nil
}

func (uc *DocumentUseCase) ensureDeletable(ctx context.Context, doc *domain.DocumentRecord) error {
	if doc.VerificationStatus != domain.VerificationVerified {
		return nil
	}
	shop, err := uc.shops.GetByID(ctx, doc.ShopID)
	if err != nil {
		return err
	}
	if shop.Status != domain.ShopApproved {
		return nil
	}
	required, err := uc.catalog.RequiredTypes(shop.Category)
	if err != nil {
		return err
	}
	if !required.Contains(doc.DocumentType) {
		return nil
	}

	records, err := uc.docs.ListByShop(ctx, doc.ShopID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if latest, ok := domain.LatestByType(records)[doc.DocumentType]; ok && latest.ID == doc.ID {
		return domain.WrapError(domain.ErrInvalidTransition, "delete document",
			fmt.Errorf("document %d is the verified %s of approved shop %d", doc.ID, doc.DocumentType, doc.ShopID))
	}
	return nil
}

func (uc *DocumentUseCase) discardObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := uc.storage.Delete(ctx, key); err != nil {
		slog.Warn("storage_delete_failed", "storage_key", key, "error", err)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
