package ports

import (
	"context"
	"io"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

// DocumentRepository persists document records. Records are appended, never overwritten by re-upload.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.DocumentRecord) error
	GetByID(ctx context.Context, id int64) (*domain.DocumentRecord, error)
	ListByShop(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error)
	UpdateVerification(ctx context.Context, doc *domain.DocumentRecord) error
	// MarkExpired stores an expiry applied by domain.DocumentRecord.Expire.
	MarkExpired(ctx context.Context, doc *domain.DocumentRecord) error
	SavePageCount(ctx context.Context, id int64, pages int) error
	Delete(ctx context.Context, id int64) error
}

// ShopTransitionFunc mutates a locked shop and returns the appended history entry.
type ShopTransitionFunc func(shop *domain.Shop) (domain.StatusHistoryEntry, error)

// ShopRepository persists shops with their append-only status history.
type ShopRepository interface {
	Create(ctx context.Context, shop *domain.Shop) error
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
	List(ctx context.Context, filter domain.ShopFilter) ([]domain.Shop, error)
	CountByStatus(ctx context.Context) (map[domain.ShopStatus]int64, error)
	// UpdateStatus applies fn to the current shop state and stores the result atomically.
	UpdateStatus(ctx context.Context, id int64, fn ShopTransitionFunc) (*domain.Shop, error)
}

// ObjectStorage stores uploaded document files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces committed lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventSubscriber delivers lifecycle events to a handler until ctx is done.
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, domain.Event) error) error
}

// OwnerNotifier tells a shop owner about a decision on their shop.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, notification domain.OwnerNotification) error
}

// RequirementCatalog resolves the required document set of a category.
type RequirementCatalog interface {
	RequiredTypes(category domain.BusinessCategory) (domain.DocumentTypeSet, error)
}

// PageCounter inspects a stored PDF.
type PageCounter interface {
	CountPages(ctx context.Context, data io.ReaderAt, size int64) (int, error)
}

// ReportExporter renders a verification report into w.
type ReportExporter interface {
	Export(w io.Writer, report domain.VerificationReport) error
}

// VerificationAPI is the remote verification service as seen by clients.
type VerificationAPI interface {
	ListDocuments(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error)
	UploadDocument(ctx context.Context, req UploadRequest, progress func(sent int64)) (*domain.DocumentRecord, error)
	SetVerification(ctx context.Context, documentID int64, status domain.VerificationStatus, notes string) (*domain.DocumentRecord, error)
	DeleteDocument(ctx context.Context, documentID int64) error
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	SetShopStatus(ctx context.Context, shopID int64, status domain.ShopStatus, notes string) (*domain.Shop, error)
}

// DocumentUploader is the part of VerificationAPI an upload session needs.
type DocumentUploader interface {
	UploadDocument(ctx context.Context, req UploadRequest, progress func(sent int64)) (*domain.DocumentRecord, error)
}

// UploadRequest describes one file transfer to the verification service.
type UploadRequest struct {
	ShopID       int64
	DocumentType domain.DocumentType
	DocumentName string
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
	// Actor is the authenticated uploader. Clients leave it empty; the server fills it in.
	Actor        string
}
