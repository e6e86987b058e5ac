package ports

import (
	"context"
	"io"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

// DocumentService is the inbound contract for document upload and review.
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.DocumentRecord, error)
	List(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error)
	SetVerification(ctx context.Context, documentID int64, status domain.VerificationStatus, notes, reviewer string) (*domain.DocumentRecord, error)
	Delete(ctx context.Context, documentID int64, actor string) error
	Download(ctx context.Context, documentID int64) (*domain.DocumentRecord, io.ReadCloser, error)
}

// DocumentExpiry is the entry point of the time-based expiry sweep. It is not part
// of DocumentService, so reviewers cannot reach it through the API.
type DocumentExpiry interface {
	Expire(ctx context.Context, documentID int64, actor string) (*domain.DocumentRecord, error)
}

// ShopService is the inbound contract for shop registration and approval.
type ShopService interface {
	Register(ctx context.Context, reg domain.ShopRegistration) (*domain.Shop, error)
	Get(ctx context.Context, shopID int64) (*domain.Shop, error)
	List(ctx context.Context, filter domain.ShopFilter) ([]domain.Shop, error)
	SetStatus(ctx context.Context, shopID int64, status domain.ShopStatus, notes, actor string) (*domain.Shop, error)
	Progress(ctx context.Context, shopID int64) (*domain.ProgressReport, error)
	Stats(ctx context.Context) (*domain.ApprovalStats, error)
	RequiredDocuments(category domain.BusinessCategory) ([]domain.RequiredDocument, error)
}

// ReportService builds exportable verification reports.
type ReportService interface {
	Build(ctx context.Context, shopID int64) (*domain.VerificationReport, error)
	Export(ctx context.Context, shopID int64, w io.Writer) error
}

// EventHandler is the inbound contract for asynchronous lifecycle event processing.
type EventHandler interface {
	HandleEvent(ctx context.Context, event domain.Event) error
}
