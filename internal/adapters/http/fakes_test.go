package httpadapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

type shopServiceFake struct {
	shops     map[int64]*domain.Shop
	setErr    error
	lastActor string
	lastNotes string
	lastReg   domain.ShopRegistration
	lastList  domain.ShopFilter
}

func newShopServiceFake() *shopServiceFake {
	return &shopServiceFake{shops: map[int64]*domain.Shop{
		7: {ID: 7, Code: "SHP-TEST", Name: "Corner Store", Category: domain.BusinessCategory("GENERAL"), Status: domain.ShopPending},
	}}
}

func (f *shopServiceFake) Register(_ context.Context, reg domain.ShopRegistration) (*domain.Shop, error) {
	f.lastReg = reg
	return &domain.Shop{ID: 8, Code: "SHP-NEW", Name: reg.Name, Status: domain.ShopPending}, nil
}

func (f *shopServiceFake) Get(_ context.Context, shopID int64) (*domain.Shop, error) {
	shop, ok := f.shops[shopID]
	if !ok {
		return nil, domain.WrapError(domain.ErrShopNotFound, "get shop", fmt.Errorf("id=%d", shopID))
	}
	return shop, nil
}

func (f *shopServiceFake) List(_ context.Context, filter domain.ShopFilter) ([]domain.Shop, error) {
	f.lastList = filter
	return []domain.Shop{*f.shops[7]}, nil
}

func (f *shopServiceFake) SetStatus(ctx context.Context, shopID int64, status domain.ShopStatus, notes, actor string) (*domain.Shop, error) {
	f.lastActor = actor
	f.lastNotes = notes
	if f.setErr != nil {
		return nil, f.setErr
	}
	shop, err := f.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if (status == domain.ShopRejected || status == domain.ShopSuspended) && notes == "" {
		return nil, &domain.MissingReasonError{Field: "reason"}
	}
	updated := *shop
	updated.Status = status
	return &updated, nil
}

func (f *shopServiceFake) Progress(ctx context.Context, shopID int64) (*domain.ProgressReport, error) {
	if _, err := f.Get(ctx, shopID); err != nil {
		return nil, err
	}
	return &domain.ProgressReport{TotalRequired: 4, VerifiedCount: 2, VerifiedPct: 50}, nil
}

func (f *shopServiceFake) Stats(context.Context) (*domain.ApprovalStats, error) {
	return &domain.ApprovalStats{Pending: 1}, nil
}

func (f *shopServiceFake) RequiredDocuments(category domain.BusinessCategory) ([]domain.RequiredDocument, error) {
	return []domain.RequiredDocument{{Type: domain.DocPANCard, DisplayName: domain.DocPANCard.DisplayName()}}, nil
}

type documentServiceFake struct {
	docs       map[int64]*domain.DocumentRecord
	content    map[int64][]byte
	uploaded   []ports.UploadRequest
	uploadBody []byte
	uploadErr  error
	deletedBy  string
	reviewer   string
}

func newDocumentServiceFake() *documentServiceFake {
	return &documentServiceFake{
		docs: map[int64]*domain.DocumentRecord{
			3: {
				ID:                 3,
				ShopID:             7,
				DocumentType:       domain.DocPANCard,
				OriginalFilename:   "pan card.pdf",
				FileType:           "application/pdf",
				FileSizeBytes:      5,
				VerificationStatus: domain.VerificationPending,
			},
		},
		content: map[int64][]byte{3: []byte("%PDF-")},
	}
}

func (f *documentServiceFake) Upload(_ context.Context, req ports.UploadRequest) (*domain.DocumentRecord, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, req)
	f.uploadBody = body
	return &domain.DocumentRecord{
		ID:                 11,
		ShopID:             req.ShopID,
		DocumentType:       req.DocumentType,
		OriginalFilename:   req.Filename,
		FileSizeBytes:      req.Size,
		VerificationStatus: domain.VerificationPending,
	}, nil
}

func (f *documentServiceFake) List(_ context.Context, shopID int64) ([]domain.DocumentRecord, error) {
	var out []domain.DocumentRecord
	for _, doc := range f.docs {
		if doc.ShopID == shopID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *documentServiceFake) SetVerification(_ context.Context, documentID int64, status domain.VerificationStatus, notes, reviewer string) (*domain.DocumentRecord, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", documentID))
	}
	f.reviewer = reviewer
	updated := *doc
	if err := updated.ApplyVerification(status, notes, reviewer, doc.CreatedAt); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (f *documentServiceFake) Delete(_ context.Context, documentID int64, actor string) error {
	if _, ok := f.docs[documentID]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id=%d", documentID))
	}
	f.deletedBy = actor
	delete(f.docs, documentID)
	return nil
}

func (f *documentServiceFake) Download(_ context.Context, documentID int64) (*domain.DocumentRecord, io.ReadCloser, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", documentID))
	}
	return doc, io.NopCloser(bytes.NewReader(f.content[documentID])), nil
}

type reportServiceFake struct {
	err error
}

func (f *reportServiceFake) Build(_ context.Context, shopID int64) (*domain.VerificationReport, error) {
	return &domain.VerificationReport{}, f.err
}

func (f *reportServiceFake) Export(_ context.Context, _ int64, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "PK-workbook")
	return err
}

type testServices struct {
	shops   *shopServiceFake
	docs    *documentServiceFake
	reports *reportServiceFake
}

func newTestServices() testServices {
	return testServices{
		shops:   newShopServiceFake(),
		docs:    newDocumentServiceFake(),
		reports: &reportServiceFake{},
	}
}

func (s testServices) handler(cfg config.Config, opts ...Option) http.Handler {
	return NewRouter(cfg, s.shops, s.docs, s.reports, opts...).Handler()
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestServices().handler(cfg)
}
