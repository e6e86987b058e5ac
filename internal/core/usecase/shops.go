package usecase

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

const shopCodeAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

type ShopUseCase struct {
	shops   ports.ShopRepository
	docs    ports.DocumentRepository
	catalog ports.RequirementCatalog
	events  ports.EventPublisher
	now     func() time.Time
	newCode func() (string, error)
}

func NewShopUseCase(
	shops ports.ShopRepository,
	docs ports.DocumentRepository,
	catalog ports.RequirementCatalog,
	events ports.EventPublisher,
) *ShopUseCase {
	return &ShopUseCase{
		shops:   shops,
		docs:    docs,
		catalog: catalog,
		events:  events,
		now:     time.Now,
		newCode: func() (string, error) {
			id, err := gonanoid.Generate(shopCodeAlphabet, 10)
			if err != nil {
				return "", err
			}
			return "SHP-" + id, nil
		},
	}
}

func (uc *ShopUseCase) Register(ctx context.Context, reg domain.ShopRegistration) (*domain.Shop, error) {
	code, err := uc.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate shop code: %w", err)
	}
	shop, err := domain.NewShop(reg, code, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.shops.Create(ctx, shop); err != nil {
		return nil, fmt.Errorf("create shop: %w", err)
	}
	return shop, nil
}

func (uc *ShopUseCase) Get(ctx context.Context, shopID int64) (*domain.Shop, error) {
	return uc.shops.GetByID(ctx, shopID)
}

func (uc *ShopUseCase) List(ctx context.Context, filter domain.ShopFilter) ([]domain.Shop, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	shops, err := uc.shops.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	return shops, nil
}

// SetStatus runs a reviewer-triggered transition. Document completeness is not checked.
func (uc *ShopUseCase) SetStatus(ctx context.Context, shopID int64, status domain.ShopStatus, notes, actor string) (*domain.Shop, error) {
	var entry domain.StatusHistoryEntry
	shop, err := uc.shops.UpdateStatus(ctx, shopID, func(s *domain.Shop) (domain.StatusHistoryEntry, error) {
		var err error
		entry, err = s.Transition(status, notes, actor, uc.now())
		return entry, err
	})
	if err != nil {
		return nil, err
	}

	announce(ctx, uc.events, domain.ShopStatusEvent(shop.ID, entry))
	return shop, nil
}

func (uc *ShopUseCase) Approve(ctx context.Context, shopID int64, notes, actor string) (*domain.Shop, error) {
	return uc.SetStatus(ctx, shopID, domain.ShopApproved, notes, actor)
}

func (uc *ShopUseCase) Reject(ctx context.Context, shopID int64, reason, actor string) (*domain.Shop, error) {
	return uc.SetStatus(ctx, shopID, domain.ShopRejected, reason, actor)
}

func (uc *ShopUseCase) Suspend(ctx context.Context, shopID int64, reason, actor string) (*domain.Shop, error) {
	return uc.SetStatus(ctx, shopID, domain.ShopSuspended, reason, actor)
}

func (uc *ShopUseCase) Progress(ctx context.Context, shopID int64) (*domain.ProgressReport, error) {
	shop, err := uc.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	report, _, err := uc.progressFor(ctx, shop)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (uc *ShopUseCase) Stats(ctx context.Context) (*domain.ApprovalStats, error) {
	counts, err := uc.shops.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count shops by status: %w", err)
	}
	stats := domain.NewApprovalStats(counts)
	return &stats, nil
}

func (uc *ShopUseCase) RequiredDocuments(category domain.BusinessCategory) ([]domain.RequiredDocument, error) {
	set, err := uc.catalog.RequiredTypes(category)
	if err != nil {
		return nil, err
	}
	return domain.RequiredDocuments(set), nil
}

func (uc *ShopUseCase) progressFor(ctx context.Context, shop *domain.Shop) (*domain.ProgressReport, []domain.DocumentRecord, error) {
	required, err := uc.catalog.RequiredTypes(shop.Category)
	if err != nil {
		return nil, nil, err
	}
	records, err := uc.docs.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list documents: %w", err)
	}
	report := domain.ComputeProgress(required, records)
	return &report, records, nil
}
