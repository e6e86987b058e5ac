package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

type ReportUseCase struct {
	shops    *ShopUseCase
	exporter ports.ReportExporter
	now      func() time.Time
}

func NewReportUseCase(shops *ShopUseCase, exporter ports.ReportExporter) *ReportUseCase {
	return &ReportUseCase{
		shops:    shops,
		exporter: exporter,
		now:      time.Now,
	}
}

func (uc *ReportUseCase) Build(ctx context.Context, shopID int64) (*domain.VerificationReport, error) {
	shop, err := uc.shops.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	progress, records, err := uc.shops.progressFor(ctx, shop)
	if err != nil {
		return nil, err
	}
	return &domain.VerificationReport{
		Shop:        *shop,
		Progress:    *progress,
		Documents:   records,
		GeneratedAt: uc.now().UTC(),
	}, nil
}

func (uc *ReportUseCase) Export(ctx context.Context, shopID int64, w io.Writer) error {
	report, err := uc.Build(ctx, shopID)
	if err != nil {
		return err
	}
	if err := uc.exporter.Export(w, *report); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	return nil
}
