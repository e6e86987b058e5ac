package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

const (
	summarySheet   = "Summary"
	checklistSheet = "Checklist"
	documentsSheet = "Documents"
)

// Exporter renders a verification report as a three-sheet workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(w io.Writer, report domain.VerificationReport) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{checklistSheet, documentsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writeRows(f, checklistSheet, header, []any{"Document Type", "Name", "Status"}, checklistRows(report.Progress)); err != nil {
		return err
	}
	if err := writeRows(f, documentsSheet, header,
		[]any{"ID", "Type", "Name", "File", "Size (bytes)", "Status", "Notes", "Verified By", "Verified At", "Pages", "Uploaded At"},
		documentRows(report.Documents)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report domain.VerificationReport) error {
	shop := report.Shop
	p := report.Progress
	rows := [][]any{
		{"Shop Code", shop.Code},
		{"Shop Name", shop.Name},
		{"Owner", shop.OwnerName},
		{"Owner Email", shop.OwnerEmail},
		{"Category", string(shop.Category)},
		{"Status", string(shop.Status)},
		{"Required Documents", p.TotalRequired},
		{"Uploaded", p.UploadedCount},
		{"Verified", p.VerifiedCount},
		{"Completion %", p.CompletionPct},
		{"Verified %", p.VerifiedPct},
		{"All Required Verified", p.AllRequiredVerified},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row: %w", sheet, err)
		}
	}
	return nil
}

func checklistRows(p domain.ProgressReport) [][]any {
	types := make([]domain.DocumentType, 0, len(p.PerTypeStatus))
	for t := range p.PerTypeStatus {
		types = append(types, t)
	}
	types = domain.NewDocumentTypeSet(types...).Sorted()

	rows := make([][]any, 0, len(types))
	for _, t := range types {
		rows = append(rows, []any{string(t), t.DisplayName(), string(p.PerTypeStatus[t])})
	}
	return rows
}

func documentRows(docs []domain.DocumentRecord) [][]any {
	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		verifiedAt := ""
		if d.VerifiedAt != nil {
			verifiedAt = d.VerifiedAt.Format(time.RFC3339)
		}
		pages := ""
		if d.PageCount != nil {
			pages = fmt.Sprint(*d.PageCount)
		}
		rows = append(rows, []any{
			d.ID,
			string(d.DocumentType),
			d.DocumentName,
			d.OriginalFilename,
			d.FileSizeBytes,
			string(d.VerificationStatus),
			d.VerificationNotes,
			d.VerifiedBy,
			verifiedAt,
			pages,
			d.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}
