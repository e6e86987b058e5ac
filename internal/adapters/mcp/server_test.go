package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

type readerFake struct {
	progress map[int64]*domain.ProgressReport
}

func (f readerFake) RequiredDocuments(_ context.Context, category domain.BusinessCategory) ([]domain.RequiredDocument, error) {
	set, err := domain.RequiredTypes(category)
	if err != nil {
		return nil, err
	}
	return domain.RequiredDocuments(set), nil
}

func (f readerFake) GetShop(_ context.Context, shopID int64) (*domain.Shop, error) {
	return &domain.Shop{ID: shopID, Code: "SHP-1"}, nil
}

func (f readerFake) ListDocuments(context.Context, int64) ([]domain.DocumentRecord, error) {
	return nil, nil
}

func (f readerFake) Progress(_ context.Context, shopID int64) (*domain.ProgressReport, error) {
	p, ok := f.progress[shopID]
	if !ok {
		return nil, domain.WrapError(domain.ErrShopNotFound, "progress", fmt.Errorf("id=%d", shopID))
	}
	return p, nil
}

func (f readerFake) Stats(context.Context) (*domain.ApprovalStats, error) {
	return &domain.ApprovalStats{Total: 3, Pending: 3, PendingPercentage: 100}, nil
}

func call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	srv := NewServer(readerFake{progress: map[int64]*domain.ProgressReport{
		5: {TotalRequired: 4, UploadedCount: 2, Missing: []domain.DocumentType{domain.DocAddressProof}},
	}}, "test")
	tool := srv.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q is not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s handler error = %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestRequiredDocumentsTool(t *testing.T) {
	res := call(t, "required_documents", map[string]any{"category": "pharmacy"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var docs []domain.RequiredDocument
	if err := json.Unmarshal([]byte(resultText(t, res)), &docs); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	found := false
	for _, d := range docs {
		if d.Type == domain.DocDrugLicense {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected drug license for pharmacy, got %+v", docs)
	}
}

func TestRequiredDocumentsToolRejectsUnknownCategory(t *testing.T) {
	res := call(t, "required_documents", map[string]any{"category": "SPACESHIP"})
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
}

func TestShopProgressTool(t *testing.T) {
	res := call(t, "shop_progress", map[string]any{"shop_id": float64(5)})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var progress domain.ProgressReport
	if err := json.Unmarshal([]byte(resultText(t, res)), &progress); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if progress.UploadedCount != 2 || len(progress.Missing) != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestShopProgressToolErrors(t *testing.T) {
	if res := call(t, "shop_progress", map[string]any{"shop_id": float64(99)}); !res.IsError {
		t.Fatalf("expected not-found to be a tool error")
	}
	if res := call(t, "shop_progress", map[string]any{"shop_id": float64(-1)}); !res.IsError {
		t.Fatalf("expected negative id to be a tool error")
	}
	if res := call(t, "shop_progress", map[string]any{}); !res.IsError {
		t.Fatalf("expected missing id to be a tool error")
	}
}

func TestApprovalStatsTool(t *testing.T) {
	res := call(t, "approval_stats", nil)
	if res.IsError {
		t.Fatalf("unexpected tool error")
	}
	var stats domain.ApprovalStats
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if stats.Pending != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
