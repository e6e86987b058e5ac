package mcpadapter

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

// VerificationReader is the read side of the verification API exposed to assistants.
type VerificationReader interface {
	RequiredDocuments(ctx context.Context, category domain.BusinessCategory) ([]domain.RequiredDocument, error)
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	ListDocuments(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error)
	Progress(ctx context.Context, shopID int64) (*domain.ProgressReport, error)
	Stats(ctx context.Context) (*domain.ApprovalStats, error)
}

const instructions = "Read-only access to shop verification. Use required_documents before asking an " +
	"owner for paperwork and shop_progress to see what is still missing or unverified."

func NewServer(api VerificationReader, version string) *server.MCPServer {
	s := server.NewMCPServer("shop-verification", version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	t := tools{api: api}

	s.AddTool(mcp.NewTool("required_documents",
		mcp.WithDescription("List the documents a business category must submit"),
		mcp.WithString("category", mcp.Required(), mcp.Description("Business category, e.g. PHARMACY")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.requiredDocuments)

	s.AddTool(mcp.NewTool("shop_details",
		mcp.WithDescription("Show a shop with its approval status history"),
		mcp.WithNumber("shop_id", mcp.Required(), mcp.Description("Numeric shop id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.shopDetails)

	s.AddTool(mcp.NewTool("shop_documents",
		mcp.WithDescription("List every uploaded document record of a shop, newest first"),
		mcp.WithNumber("shop_id", mcp.Required(), mcp.Description("Numeric shop id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.shopDocuments)

	s.AddTool(mcp.NewTool("shop_progress",
		mcp.WithDescription("Report uploaded and verified counts, missing types and whether every required document is verified"),
		mcp.WithNumber("shop_id", mcp.Required(), mcp.Description("Numeric shop id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.shopProgress)

	s.AddTool(mcp.NewTool("approval_stats",
		mcp.WithDescription("Count shops per approval status"),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.approvalStats)

	return s
}

type tools struct {
	api VerificationReader
}

func (t tools) requiredDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := domain.ParseBusinessCategory(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := t.api.RequiredDocuments(ctx, category)
	return jsonResult(docs, err)
}

func (t tools) shopDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shopID, err := shopIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shop, err := t.api.GetShop(ctx, shopID)
	return jsonResult(shop, err)
}

func (t tools) shopDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shopID, err := shopIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := t.api.ListDocuments(ctx, shopID)
	return jsonResult(docs, err)
}

func (t tools) shopProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shopID, err := shopIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	progress, err := t.api.Progress(ctx, shopID)
	return jsonResult(progress, err)
}

func (t tools) approvalStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.api.Stats(ctx)
	return jsonResult(stats, err)
}

func shopIDArg(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("shop_id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("shop_id must be positive, got %d", id)
	}
	return int64(id), nil
}

// jsonResult turns domain failures into tool errors the model can read. Only
// encoding problems surface as protocol errors.
func jsonResult[T any](data T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultJSON(data)
}
