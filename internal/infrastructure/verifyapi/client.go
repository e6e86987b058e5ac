package verifyapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
)

// Client talks to the verification HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
}

var _ ports.VerificationAPI = (*Client)(nil)

func New(baseURL, token string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		executor:   executor,
	}
}

type documentList struct {
	Documents []domain.DocumentRecord `json:"documents"`
}

type shopList struct {
	Shops []domain.Shop `json:"shops"`
}

type requiredDocumentList struct {
	Category  domain.BusinessCategory   `json:"category"`
	Documents []domain.RequiredDocument `json:"documents"`
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func (c *Client) ListDocuments(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error) {
	var out documentList
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/shops/%d/documents", shopID), &out, "list documents"); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) SetVerification(ctx context.Context, documentID int64, status domain.VerificationStatus, notes string) (*domain.DocumentRecord, error) {
	if status == domain.VerificationRejected && strings.TrimSpace(notes) == "" {
		return nil, &domain.MissingReasonError{Field: "verification_notes"}
	}
	var out domain.DocumentRecord
	path := fmt.Sprintf("/v1/documents/%d/verification", documentID)
	if err := c.sendJSON(ctx, http.MethodPut, path, statusRequest{Status: string(status), Notes: notes}, &out, "set verification"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, documentID int64) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/documents/%d", documentID), nil, nil, "delete document")
}

func (c *Client) GetShop(ctx context.Context, shopID int64) (*domain.Shop, error) {
	var out domain.Shop
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/shops/%d", shopID), &out, "get shop"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetShopStatus(ctx context.Context, shopID int64, status domain.ShopStatus, notes string) (*domain.Shop, error) {
	if (status == domain.ShopRejected || status == domain.ShopSuspended) && strings.TrimSpace(notes) == "" {
		return nil, &domain.MissingReasonError{Field: "reason"}
	}
	var out domain.Shop
	path := fmt.Sprintf("/v1/shops/%d/status", shopID)
	if err := c.sendJSON(ctx, http.MethodPut, path, statusRequest{Status: string(status), Notes: notes}, &out, "set shop status"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterShop(ctx context.Context, reg domain.ShopRegistration) (*domain.Shop, error) {
	var out domain.Shop
	if err := c.sendJSON(ctx, http.MethodPost, "/v1/shops", reg, &out, "register shop"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListShops(ctx context.Context, filter domain.ShopFilter) ([]domain.Shop, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Category != "" {
		q.Set("category", string(filter.Category))
	}
	if filter.Limit > 0 {
		q.Set("limit", fmt.Sprint(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", fmt.Sprint(filter.Offset))
	}
	path := "/v1/shops"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out shopList
	if err := c.getJSON(ctx, path, &out, "list shops"); err != nil {
		return nil, err
	}
	return out.Shops, nil
}

func (c *Client) Progress(ctx context.Context, shopID int64) (*domain.ProgressReport, error) {
	var out domain.ProgressReport
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/shops/%d/progress", shopID), &out, "get progress"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*domain.ApprovalStats, error) {
	var out domain.ApprovalStats
	if err := c.getJSON(ctx, "/v1/approvals/stats", &out, "get approval stats"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequiredDocuments(ctx context.Context, category domain.BusinessCategory) ([]domain.RequiredDocument, error) {
	var out requiredDocumentList
	if err := c.getJSON(ctx, "/v1/catalog/"+url.PathEscape(string(category)), &out, "get catalog"); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// DownloadReport streams the XLSX verification report of a shop into w.
func (c *Client) DownloadReport(ctx context.Context, shopID int64, w io.Writer) error {
	return c.download(ctx, fmt.Sprintf("/v1/shops/%d/report.xlsx", shopID), w, "download report")
}
