package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
)

// WebhookNotifier POSTs owner notifications as JSON to a configured endpoint,
// typically a mail or SMS relay.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewWebhookNotifier(url string, executor *resilience.Executor) *WebhookNotifier {
	return &WebhookNotifier{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		executor:   executor,
	}
}

func (n *WebhookNotifier) NotifyOwner(ctx context.Context, notification domain.OwnerNotification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("webhook request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &resilience.HTTPStatusError{
				Service:    "webhook",
				Operation:  "notify",
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(raw),
			}
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if n.executor != nil {
		err = n.executor.Execute(ctx, "webhook.notify", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return resilience.WrapTemporary("notify owner", err, resilience.ClassifyHTTP)
	}
	slog.Info("owner_notified", "shop_id", notification.ShopID, "status", notification.Status)
	return nil
}

// LogNotifier only logs notifications. Used when no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOwner(_ context.Context, notification domain.OwnerNotification) error {
	slog.Info("owner_notification",
		"shop_id", notification.ShopID,
		"shop_code", notification.ShopCode,
		"owner_email", notification.OwnerEmail,
		"status", notification.Status,
		"notes", notification.Notes,
	)
	return nil
}
