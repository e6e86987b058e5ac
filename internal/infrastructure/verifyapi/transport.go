package verifyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
)

func (c *Client) getJSON(ctx context.Context, path string, out any, operation string) error {
	return c.sendJSON(ctx, http.MethodGet, path, nil, out, operation)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
	}

	call := func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := c.newRequest(ctx, method, path, reader)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.do(req, out, operation)
	}
	return c.execute(ctx, operation, call, resilience.ClassifyHTTP)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer, operation string) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resilience.WrapTemporary(operation, fmt.Errorf("verify api %s request: %w", operation, err), resilience.ClassifyHTTP)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return mapStatusError(operation, statusError(operation, resp))
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}
	return nil
}

// UploadDocument streams req.Body as multipart form data. progress is called with the
// number of file bytes handed to the transport so far. Uploads are never retried.
func (c *Client) UploadDocument(ctx context.Context, req ports.UploadRequest, progress func(sent int64)) (*domain.DocumentRecord, error) {
	const operation = "upload document"
	var out domain.DocumentRecord

	call := func(ctx context.Context) error {
		pr, pw := io.Pipe()
		form := multipart.NewWriter(pw)

		go func() {
			pw.CloseWithError(writeUploadForm(form, req, progress))
		}()

		httpReq, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/shops/%d/documents", req.ShopID), pr)
		if err != nil {
			_ = pr.Close()
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		httpReq.Header.Set("Content-Type", form.FormDataContentType())
		err = c.do(httpReq, &out, operation)
		_ = pr.CloseWithError(errors.New("upload finished"))
		return err
	}

	if err := c.execute(ctx, operation, call, resilience.SingleAttempt(resilience.ClassifyHTTP)); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeUploadForm(form *multipart.Writer, req ports.UploadRequest, progress func(int64)) error {
	if err := form.WriteField("documentType", string(req.DocumentType)); err != nil {
		return err
	}
	if req.DocumentName != "" {
		if err := form.WriteField("documentName", req.DocumentName); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.Filename)))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}

	counter := &progressWriter{w: part, report: progress}
	if _, err := io.Copy(counter, req.Body); err != nil {
		return err
	}
	return form.Close()
}

type progressWriter struct {
	w      io.Writer
	sent   int64
	report func(int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.sent += int64(n)
	if p.report != nil && n > 0 {
		p.report(p.sent)
	}
	return n, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any, operation string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify api %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(operation, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error, classifier resilience.ErrorClassifier) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "verifyapi."+strings.ReplaceAll(operation, " ", "_"), call, classifier)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return mapStatusError(operation, resilience.WrapTemporary(operation, err, resilience.ClassifyHTTP))
	}
	return nil
}

// errorBody is the JSON error envelope written by the verification API.
type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type apiError struct {
	*resilience.HTTPStatusError
	body errorBody
}

func (e *apiError) Unwrap() error { return e.HTTPStatusError }

func statusError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(raw))
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &apiError{
		HTTPStatusError: &resilience.HTTPStatusError{
			Service:    "verify api",
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       msg,
		},
		body: body,
	}
}

// mapStatusError restores the domain error the server reported so callers can
// branch on the same kinds as in-process callers.
func mapStatusError(operation string, err error) error {
	var remote *apiError
	if !errors.As(err, &remote) || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	switch remote.body.Code {
	case "missing_reason":
		return &domain.MissingReasonError{Field: remote.body.Field}
	case "validation_failed":
		return &domain.ValidationError{Reason: domain.ValidationReason(remote.body.Reason), Detail: remote.body.Error}
	case "shop_not_found":
		return domain.WrapError(domain.ErrShopNotFound, operation, err)
	case "document_not_found":
		return domain.WrapError(domain.ErrDocumentNotFound, operation, err)
	case "invalid_transition":
		return domain.WrapError(domain.ErrInvalidTransition, operation, err)
	}

	switch remote.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return domain.WrapError(domain.ErrInvalidInput, operation, err)
	case http.StatusUnauthorized:
		return domain.WrapError(domain.ErrUnauthorized, operation, err)
	case http.StatusForbidden:
		return domain.WrapError(domain.ErrForbidden, operation, err)
	case http.StatusConflict:
		return domain.WrapError(domain.ErrInvalidTransition, operation, err)
	default:
		return err
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
