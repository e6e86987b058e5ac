package httpadapter

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/core/domain"
)

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var payload errorResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", res.Body.String(), err)
	}
	return payload
}

func TestHealthz(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/healthz", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRegisterShop(t *testing.T) {
	svc := newTestServices()
	h := svc.handler(config.Config{})

	res := doJSON(t, h, http.MethodPost, "/v1/shops",
		`{"name":"Corner Store","owner_email":"owner@example.com","category":"grocery"}`)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if svc.shops.lastReg.Category != "grocery" {
		t.Fatalf("expected raw category passed through, got %q", svc.shops.lastReg.Category)
	}
}

func TestRegisterShopRejectsSchemaViolations(t *testing.T) {
	h := newTestHandler(config.Config{})

	res := doJSON(t, h, http.MethodPost, "/v1/shops", `{"owner_email":"owner@example.com","category":"GENERAL"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := decodeError(t, res).Code; got != "invalid_request" {
		t.Fatalf("expected invalid_request, got %q", got)
	}
}

func TestGetShopNotFound(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/shops/404", "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if got := decodeError(t, res).Code; got != "shop_not_found" {
		t.Fatalf("expected shop_not_found, got %q", got)
	}
}

func TestShopIDMustBeNumeric(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/shops/abc", "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListShopsBindsFilter(t *testing.T) {
	svc := newTestServices()
	res := doJSON(t, svc.handler(config.Config{}), http.MethodGet, "/v1/shops?status=pending&category=PHARMACY&limit=5&offset=10", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	got := svc.shops.lastList
	if got.Status != domain.ShopPending || got.Category != "PHARMACY" || got.Limit != 5 || got.Offset != 10 {
		t.Fatalf("unexpected filter %+v", got)
	}
}

func TestListShopsRejectsUnknownCategory(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/shops?category=SPACESHIP", "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := decodeError(t, res).Code; got != "invalid_category" {
		t.Fatalf("expected invalid_category, got %q", got)
	}
}

func TestRejectShopWithoutReason(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodPut, "/v1/shops/7/reject", "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
	}
	payload := decodeError(t, res)
	if payload.Code != "missing_reason" || payload.Field != "reason" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestApproveShopRecordsActor(t *testing.T) {
	svc := newTestServices()
	res := doJSON(t, svc.handler(config.Config{}), http.MethodPut, "/v1/shops/7/approve", `{"notes":"all good"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if svc.shops.lastActor != systemActor || svc.shops.lastNotes != "all good" {
		t.Fatalf("unexpected actor %q notes %q", svc.shops.lastActor, svc.shops.lastNotes)
	}
}

func TestSetShopStatusInvalidTransitionIsConflict(t *testing.T) {
	svc := newTestServices()
	svc.shops.setErr = &domain.InvalidTransitionError{From: "REJECTED", To: "APPROVED"}

	res := doJSON(t, svc.handler(config.Config{}), http.MethodPut, "/v1/shops/7/status", `{"status":"APPROVED"}`)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	if got := decodeError(t, res).Code; got != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", got)
	}
}

func TestGetCatalog(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/catalog/general", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var payload catalogResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if payload.Category != "GENERAL" || len(payload.Documents) != 1 {
		t.Fatalf("unexpected catalog %+v", payload)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	svc := newTestServices()
	body, contentType := multipartBody(t, map[string]string{
		"documentType": "pan_card",
		"documentName": "Owner PAN",
	}, "pan.pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/v1/shops/7/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	svc.handler(config.Config{}).ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if len(svc.docs.uploaded) != 1 {
		t.Fatalf("expected one upload, got %d", len(svc.docs.uploaded))
	}
	got := svc.docs.uploaded[0]
	if got.ShopID != 7 || got.DocumentType != domain.DocPANCard || got.DocumentName != "Owner PAN" {
		t.Fatalf("unexpected upload request %+v", got)
	}
	if got.Filename != "pan.pdf" || got.Size != int64(len("%PDF-1.4")) {
		t.Fatalf("unexpected file metadata %+v", got)
	}
	if got.Actor != systemActor {
		t.Fatalf("expected uploader %q, got %q", systemActor, got.Actor)
	}
	if string(svc.docs.uploadBody) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", svc.docs.uploadBody)
	}
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	svc := newTestServices()
	body, contentType := multipartBody(t, map[string]string{"documentType": "PAN_CARD"}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/shops/7/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	svc.handler(config.Config{}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if len(svc.docs.uploaded) != 0 {
		t.Fatalf("service must not be called")
	}
}

func TestUploadDocumentTooLarge(t *testing.T) {
	svc := newTestServices()
	body, contentType := multipartBody(t, map[string]string{"documentType": "PAN_CARD"}, "big.pdf", bytes.Repeat([]byte("a"), 200<<10))

	req := httptest.NewRequest(http.MethodPost, "/v1/shops/7/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	svc.handler(config.Config{MaxUploadBytes: 16}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	payload := decodeError(t, res)
	if payload.Code != "validation_failed" || payload.Reason != string(domain.ReasonTooLarge) {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestUploadValidationErrorCarriesReason(t *testing.T) {
	svc := newTestServices()
	svc.docs.uploadErr = &domain.ValidationError{Reason: domain.ReasonUnsupportedType, Detail: ".exe"}
	body, contentType := multipartBody(t, map[string]string{"documentType": "PAN_CARD"}, "virus.exe", []byte("MZ"))

	req := httptest.NewRequest(http.MethodPost, "/v1/shops/7/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	svc.handler(config.Config{}).ServeHTTP(res, req)

	payload := decodeError(t, res)
	if res.Code != http.StatusBadRequest || payload.Reason != "unsupported_type" {
		t.Fatalf("unexpected response %d %+v", res.Code, payload)
	}
}

func TestSetVerificationRejectRequiresNotes(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodPut, "/v1/documents/3/verification", `{"status":"REJECTED"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
	}
	payload := decodeError(t, res)
	if payload.Code != "missing_reason" || payload.Field != "verification_notes" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestSetVerificationAcceptsApprovedAlias(t *testing.T) {
	svc := newTestServices()
	res := doJSON(t, svc.handler(config.Config{}), http.MethodPut, "/v1/documents/3/verification", `{"status":"APPROVED"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var doc domain.DocumentRecord
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.VerificationStatus != domain.VerificationVerified {
		t.Fatalf("expected VERIFIED, got %s", doc.VerificationStatus)
	}
	if svc.docs.reviewer != systemActor {
		t.Fatalf("expected reviewer %q, got %q", systemActor, svc.docs.reviewer)
	}
}

func TestSetVerificationRefusesReviewerExpiry(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodPut, "/v1/documents/3/verification", `{"status":"EXPIRED"}`)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.Code, res.Body.String())
	}
	if payload := decodeError(t, res); payload.Code != "invalid_transition" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestOpenAPIDocumentIsServed(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/openapi.yaml", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.HasPrefix(res.Header().Get("Content-Type"), "application/yaml") {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if !bytes.Equal(res.Body.Bytes(), openapiSpec) {
		t.Fatalf("expected embedded document")
	}
}

func TestDownloadDocumentSetsHeaders(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/documents/3/download", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := res.Header().Get("Content-Disposition"); got != `attachment; filename="pan card.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if res.Body.String() != "%PDF-" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestDeleteDocument(t *testing.T) {
	svc := newTestServices()
	h := svc.handler(config.Config{})

	res := doJSON(t, h, http.MethodDelete, "/v1/documents/3", "")
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	res = doJSON(t, h, http.MethodDelete, "/v1/documents/3", "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", res.Code)
	}
}

func TestExportReport(t *testing.T) {
	res := doJSON(t, newTestHandler(config.Config{}), http.MethodGet, "/v1/shops/7/report.xlsx", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != xlsxContentType {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "shop-7-verification.xlsx") {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
}

func TestExportReportFailureIsNotPartiallyWritten(t *testing.T) {
	svc := newTestServices()
	svc.reports.err = domain.WrapError(domain.ErrTemporary, "export", errTestUnavailable)

	res := doJSON(t, svc.handler(config.Config{}), http.MethodGet, "/v1/shops/7/report.xlsx", "")
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "PK-") {
		t.Fatalf("expected no workbook bytes in error response")
	}
}
