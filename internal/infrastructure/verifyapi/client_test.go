package verifyapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListDocumentsSendsBearerToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/shops/7/documents" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"documents":[{"id":1,"shop_id":7,"document_type":"GST_CERTIFICATE","verification_status":"PENDING"}]}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", "secret", testExecutor())
	docs, err := client.ListDocuments(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if len(docs) != 1 || docs[0].DocumentType != domain.DocGSTCertificate {
		t.Fatalf("unexpected documents %+v", docs)
	}
}

func TestGetShopRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":3,"code":"SHP-1","status":"PENDING"}`))
	}))
	defer server.Close()

	shop, err := New(server.URL, "", testExecutor()).GetShop(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetShop() error = %v", err)
	}
	if shop.Code != "SHP-1" || calls.Load() != 2 {
		t.Fatalf("unexpected shop %+v after %d calls", shop, calls.Load())
	}
}

func TestNotFoundMapsToDomainKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errorBody{Error: "get shop: shop not found: id=9", Code: "shop_not_found"})
	}))
	defer server.Close()

	_, err := New(server.URL, "", testExecutor()).GetShop(context.Background(), 9)
	if !domain.IsKind(err, domain.ErrShopNotFound) {
		t.Fatalf("expected shop not found, got %v", err)
	}
}

func TestConflictMapsToInvalidTransition(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusConflict, errorBody{Error: "cannot transition from APPROVED to PENDING", Code: "invalid_transition"})
	}))
	defer server.Close()

	_, err := New(server.URL, "", testExecutor()).SetShopStatus(context.Background(), 1, domain.ShopPending, "")
	if !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected conflict not retried, got %d calls", calls.Load())
	}
}

func TestRejectWithoutReasonFailsBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()
	client := New(server.URL, "", testExecutor())

	_, err := client.SetVerification(context.Background(), 4, domain.VerificationRejected, "  ")
	var missing *domain.MissingReasonError
	if !errors.As(err, &missing) || missing.Field != "verification_notes" {
		t.Fatalf("expected missing verification notes, got %v", err)
	}
	_, err = client.SetShopStatus(context.Background(), 4, domain.ShopSuspended, "")
	if !errors.As(err, &missing) || missing.Field != "reason" {
		t.Fatalf("expected missing reason, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request, got %d", calls.Load())
	}
}

func TestSetVerificationSendsDecision(t *testing.T) {
	var got statusRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v1/documents/5/verification" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":5,"verification_status":"REJECTED","verification_notes":"blurry"}`))
	}))
	defer server.Close()

	doc, err := New(server.URL, "", testExecutor()).SetVerification(context.Background(), 5, domain.VerificationRejected, "blurry")
	if err != nil {
		t.Fatalf("SetVerification() error = %v", err)
	}
	if got.Status != "REJECTED" || got.Notes != "blurry" {
		t.Fatalf("unexpected request %+v", got)
	}
	if doc.VerificationStatus != domain.VerificationRejected {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestUploadDocumentStreamsMultipartAndReportsProgress(t *testing.T) {
	content := strings.Repeat("x", 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("documentType") != "PAN_CARD" {
			t.Errorf("unexpected documentType %q", r.FormValue("documentType"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if len(data) != len(content) || header.Filename != "pan.pdf" {
			t.Errorf("unexpected file %s with %d bytes", header.Filename, len(data))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":11,"shop_id":2,"document_type":"PAN_CARD","verification_status":"PENDING"}`))
	}))
	defer server.Close()

	var last int64
	doc, err := New(server.URL, "", testExecutor()).UploadDocument(context.Background(), ports.UploadRequest{
		ShopID:       2,
		DocumentType: domain.DocPANCard,
		Filename:     "pan.pdf",
		ContentType:  "application/pdf",
		Size:         int64(len(content)),
		Body:         strings.NewReader(content),
	}, func(sent int64) {
		if sent < last {
			t.Errorf("progress went backwards: %d < %d", sent, last)
		}
		last = sent
	})
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if doc.ID != 11 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if last != int64(len(content)) {
		t.Fatalf("expected final progress %d, got %d", len(content), last)
	}
}

func TestUploadDocumentIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "storage down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "", testExecutor()).UploadDocument(context.Background(), ports.UploadRequest{
		ShopID:       2,
		DocumentType: domain.DocPANCard,
		Filename:     "pan.pdf",
		Body:         strings.NewReader("data"),
	}, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestUploadValidationErrorIsRestored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeError(w, http.StatusBadRequest, errorBody{Error: "file too large", Code: "validation_failed", Reason: "too_large"})
	}))
	defer server.Close()

	_, err := New(server.URL, "", nil).UploadDocument(context.Background(), ports.UploadRequest{
		ShopID:   2,
		Filename: "big.pdf",
		Body:     strings.NewReader("data"),
	}, nil)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Reason != domain.ReasonTooLarge {
		t.Fatalf("expected too_large validation error, got %v", err)
	}
}

func TestDownloadReportCopiesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/shops/3/report.xlsx" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("PK-xlsx"))
	}))
	defer server.Close()

	var out strings.Builder
	if err := New(server.URL, "", nil).DownloadReport(context.Background(), 3, &out); err != nil {
		t.Fatalf("DownloadReport() error = %v", err)
	}
	if out.String() != "PK-xlsx" {
		t.Fatalf("unexpected body %q", out.String())
	}
}
