package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

const (
	multipartMemory   = 1 << 20
	multipartOverhead = 64 << 10
)

type documentListResponse struct {
	Documents []domain.DocumentRecord `json:"documents"`
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := rt.docs.List(r.Context(), shopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentListResponse{Documents: docs})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	maxBytes := rt.cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &domain.ValidationError{
				Reason: domain.ReasonTooLarge,
				Detail: fmt.Sprintf("request exceeds %d bytes", maxBytes),
			})
			return
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse upload", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse upload", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	docType, err := domain.ParseDocumentType(r.FormValue("documentType"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := rt.docs.Upload(r.Context(), ports.UploadRequest{
		ShopID:       shopID,
		DocumentType: docType,
		DocumentName: r.FormValue("documentName"),
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
		Actor:        actorFromContext(r.Context()),
	})
	rt.recordUpload(string(docType), header.Size, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) setVerification(w http.ResponseWriter, r *http.Request) {
	documentID, err := pathID(r, "documentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusChangeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := domain.ParseVerificationStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := rt.docs.SetVerification(r.Context(), documentID, status, req.Notes, actorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordDecision(string(doc.VerificationStatus))
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) downloadDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := pathID(r, "documentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, body, err := rt.docs.Download(r.Context(), documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalFilename}))
	if doc.FileSizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("document_download_interrupted",
			"request_id", requestIDFromContext(r.Context()),
			"document_id", documentID,
			"error", err,
		)
	}
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := pathID(r, "documentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.docs.Delete(r.Context(), documentID, actorFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
