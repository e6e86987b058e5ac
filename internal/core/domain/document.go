package domain

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
	VerificationExpired  VerificationStatus = "EXPIRED"
)

// ParseVerificationStatus is the single normalization point for document status strings.
// APPROVED is accepted as a synonym of VERIFIED.
func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	switch s := VerificationStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case VerificationPending, VerificationVerified, VerificationRejected, VerificationExpired:
		return s, nil
	case "APPROVED":
		return VerificationVerified, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse verification status", fmt.Errorf("unknown status %q", raw))
	}
}

const MaxUploadBytes int64 = 10 * 1024 * 1024

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".docx": {},
	".doc":  {},
}

// AllowedExtensions lists the accepted file extensions, sorted.
func AllowedExtensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// ValidateUpload checks the file name extension and size before anything is stored.
// A non-positive maxBytes falls back to MaxUploadBytes.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if _, ok := allowedExtensions[ext]; !ok {
		return &ValidationError{
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("extension %q, allowed: %s", ext, strings.Join(AllowedExtensions(), " ")),
		}
	}
	if size <= 0 {
		return &ValidationError{Reason: ReasonEmptyFile}
	}
	if size > maxBytes {
		return &ValidationError{Reason: ReasonTooLarge, Detail: fmt.Sprintf("%d bytes exceeds %d", size, maxBytes)}
	}
	return nil
}

type DocumentRecord struct {
	ID                 int64              `json:"id"`
	ShopID             int64              `json:"shop_id"`
	DocumentType       DocumentType       `json:"document_type"`
	DocumentName       string             `json:"document_name"`
	OriginalFilename   string             `json:"original_filename"`
	FileType           string             `json:"file_type"`
	FileSizeBytes      int64              `json:"file_size_bytes"`
	StorageKey         string             `json:"-"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerificationNotes  string             `json:"verification_notes,omitempty"`
	VerifiedBy         string             `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	ExpiredAt          *time.Time         `json:"expired_at,omitempty"`
	PageCount          *int               `json:"page_count,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewDocumentRecord builds the PENDING record created when an upload completes.
func NewDocumentRecord(shopID int64, docType DocumentType, name, filename, fileType string, size int64, now time.Time) *DocumentRecord {
	if strings.TrimSpace(name) == "" {
		name = docType.DisplayName()
	}
	return &DocumentRecord{
		ShopID:             shopID,
		DocumentType:       docType,
		DocumentName:       name,
		OriginalFilename:   filename,
		FileType:           fileType,
		FileSizeBytes:      size,
		VerificationStatus: VerificationPending,
		CreatedAt:          now.UTC(),
	}
}

// ApplyVerification records a reviewer decision on a PENDING record. Reviewers
// decide VERIFIED or REJECTED only; EXPIRED belongs to the expiry sweep.
// The record is left unchanged when an error is returned.
func (d *DocumentRecord) ApplyVerification(status VerificationStatus, notes, reviewer string, at time.Time) error {
	if d.VerificationStatus != VerificationPending {
		return &InvalidTransitionError{From: string(d.VerificationStatus), To: string(status)}
	}
	switch status {
	case VerificationVerified:
	case VerificationRejected:
		if err := requireReason("verification_notes", notes); err != nil {
			return err
		}
	default:
		return &InvalidTransitionError{From: string(d.VerificationStatus), To: string(status)}
	}

	verifiedAt := at.UTC()
	d.VerificationStatus = status
	d.VerificationNotes = notes
	d.VerifiedBy = reviewer
	d.VerifiedAt = &verifiedAt
	return nil
}

// Expire marks a PENDING or VERIFIED record as EXPIRED. The reviewer fields of a
// verified record are kept so the history of the decision survives.
func (d *DocumentRecord) Expire(at time.Time) error {
	if d.VerificationStatus != VerificationPending && d.VerificationStatus != VerificationVerified {
		return &InvalidTransitionError{From: string(d.VerificationStatus), To: string(VerificationExpired)}
	}
	expiredAt := at.UTC()
	d.VerificationStatus = VerificationExpired
	d.ExpiredAt = &expiredAt
	return nil
}

func (d *DocumentRecord) Verify(notes, reviewer string, at time.Time) error {
	return d.ApplyVerification(VerificationVerified, notes, reviewer, at)
}

func (d *DocumentRecord) Reject(notes, reviewer string, at time.Time) error {
	return d.ApplyVerification(VerificationRejected, notes, reviewer, at)
}

// newerThan orders records by creation time, then by id.
func (d DocumentRecord) newerThan(other DocumentRecord) bool {
	if !d.CreatedAt.Equal(other.CreatedAt) {
		return d.CreatedAt.After(other.CreatedAt)
	}
	return d.ID > other.ID
}

// LatestByType returns the newest record of each document type.
func LatestByType(records []DocumentRecord) map[DocumentType]DocumentRecord {
	latest := make(map[DocumentType]DocumentRecord, len(records))
	for _, rec := range records {
		cur, ok := latest[rec.DocumentType]
		if !ok || rec.newerThan(cur) {
			latest[rec.DocumentType] = rec
		}
	}
	return latest
}
