package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

const documentTable = "shop_documents"

var documentColumns = []string{
	"id",
	"shop_id",
	"document_type",
	"document_name",
	"original_filename",
	"file_type",
	"file_size_bytes",
	"storage_key",
	"verification_status",
	"verification_notes",
	"verified_by",
	"verified_at",
	"expired_at",
	"page_count",
	"created_at",
}

type documentRow struct {
	ID                 int64      `db:"id"`
	ShopID             int64      `db:"shop_id"`
	DocumentType       string     `db:"document_type"`
	DocumentName       string     `db:"document_name"`
	OriginalFilename   string     `db:"original_filename"`
	FileType           string     `db:"file_type"`
	FileSizeBytes      int64      `db:"file_size_bytes"`
	StorageKey         string     `db:"storage_key"`
	VerificationStatus string     `db:"verification_status"`
	VerificationNotes  *string    `db:"verification_notes"`
	VerifiedBy         *string    `db:"verified_by"`
	VerifiedAt         *time.Time `db:"verified_at"`
	ExpiredAt          *time.Time `db:"expired_at"`
	PageCount          *int       `db:"page_count"`
	CreatedAt          time.Time  `db:"created_at"`
}

func (r documentRow) toDomain() domain.DocumentRecord {
	doc := domain.DocumentRecord{
		ID:                 r.ID,
		ShopID:             r.ShopID,
		DocumentType:       domain.DocumentType(r.DocumentType),
		DocumentName:       r.DocumentName,
		OriginalFilename:   r.OriginalFilename,
		FileType:           r.FileType,
		FileSizeBytes:      r.FileSizeBytes,
		StorageKey:         r.StorageKey,
		VerificationStatus: domain.VerificationStatus(r.VerificationStatus),
		VerifiedAt:         r.VerifiedAt,
		ExpiredAt:          r.ExpiredAt,
		PageCount:          r.PageCount,
		CreatedAt:          r.CreatedAt,
	}
	if r.VerificationNotes != nil {
		doc.VerificationNotes = *r.VerificationNotes
	}
	if r.VerifiedBy != nil {
		doc.VerifiedBy = *r.VerifiedBy
	}
	return doc
}

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.DocumentRecord) error {
	query, args, err := psql().
		Insert(documentTable).
		Columns(documentColumns[1:]...).
		Values(
			doc.ShopID,
			string(doc.DocumentType),
			doc.DocumentName,
			doc.OriginalFilename,
			doc.FileType,
			doc.FileSizeBytes,
			doc.StorageKey,
			string(doc.VerificationStatus),
			nullString(doc.VerificationNotes),
			nullString(doc.VerifiedBy),
			doc.VerifiedAt,
			doc.ExpiredAt,
			doc.PageCount,
			doc.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert document: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc.ID); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.DocumentRecord, error) {
	query, args, err := psql().
		Select(documentColumns...).
		From(documentTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select document: %w", err)
	}

	var row documentRow
	if err := sqlscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if isNoRows(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc := row.toDomain()
	return &doc, nil
}

// ListByShop returns every record of the shop, newest first.
func (r *DocumentRepository) ListByShop(ctx context.Context, shopID int64) ([]domain.DocumentRecord, error) {
	query, args, err := psql().
		Select(documentColumns...).
		From(documentTable).
		Where(squirrel.Eq{"shop_id": shopID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list documents: %w", err)
	}

	var rows []documentRow
	if err := sqlscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]domain.DocumentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateVerification stores a reviewer decision. Only PENDING rows are updated, so two
// reviewers racing on the same record cannot both win.
func (r *DocumentRepository) UpdateVerification(ctx context.Context, doc *domain.DocumentRecord) error {
	query, args, err := psql().
		Update(documentTable).
		Set("verification_status", string(doc.VerificationStatus)).
		Set("verification_notes", nullString(doc.VerificationNotes)).
		Set("verified_by", nullString(doc.VerifiedBy)).
		Set("verified_at", doc.VerifiedAt).
		Where(squirrel.Eq{"id": doc.ID, "verification_status": string(domain.VerificationPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update verification: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, doc.ID); err != nil {
			return err
		}
		return domain.WrapError(domain.ErrInvalidTransition, "update verification",
			fmt.Errorf("document %d is no longer pending", doc.ID))
	}
	return nil
}

// MarkExpired stores an expiry. Only PENDING and VERIFIED rows can expire, so a record
// that was rejected or deleted since the sweep loaded it is left alone.
func (r *DocumentRepository) MarkExpired(ctx context.Context, doc *domain.DocumentRecord) error {
	query, args, err := psql().
		Update(documentTable).
		Set("verification_status", string(domain.VerificationExpired)).
		Set("expired_at", doc.ExpiredAt).
		Where(squirrel.Eq{
			"id":                  doc.ID,
			"verification_status": []string{string(domain.VerificationPending), string(domain.VerificationVerified)},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark expired: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark expired rows affected: %w", err)
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, doc.ID)
		if err != nil {
			return err
		}
		return &domain.InvalidTransitionError{From: string(current.VerificationStatus), To: string(domain.VerificationExpired)}
	}
	return nil
}

func (r *DocumentRepository) SavePageCount(ctx context.Context, id int64, pages int) error {
	query, args, err := psql().
		Update(documentTable).
		Set("page_count", pages).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save page count: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save page count: %w", err)
	}
	return requireAffected(res, domain.ErrDocumentNotFound, "save page count", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql().
		Delete(documentTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete document: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(res, domain.ErrDocumentNotFound, "delete document", id)
}

func requireAffected(res sql.Result, kind error, op string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, op, fmt.Errorf("id=%d", id))
	}
	return nil
}

func isNoRows(err error) bool {
	return sqlscan.NotFound(err) || errors.Is(err, sql.ErrNoRows)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
