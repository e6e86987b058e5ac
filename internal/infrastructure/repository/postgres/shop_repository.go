package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

const (
	shopTable    = "shops"
	historyTable = "shop_status_history"
)

var shopColumns = []string{
	"id",
	"code",
	"name",
	"owner_name",
	"owner_email",
	"owner_phone",
	"category",
	"status",
	"created_at",
	"updated_at",
}

var historyColumns = []string{"shop_id", "status", "notes", "actor", "created_at"}

type shopRow struct {
	ID         int64     `db:"id"`
	Code       string    `db:"code"`
	Name       string    `db:"name"`
	OwnerName  string    `db:"owner_name"`
	OwnerEmail string    `db:"owner_email"`
	OwnerPhone string    `db:"owner_phone"`
	Category   string    `db:"category"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r shopRow) toDomain() domain.Shop {
	return domain.Shop{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		OwnerName:  r.OwnerName,
		OwnerEmail: r.OwnerEmail,
		OwnerPhone: r.OwnerPhone,
		Category:   domain.BusinessCategory(r.Category),
		Status:     domain.ShopStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type historyRow struct {
	Status    string    `db:"status"`
	Notes     string    `db:"notes"`
	Actor     string    `db:"actor"`
	CreatedAt time.Time `db:"created_at"`
}

type statusCountRow struct {
	Status string `db:"status"`
	Total  int64  `db:"total"`
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	sqlscan.Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ShopRepository struct {
	db *sql.DB
}

func NewShopRepository(db *sql.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Create inserts the shop with its initial history in one transaction.
func (r *ShopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create shop tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := psql().
		Insert(shopTable).
		Columns(shopColumns[1:]...).
		Values(
			shop.Code,
			shop.Name,
			shop.OwnerName,
			shop.OwnerEmail,
			shop.OwnerPhone,
			string(shop.Category),
			string(shop.Status),
			shop.CreatedAt,
			shop.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert shop: %w", err)
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&shop.ID); err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}

	for _, entry := range shop.StatusHistory {
		if err := insertHistory(ctx, tx, shop.ID, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create shop tx: %w", err)
	}
	return nil
}

func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	return loadShop(ctx, r.db, id, false)
}

func (r *ShopRepository) List(ctx context.Context, filter domain.ShopFilter) ([]domain.Shop, error) {
	builder := psql().
		Select(shopColumns...).
		From(shopTable).
		OrderBy("created_at DESC", "id DESC")
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Category != "" {
		builder = builder.Where(squirrel.Eq{"category": string(filter.Category)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list shops: %w", err)
	}
	var rows []shopRow
	if err := sqlscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}

	out := make([]domain.Shop, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ShopRepository) CountByStatus(ctx context.Context) (map[domain.ShopStatus]int64, error) {
	query, args, err := psql().
		Select("status", "COUNT(*) AS total").
		From(shopTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count shops: %w", err)
	}

	var rows []statusCountRow
	if err := sqlscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count shops: %w", err)
	}
	counts := make(map[domain.ShopStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.ShopStatus(row.Status)] = row.Total
	}
	return counts, nil
}

// UpdateStatus locks the shop row, lets fn decide the transition and persists the
// new status with its history entry. Nothing is written when fn fails.
func (r *ShopRepository) UpdateStatus(ctx context.Context, id int64, fn ports.ShopTransitionFunc) (*domain.Shop, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update shop status tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	shop, err := loadShop(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	entry, err := fn(shop)
	if err != nil {
		return nil, err
	}

	query, args, err := psql().
		Update(shopTable).
		Set("status", string(shop.Status)).
		Set("updated_at", shop.UpdatedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update shop status: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update shop status: %w", err)
	}
	if err := insertHistory(ctx, tx, id, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update shop status tx: %w", err)
	}
	return shop, nil
}

func loadShop(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Shop, error) {
	builder := psql().
		Select(shopColumns...).
		From(shopTable).
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select shop: %w", err)
	}

	var row shopRow
	if err := sqlscan.Get(ctx, q, &row, query, args...); err != nil {
		if isNoRows(err) {
			return nil, domain.WrapError(domain.ErrShopNotFound, "get shop", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("scan shop: %w", err)
	}
	shop := row.toDomain()

	query, args, err = psql().
		Select(historyColumns[1:]...).
		From(historyTable).
		Where(squirrel.Eq{"shop_id": id}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select shop history: %w", err)
	}
	var history []historyRow
	if err := sqlscan.Select(ctx, q, &history, query, args...); err != nil {
		return nil, fmt.Errorf("load shop history: %w", err)
	}
	shop.StatusHistory = make([]domain.StatusHistoryEntry, 0, len(history))
	for _, h := range history {
		shop.StatusHistory = append(shop.StatusHistory, domain.StatusHistoryEntry{
			Status:    domain.ShopStatus(h.Status),
			Timestamp: h.CreatedAt,
			Notes:     h.Notes,
			Actor:     h.Actor,
		})
	}
	return &shop, nil
}

func insertHistory(ctx context.Context, q querier, shopID int64, entry domain.StatusHistoryEntry) error {
	query, args, err := psql().
		Insert(historyTable).
		Columns(historyColumns...).
		Values(shopID, string(entry.Status), entry.Notes, entry.Actor, entry.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert shop history: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert shop history: %w", err)
	}
	return nil
}
