package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/ledger"
)

const materialsTable = "materials"

// MaterialRepo implements material.Repository and ledger.Store over the
// same table: the catalog owns the descriptive columns, the ledger owns
// the stock and version columns.
type MaterialRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var (
	_ material.Repository = (*MaterialRepo)(nil)
	_ ledger.Store        = (*MaterialRepo)(nil)
)

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(txm *TxManager) *MaterialRepo {
	return &MaterialRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a material with its initial stock.
func (r *MaterialRepo) Create(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Insert(materialsTable).
		Columns("id", "owner_id", "name", "category", "unit", "stock",
			"minimum_stock", "price", "version", "created_at", "updated_at").
		Values(m.ID, m.OwnerID, m.Name, m.Category, m.Unit, m.Stock,
			m.MinimumStock, m.Price, m.Version, m.CreatedAt, m.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetByID retrieves one material.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	q := r.builder.Select("id", "owner_id", "name", "category", "unit", "stock",
		"minimum_stock", "price", "version", "created_at", "updated_at").
		From(materialsTable).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("material", materialID)
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// List retrieves an owner's materials with optional name search.
func (r *MaterialRepo) List(ctx context.Context, ownerID id.ID, filter material.ListFilter) (material.ListResult, error) {
	base := r.builder.Select().From(materialsTable).
		Where(squirrel.Eq{"owner_id": ownerID})
	if filter.Search != "" {
		base = base.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}

	countSQL, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return material.ListResult{}, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return material.ListResult{}, fmt.Errorf("count materials: %w", err)
	}

	q := base.Columns("id", "owner_id", "name", "category", "unit", "stock",
		"minimum_stock", "price", "version", "created_at", "updated_at").
		OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return material.ListResult{}, fmt.Errorf("build query: %w", err)
	}

	var items []*material.RawMaterial
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return material.ListResult{}, fmt.Errorf("list materials: %w", err)
	}
	return material.ListResult{Items: items, TotalCount: total}, nil
}

// Update persists descriptive fields only; stock and version belong to
// the ledger.
func (r *MaterialRepo) Update(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Update(materialsTable).
		Set("name", m.Name).
		Set("category", m.Category).
		Set("unit", m.Unit).
		Set("minimum_stock", m.MinimumStock).
		Set("price", m.Price).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": m.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("material", m.ID)
	}
	return nil
}

// Delete removes a material.
func (r *MaterialRepo) Delete(ctx context.Context, materialID id.ID) error {
	q := r.builder.Delete(materialsTable).Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("material", materialID)
	}
	return nil
}

// --- ledger.Store ---

// GetRecord reads the stock record for the ledger.
func (r *MaterialRepo) GetRecord(ctx context.Context, materialID id.ID) (ledger.Record, error) {
	q := r.builder.Select("id", "name", "unit", "stock", "minimum_stock", "version").
		From(materialsTable).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.Record{}, fmt.Errorf("build query: %w", err)
	}

	var rec ledger.Record
	row := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
	if err := row.Scan(&rec.MaterialID, &rec.Name, &rec.Unit, &rec.Quantity,
		&rec.MinimumStock, &rec.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Record{}, apperror.NewNotFound("material", materialID)
		}
		return ledger.Record{}, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}

// ApplyDelta adds a signed quantity to the stock, guarded by the record
// version and the non-negative constraint. A guard miss is reported as
// ErrVersionConflict; the ledger re-reads and reclassifies.
func (r *MaterialRepo) ApplyDelta(ctx context.Context, materialID id.ID, delta types.Quantity, expectedVersion int) (int, error) {
	q := r.builder.Update(materialsTable).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": materialID}).
		Where(squirrel.Eq{"version": expectedVersion}).
		Where(squirrel.Expr("stock + ? >= 0", delta)).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delta update: %w", err)
	}

	var newVersion int
	row := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
	if err := row.Scan(&newVersion); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("apply delta: %w", err)
		}
		// Guard failed: distinguish a missing record from a stale version.
		if _, gerr := r.GetRecord(ctx, materialID); gerr != nil {
			return 0, gerr
		}
		return 0, ledger.ErrVersionConflict
	}
	return newVersion, nil
}
