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
	"dapur/internal/domain/sales"
)

const (
	salesTable           = "sales"
	saleLinesTable       = "sale_lines"
	saleConsumptionTable = "sale_consumption"
)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ sales.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txm *TxManager) *SaleRepo {
	return &SaleRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a sale with its line items and consumption snapshot.
func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	q := r.builder.Insert(salesTable).
		Columns("id", "owner_id", "customer_name", "date", "amount",
			"created_at", "updated_at").
		Values(s.ID, s.OwnerID, s.CustomerName, s.Date, s.Amount,
			s.CreatedAt, s.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if err := r.insertLines(ctx, s.ID, s.Lines); err != nil {
		return err
	}
	return r.insertConsumption(ctx, s.ID, s.Consumption)
}

// GetByID retrieves a sale with its line items and consumption snapshot.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	q := r.builder.Select("id", "owner_id", "customer_name", "date", "amount",
		"created_at", "updated_at").
		From(salesTable).
		Where(squirrel.Eq{"id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if s.Lines, err = r.getLines(ctx, saleID); err != nil {
		return nil, err
	}
	if s.Consumption, err = r.getConsumption(ctx, saleID); err != nil {
		return nil, err
	}
	return &s, nil
}

// List retrieves an owner's sales, optionally restricted to one month, with
// the total income over the whole filtered period.
func (r *SaleRepo) List(ctx context.Context, ownerID id.ID, filter sales.ListFilter) (sales.ListResult, error) {
	base := r.builder.Select().From(salesTable).
		Where(squirrel.Eq{"owner_id": ownerID})
	if filter.Month > 0 {
		base = base.Where(squirrel.Expr("EXTRACT(MONTH FROM date) = ?", filter.Month))
	}
	if filter.Year > 0 {
		base = base.Where(squirrel.Expr("EXTRACT(YEAR FROM date) = ?", filter.Year))
	}

	aggSQL, aggArgs, err := base.
		Columns("COUNT(*)", "COALESCE(SUM(amount), 0)").ToSql()
	if err != nil {
		return sales.ListResult{}, fmt.Errorf("build aggregate: %w", err)
	}
	var (
		total  int64
		income types.Money
	)
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, aggSQL, aggArgs...).Scan(&total, &income); err != nil {
		return sales.ListResult{}, fmt.Errorf("aggregate sales: %w", err)
	}

	q := base.Columns("id", "owner_id", "customer_name", "date", "amount",
		"created_at", "updated_at").
		OrderBy("date DESC", "created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return sales.ListResult{}, fmt.Errorf("build query: %w", err)
	}

	var items []*sales.Sale
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return sales.ListResult{}, fmt.Errorf("list sales: %w", err)
	}

	for _, s := range items {
		if s.Lines, err = r.getLines(ctx, s.ID); err != nil {
			return sales.ListResult{}, err
		}
	}
	return sales.ListResult{Items: items, TotalCount: total, TotalIncome: income}, nil
}

// Update replaces the sale record, its lines, and its snapshot.
func (r *SaleRepo) Update(ctx context.Context, s *sales.Sale) error {
	q := r.builder.Update(salesTable).
		Set("customer_name", s.CustomerName).
		Set("date", s.Date).
		Set("amount", s.Amount).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", s.ID)
	}

	if err := r.deleteChildren(ctx, s.ID); err != nil {
		return err
	}
	if err := r.insertLines(ctx, s.ID, s.Lines); err != nil {
		return err
	}
	return r.insertConsumption(ctx, s.ID, s.Consumption)
}

// Delete removes a sale with its lines and snapshot.
func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	if err := r.deleteChildren(ctx, saleID); err != nil {
		return err
	}

	sql, args, err := r.builder.Delete(salesTable).
		Where(squirrel.Eq{"id": saleID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}

func (r *SaleRepo) insertLines(ctx context.Context, saleID id.ID, lines []sales.SaleLine) error {
	if len(lines) == 0 {
		return nil
	}
	q := r.builder.Insert(saleLinesTable).
		Columns("sale_id", "line_no", "menu_id", "quantity", "unit_price")
	for _, line := range lines {
		q = q.Values(saleID, line.LineNo, line.MenuID, line.Quantity, line.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

func (r *SaleRepo) insertConsumption(ctx context.Context, saleID id.ID, entries []sales.ConsumptionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	q := r.builder.Insert(saleConsumptionTable).
		Columns("sale_id", "material_id", "material_name", "quantity", "unit")
	for _, e := range entries {
		q = q.Values(saleID, e.MaterialID, e.MaterialName, e.Quantity, e.Unit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert consumption: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert consumption snapshot: %w", err)
	}
	return nil
}

func (r *SaleRepo) deleteChildren(ctx context.Context, saleID id.ID) error {
	for _, table := range []string{saleLinesTable, saleConsumptionTable} {
		sql, args, err := r.builder.Delete(table).
			Where(squirrel.Eq{"sale_id": saleID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete from %s: %w", table, err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

func (r *SaleRepo) getLines(ctx context.Context, saleID id.ID) ([]sales.SaleLine, error) {
	q := r.builder.Select("line_no", "menu_id", "quantity", "unit_price").
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []sales.SaleLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}

func (r *SaleRepo) getConsumption(ctx context.Context, saleID id.ID) ([]sales.ConsumptionEntry, error) {
	q := r.builder.Select("material_id", "material_name", "quantity", "unit").
		From(saleConsumptionTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("material_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build consumption query: %w", err)
	}

	var entries []sales.ConsumptionEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("get consumption snapshot: %w", err)
	}
	return entries, nil
}
