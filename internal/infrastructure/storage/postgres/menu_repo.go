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
	"dapur/internal/domain/catalogs/menu"
)

const (
	menusTable       = "menus"
	recipeLinesTable = "recipe_lines"
)

// MenuRepo implements menu.Repository.
type MenuRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ menu.Repository = (*MenuRepo)(nil)

// NewMenuRepo creates a menu repository.
func NewMenuRepo(txm *TxManager) *MenuRepo {
	return &MenuRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a menu without lines; SaveLines persists the recipe.
func (r *MenuRepo) Create(ctx context.Context, m *menu.Menu) error {
	q := r.builder.Insert(menusTable).
		Columns("id", "owner_id", "name", "category", "price", "created_at", "updated_at").
		Values(m.ID, m.OwnerID, m.Name, m.Category, m.Price, m.CreatedAt, m.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert menu: %w", err)
	}
	return nil
}

// GetByID retrieves a live menu with its recipe lines. Retired menus are
// reported as NOT_FOUND so they can never resolve into a sale.
func (r *MenuRepo) GetByID(ctx context.Context, menuID id.ID) (*menu.Menu, error) {
	q := r.builder.Select("id", "owner_id", "name", "category", "price",
		"created_at", "updated_at", "deleted_at").
		From(menusTable).
		Where(squirrel.Eq{"id": menuID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m menu.Menu
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("menu", menuID)
		}
		return nil, fmt.Errorf("get menu: %w", err)
	}

	lines, err := r.getLines(ctx, menuID)
	if err != nil {
		return nil, err
	}
	m.Lines = lines
	return &m, nil
}

// List retrieves an owner's menus with their recipe lines.
func (r *MenuRepo) List(ctx context.Context, ownerID id.ID, filter menu.ListFilter) (menu.ListResult, error) {
	base := r.builder.Select().From(menusTable).
		Where(squirrel.Eq{"owner_id": ownerID})
	if !filter.IncludeRetired {
		base = base.Where(squirrel.Eq{"deleted_at": nil})
	}
	if filter.Search != "" {
		base = base.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.Category != "" {
		base = base.Where(squirrel.Eq{"category": filter.Category})
	}

	countSQL, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return menu.ListResult{}, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return menu.ListResult{}, fmt.Errorf("count menus: %w", err)
	}

	q := base.Columns("id", "owner_id", "name", "category", "price",
		"created_at", "updated_at", "deleted_at").
		OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return menu.ListResult{}, fmt.Errorf("build query: %w", err)
	}

	var items []*menu.Menu
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return menu.ListResult{}, fmt.Errorf("list menus: %w", err)
	}

	for _, m := range items {
		lines, err := r.getLines(ctx, m.ID)
		if err != nil {
			return menu.ListResult{}, err
		}
		m.Lines = lines
	}
	return menu.ListResult{Items: items, TotalCount: total}, nil
}

// Update persists menu fields; recipe lines go through SaveLines.
func (r *MenuRepo) Update(ctx context.Context, m *menu.Menu) error {
	q := r.builder.Update(menusTable).
		Set("name", m.Name).
		Set("category", m.Category).
		Set("price", m.Price).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": m.ID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("menu", m.ID)
	}
	return nil
}

// SaveLines replaces the recipe lines for a menu.
func (r *MenuRepo) SaveLines(ctx context.Context, menuID id.ID, lines []menu.RecipeLine) error {
	delSQL, delArgs, err := r.builder.Delete(recipeLinesTable).
		Where(squirrel.Eq{"menu_id": menuID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete recipe lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(recipeLinesTable).
		Columns("menu_id", "line_no", "material_id", "quantity", "unit")
	for _, line := range lines {
		q = q.Values(menuID, line.LineNo, line.MaterialID, line.Quantity, line.Unit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe lines: %w", err)
	}
	return nil
}

// Delete retires a menu (soft delete).
func (r *MenuRepo) Delete(ctx context.Context, menuID id.ID) error {
	q := r.builder.Update(menusTable).
		Set("deleted_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": menuID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("retire menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("menu", menuID)
	}
	return nil
}

func (r *MenuRepo) getLines(ctx context.Context, menuID id.ID) ([]menu.RecipeLine, error) {
	q := r.builder.Select("line_no", "material_id", "quantity", "unit").
		From(recipeLinesTable).
		Where(squirrel.Eq{"menu_id": menuID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []menu.RecipeLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get recipe lines: %w", err)
	}
	return lines, nil
}
