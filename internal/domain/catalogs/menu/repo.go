package menu

import (
	"context"

	"dapur/internal/core/id"
)

// ListFilter narrows menu catalog queries.
type ListFilter struct {
	Search         string
	Category       string
	IncludeRetired bool
	Limit          int
	Offset         int
}

// ListResult contains paginated results.
type ListResult struct {
	Items      []*Menu `json:"items"`
	TotalCount int64   `json:"totalCount"`
}

// Repository defines persistence operations for the menu catalog.
type Repository interface {
	Create(ctx context.Context, m *Menu) error

	// GetByID returns the menu with its recipe lines. Retired menus
	// return NOT_FOUND: a soft-deleted menu must never resolve.
	GetByID(ctx context.Context, menuID id.ID) (*Menu, error)

	List(ctx context.Context, ownerID id.ID, filter ListFilter) (ListResult, error)
	Update(ctx context.Context, m *Menu) error
	SaveLines(ctx context.Context, menuID id.ID, lines []RecipeLine) error

	// Delete retires the menu (soft delete).
	Delete(ctx context.Context, menuID id.ID) error
}
