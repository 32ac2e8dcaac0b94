package material

import (
	"context"

	"dapur/internal/core/id"
)

// ListFilter narrows material catalog queries.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// ListResult contains paginated results.
type ListResult struct {
	Items      []*RawMaterial `json:"items"`
	TotalCount int64          `json:"totalCount"`
}

// Repository defines persistence operations for the material catalog.
// Stock values are written only through the ledger store; this repository
// never touches the stock column on Update.
type Repository interface {
	Create(ctx context.Context, m *RawMaterial) error
	GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error)
	List(ctx context.Context, ownerID id.ID, filter ListFilter) (ListResult, error)

	// Update persists descriptive fields (name, category, unit, thresholds,
	// price). The stock quantity and version are ignored.
	Update(ctx context.Context, m *RawMaterial) error

	Delete(ctx context.Context, materialID id.ID) error
}
