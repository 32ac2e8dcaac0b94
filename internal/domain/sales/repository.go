package sales

import (
	"context"

	"dapur/internal/core/id"
	"dapur/internal/core/types"
)

// ListFilter narrows sale queries. Month/Year of zero means no period
// filter.
type ListFilter struct {
	Month  int
	Year   int
	Limit  int
	Offset int
}

// ListResult contains paginated sales plus the total income over the whole
// filtered period (not just the returned page).
type ListResult struct {
	Items       []*Sale     `json:"items"`
	TotalCount  int64       `json:"totalCount"`
	TotalIncome types.Money `json:"totalIncome"`
}

// Repository persists sale records together with their line items and
// consumption snapshots.
type Repository interface {
	Create(ctx context.Context, s *Sale) error

	// GetByID returns the sale with lines and consumption snapshot.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	List(ctx context.Context, ownerID id.ID, filter ListFilter) (ListResult, error)

	// Update replaces the sale record, its lines, and its snapshot.
	Update(ctx context.Context, s *Sale) error

	Delete(ctx context.Context, saleID id.ID) error
}
