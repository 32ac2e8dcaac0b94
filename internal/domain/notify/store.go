package notify

import (
	"context"
	"fmt"
	"time"

	"dapur/internal/core/id"
	"dapur/pkg/logger"
)

// Notification is a persisted in-app message for one user.
type Notification struct {
	ID        id.ID     `db:"id" json:"id"`
	UserID    id.ID     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID id.ID, limit, offset int) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, notificationID, userID id.ID) error
}

// Service exposes the user-facing notification feed.
type Service struct {
	store Store
}

// NewService creates a notification service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID id.ID, limit, offset int) ([]*Notification, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID id.ID) error {
	return s.store.MarkRead(ctx, notificationID, userID)
}

// StoreSink persists lifecycle events as in-app notifications.
// Writes are best-effort; a failed write is logged and dropped.
type StoreSink struct {
	store Store
}

// NewStoreSink creates a sink writing to the notification store.
func NewStoreSink(store Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) SaleCommitted(ctx context.Context, e SaleEvent) {
	s.save(ctx, e.OwnerID,
		fmt.Sprintf("Sale %s", e.Operation),
		fmt.Sprintf("Sale for customer %q %s, total %s", e.CustomerName, e.Operation, e.Amount.String()),
	)
}

func (s *StoreSink) SaleRejected(ctx context.Context, e RejectionEvent) {
	s.save(ctx, e.OwnerID,
		"Sale rejected",
		fmt.Sprintf("Insufficient stock of %s: requested %s, available %s",
			e.MaterialName, e.Requested.String(), e.Available.String()),
	)
}

func (s *StoreSink) LowStock(ctx context.Context, e LowStockEvent) {
	s.save(ctx, e.OwnerID,
		"Low stock",
		fmt.Sprintf("Stock of %s is down to %s %s (minimum %s)",
			e.MaterialName, e.Stock.String(), e.Unit.Symbol(), e.Minimum.String()),
	)
}

func (s *StoreSink) save(ctx context.Context, userID id.ID, title, message string) {
	n := &Notification{
		ID:        id.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		logger.Warn(ctx, "failed to persist notification",
			"title", title,
			"error", err,
		)
	}
}
