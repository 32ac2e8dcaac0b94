// Package notify fans out side observations of the sale lifecycle:
// low-stock threshold crossings, committed sales, and insufficient-stock
// rejections. Sinks are fire-and-forget: implementations log their own
// failures and never block or reverse the operation that produced the
// event.
package notify

import (
	"context"
	"time"

	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

// LowStockEvent is emitted when a consumption drives a material's stock to
// or below its minimum threshold.
type LowStockEvent struct {
	OwnerID      id.ID          `json:"ownerId"`
	MaterialID   id.ID          `json:"materialId"`
	MaterialName string         `json:"materialName"`
	Stock        types.Quantity `json:"stock"`
	Minimum      types.Quantity `json:"minimum"`
	Unit         measure.Unit   `json:"unit"`
	At           time.Time      `json:"at"`
}

// SaleEvent is emitted when a sale operation commits.
type SaleEvent struct {
	OwnerID      id.ID       `json:"ownerId"`
	SaleID       id.ID       `json:"saleId"`
	Operation    string      `json:"operation"` // created, updated, deleted
	CustomerName string      `json:"customerName"`
	Amount       types.Money `json:"amount"`
	At           time.Time   `json:"at"`
}

// RejectionEvent is emitted when a sale operation is rejected for
// insufficient stock.
type RejectionEvent struct {
	OwnerID      id.ID          `json:"ownerId"`
	MaterialName string         `json:"materialName"`
	Requested    types.Quantity `json:"requested"`
	Available    types.Quantity `json:"available"`
	At           time.Time      `json:"at"`
}

// Sink receives lifecycle events. Implementations must be non-blocking
// from the caller's point of view and must swallow (log) their own errors.
type Sink interface {
	SaleCommitted(ctx context.Context, e SaleEvent)
	SaleRejected(ctx context.Context, e RejectionEvent)
	LowStock(ctx context.Context, e LowStockEvent)
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) SaleCommitted(ctx context.Context, e SaleEvent) {
	for _, s := range m {
		s.SaleCommitted(ctx, e)
	}
}

func (m Multi) SaleRejected(ctx context.Context, e RejectionEvent) {
	for _, s := range m {
		s.SaleRejected(ctx, e)
	}
}

func (m Multi) LowStock(ctx context.Context, e LowStockEvent) {
	for _, s := range m {
		s.LowStock(ctx, e)
	}
}

// Noop discards all events.
type Noop struct{}

func (Noop) SaleCommitted(context.Context, SaleEvent) {}

func (Noop) SaleRejected(context.Context, RejectionEvent) {}

func (Noop) LowStock(context.Context, LowStockEvent) {}
