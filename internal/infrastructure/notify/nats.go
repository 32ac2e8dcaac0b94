// Package notify provides outbound sink implementations for sale lifecycle
// events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"dapur/internal/domain/notify"
	"dapur/pkg/logger"
)

// Subjects for published events.
const (
	SubjectSaleCommitted = "dapur.sales.committed"
	SubjectSaleRejected  = "dapur.sales.rejected"
	SubjectLowStock      = "dapur.inventory.lowstock"
)

// NATSSink publishes lifecycle events as JSON messages. Publishing is
// best-effort; failures are logged and dropped.
type NATSSink struct {
	conn *nats.Conn
}

var _ notify.Sink = (*NATSSink)(nil)

// NewNATSSink connects to a NATS server.
func NewNATSSink(url string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("dapur"),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSink{conn: conn}, nil
}

func (s *NATSSink) SaleCommitted(ctx context.Context, e notify.SaleEvent) {
	s.publish(ctx, SubjectSaleCommitted, e)
}

func (s *NATSSink) SaleRejected(ctx context.Context, e notify.RejectionEvent) {
	s.publish(ctx, SubjectSaleRejected, e)
}

func (s *NATSSink) LowStock(ctx context.Context, e notify.LowStockEvent) {
	s.publish(ctx, SubjectLowStock, e)
}

// Close drains the connection.
func (s *NATSSink) Close() error {
	s.conn.Close()
	return nil
}

func (s *NATSSink) publish(ctx context.Context, subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn(ctx, "failed to encode event", "subject", subject, "error", err)
		return
	}
	if err := s.conn.Publish(subject, data); err != nil {
		logger.Warn(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}
