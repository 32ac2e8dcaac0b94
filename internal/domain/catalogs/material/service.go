package material

import (
	"context"
	"fmt"

	"dapur/internal/core/apperror"
	"dapur/internal/core/appctx"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/pkg/logger"
)

// StockAdjuster applies a signed stock delta through the stock ledger.
// Implemented by ledger.Ledger; the catalog never writes stock itself.
type StockAdjuster interface {
	Adjust(ctx context.Context, materialID id.ID, delta types.Quantity) error
}

// Service provides business operations for the material catalog.
type Service struct {
	repo   Repository
	ledger StockAdjuster
}

// NewService creates a new material catalog service.
func NewService(repo Repository, ledger StockAdjuster) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Create registers a new raw material with its initial stock.
func (s *Service) Create(ctx context.Context, m *RawMaterial) error {
	if id.IsNil(m.OwnerID) {
		m.OwnerID = appctx.GetUserID(ctx)
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}

	logger.Info(ctx, "material created",
		"id", m.ID,
		"name", m.Name,
		"stock", m.Stock.String(),
		"unit", m.Unit,
	)
	return nil
}

// GetByID retrieves a material owned by the caller.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error) {
	m, err := s.repo.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves the caller's materials.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, appctx.GetUserID(ctx), filter)
}

// Update persists descriptive fields. Stock changes go through Restock.
func (s *Service) Update(ctx context.Context, m *RawMaterial) error {
	existing, err := s.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	m.OwnerID = existing.OwnerID

	if err := m.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

// Restock adds purchased quantity to stock through the ledger, keeping the
// read-modify-write discipline uniform with sale consumption.
func (s *Service) Restock(ctx context.Context, materialID id.ID, quantity types.Quantity) (*RawMaterial, error) {
	if !quantity.IsPositive() {
		return nil, apperror.NewValidation("restock quantity must be positive").
			WithDetail("quantity", quantity.String())
	}

	m, err := s.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Adjust(ctx, m.ID, quantity); err != nil {
		return nil, err
	}

	logger.Info(ctx, "material restocked",
		"id", m.ID,
		"name", m.Name,
		"quantity", quantity.String(),
	)
	return s.repo.GetByID(ctx, materialID)
}

// Delete removes a material from the catalog.
func (s *Service) Delete(ctx context.Context, materialID id.ID) error {
	if _, err := s.GetByID(ctx, materialID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, materialID)
}

func (s *Service) checkOwner(ctx context.Context, m *RawMaterial) error {
	callerID := appctx.GetUserID(ctx)
	if id.IsNil(callerID) || callerID == m.OwnerID {
		return nil
	}
	return apperror.NewForbidden("material belongs to another user").
		WithDetail("material_id", m.ID)
}
