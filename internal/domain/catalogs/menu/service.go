package menu

import (
	"context"
	"fmt"

	"dapur/internal/core/apperror"
	"dapur/internal/core/appctx"
	"dapur/internal/core/id"
	"dapur/internal/core/tx"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/measure"
	"dapur/pkg/logger"
)

// Service provides business operations for the menu catalog.
type Service struct {
	repo      Repository
	materials material.Repository
	converter *measure.Converter
	txManager tx.Manager
}

// NewService creates a new menu catalog service.
func NewService(repo Repository, materials material.Repository, converter *measure.Converter, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		converter: converter,
		txManager: txManager,
	}
}

// Create registers a sellable item with its recipe.
func (s *Service) Create(ctx context.Context, m *Menu) error {
	if id.IsNil(m.OwnerID) {
		m.OwnerID = appctx.GetUserID(ctx)
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkRecipe(ctx, m.Lines); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("create menu: %w", err)
		}
		if err := s.repo.SaveLines(ctx, m.ID, m.Lines); err != nil {
			return fmt.Errorf("save recipe lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "menu created", "id", m.ID, "name", m.Name, "lines", len(m.Lines))
	return nil
}

// GetByID retrieves a menu with its recipe, scoped to the caller.
func (s *Service) GetByID(ctx context.Context, menuID id.ID) (*Menu, error) {
	m, err := s.repo.GetByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves the caller's menus.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, appctx.GetUserID(ctx), filter)
}

// Update replaces the menu's descriptive fields and recipe.
// Existing sales keep their consumption snapshots, so an updated recipe
// never changes the cost of reversing an old sale.
func (s *Service) Update(ctx context.Context, m *Menu) error {
	existing, err := s.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	m.OwnerID = existing.OwnerID

	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkRecipe(ctx, m.Lines); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("update menu: %w", err)
		}
		if err := s.repo.SaveLines(ctx, m.ID, m.Lines); err != nil {
			return fmt.Errorf("save recipe lines: %w", err)
		}
		return nil
	})
}

// Delete retires a menu. Past sales referencing it remain reversible
// through their consumption snapshots.
func (s *Service) Delete(ctx context.Context, menuID id.ID) error {
	if _, err := s.GetByID(ctx, menuID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, menuID)
}

// checkRecipe verifies that every recipe line references an existing
// material and that its unit converts to the material's tracking unit.
// Surfacing UNSUPPORTED_CONVERSION here keeps the failure at configuration
// time instead of at the first sale.
func (s *Service) checkRecipe(ctx context.Context, lines []RecipeLine) error {
	for _, line := range lines {
		mat, err := s.materials.GetByID(ctx, line.MaterialID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("material", line.MaterialID).
					WithDetail("lineNo", line.LineNo)
			}
			return err
		}
		if !s.converter.Supports(line.Unit, mat.Unit) {
			return apperror.NewUnsupportedConversion(string(line.Unit), string(mat.Unit)).
				WithDetail("material_id", mat.ID).
				WithDetail("material_name", mat.Name).
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}

func (s *Service) checkOwner(ctx context.Context, m *Menu) error {
	callerID := appctx.GetUserID(ctx)
	if id.IsNil(callerID) || callerID == m.OwnerID {
		return nil
	}
	return apperror.NewForbidden("menu belongs to another user").
		WithDetail("menu_id", m.ID)
}
