// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/measure"
	"dapur/internal/infrastructure/storage/postgres"
	"dapur/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	ownerID, err := seedOwner(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed owner account", "error", err)
	}

	if err := seedCatalog(ctx, pool, log, ownerID); err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedOwner(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	email := os.Getenv("OWNER_EMAIL")
	if email == "" {
		email = "warung@dapur.io"
	}
	password := os.Getenv("OWNER_PASSWORD")
	if password == "" {
		password = "Warung123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		email,
	).Scan(&existingID)
	if err == nil {
		log.Infow("owner account already exists", "email", email, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check owner exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, "Warung Dapur", email, string(passwordHash), time.Now().UTC(),
	)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert owner: %w", err)
	}

	log.Infow("owner account created", "email", email, "user_id", userID)
	return userID, nil
}

// seedCatalog creates a small demo kitchen: three raw materials and a
// fried rice menu consuming two of them.
func seedCatalog(ctx context.Context, pool *postgres.Pool, log *logger.Logger, ownerID id.ID) error {
	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM materials WHERE owner_id = $1`, ownerID,
	).Scan(&count); err != nil {
		return fmt.Errorf("check materials: %w", err)
	}
	if count > 0 {
		log.Info("catalog already seeded, skipping")
		return nil
	}

	rice := demoMaterial(ownerID, "Rice", "staple", measure.UnitGram, "1000", "200", "12")
	oil := demoMaterial(ownerID, "Cooking Oil", "staple", measure.UnitMilliliter, "2000", "500", "20")
	chicken := demoMaterial(ownerID, "Chicken", "protein", measure.UnitGram, "3600", "1200", "35")

	for _, m := range []*material.RawMaterial{rice, oil, chicken} {
		_, err := pool.Exec(ctx,
			`INSERT INTO materials (id, owner_id, name, category, unit, stock, minimum_stock, price, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			m.ID, m.OwnerID, m.Name, m.Category, m.Unit, m.Stock, m.MinimumStock, m.Price, m.Version, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert material %s: %w", m.Name, err)
		}
		log.Infow("material seeded", "name", m.Name, "stock", m.Stock.String(), "unit", m.Unit)
	}

	friedRice := menu.NewMenu(ownerID, "Nasi Goreng", types.MustQuantity("25000"))
	friedRice.Category = "main"
	friedRice.AddLine(rice.ID, types.MustQuantity("150"), measure.UnitGram)
	friedRice.AddLine(oil.ID, types.MustQuantity("15"), measure.UnitMilliliter)

	_, err := pool.Exec(ctx,
		`INSERT INTO menus (id, owner_id, name, category, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		friedRice.ID, friedRice.OwnerID, friedRice.Name, friedRice.Category, friedRice.Price, friedRice.CreatedAt, friedRice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert menu: %w", err)
	}
	for _, line := range friedRice.Lines {
		_, err := pool.Exec(ctx,
			`INSERT INTO recipe_lines (menu_id, line_no, material_id, quantity, unit)
			 VALUES ($1, $2, $3, $4, $5)`,
			friedRice.ID, line.LineNo, line.MaterialID, line.Quantity, line.Unit,
		)
		if err != nil {
			return fmt.Errorf("insert recipe line: %w", err)
		}
	}

	log.Infow("menu seeded", "name", friedRice.Name, "lines", len(friedRice.Lines))
	return nil
}

func demoMaterial(ownerID id.ID, name, category string, unit measure.Unit, stock, minimum, price string) *material.RawMaterial {
	m := material.NewRawMaterial(ownerID, name, unit, types.MustQuantity(stock))
	m.Category = category
	m.MinimumStock = types.MustQuantity(minimum)
	m.Price = types.MustQuantity(price)
	return m
}
