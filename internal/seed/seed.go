package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type productSeed struct {
	Name        string
	Description string
	Price       string
	Category    string
	Stock       int
}

// Apply inserts basic seed data for manual testing: a demo admin, a
// demo shopper and a few products. Idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureUser(ctx, pool, "Demo Admin", "admin@example.com", "Admin123", "admin"); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if err := ensureUser(ctx, pool, "Demo Shopper", "shopper@example.com", "Shopper123", "customer"); err != nil {
		return fmt.Errorf("ensure shopper: %w", err)
	}

	products := []productSeed{
		{
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			Price:       "19.99",
			Category:    "apparel",
			Stock:       50,
		},
		{
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			Price:       "12.99",
			Category:    "kitchen",
			Stock:       80,
		},
		{
			Name:        "Demo Poster",
			Description: "A2 matte poster",
			Price:       "8.50",
			Category:    "decor",
			Stock:       120,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, name, email, password, role string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, name, email, string(hashed), role)
	return err
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (name, description, price, category, stock)
SELECT $1, $2, $3::numeric, $4, $5
WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)
`
	_, err := pool.Exec(ctx, q, p.Name, p.Description, p.Price, p.Category, p.Stock)
	return err
}
