package cart

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
RETURNING id::text, user_id::text, created_at, updated_at
`
	var c domain.Cart
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	const itemsQ = `
SELECT product_id::text, name, price::text, quantity
FROM cart_items
WHERE cart_id = $1
ORDER BY added_at, product_id
`
	rows, err := r.pool.Query(ctx, itemsQ, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Items = []domain.CartItem{}
	for rows.Next() {
		var (
			item     domain.CartItem
			priceStr string
		)
		if err := rows.Scan(&item.ProductID, &item.Name, &priceStr, &item.Quantity); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", priceStr, err)
		}
		item.Price = price
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) UpsertItem(ctx context.Context, cartID string, item domain.CartItem) error {
	const q = `
INSERT INTO cart_items (cart_id, product_id, name, price, quantity)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, product_id) DO UPDATE SET
    quantity = cart_items.quantity + EXCLUDED.quantity,
    name = EXCLUDED.name,
    price = EXCLUDED.price
`
	if _, err := r.pool.Exec(ctx, q, cartID, item.ProductID, item.Name, item.Price.String(), item.Quantity); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		if invalidUUID(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

// invalidUUID reports the 22P02 bind failure a malformed id raises
// before any row is matched. Callers treat it as an unknown id.
func invalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
