package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"shopfront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, user_id::text, total::text, status, shipping_address, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, order domain.Order) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}

	const insertOrder = `
INSERT INTO orders (user_id, total, status, shipping_address)
VALUES ($1, $2, $3, $4)
RETURNING id::text, created_at, updated_at
`
	res := order
	if err := tx.QueryRow(ctx, insertOrder, order.UserID, order.Total.String(), order.Status, addr).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", order.UserID, err)
		return nil, err
	}

	const insertItem = `
INSERT INTO order_items (order_id, product_id, name, price, quantity, position)
VALUES ($1, $2, $3, $4, $5, $6)
`
	const decrementStock = `
UPDATE products SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`
	for pos, item := range order.Items {
		if _, err := tx.Exec(ctx, insertItem, res.ID, item.ProductID, item.Name, item.Price.String(), item.Quantity, pos); err != nil {
			return nil, err
		}
		cmd, err := tx.Exec(ctx, decrementStock, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w for product: %s", ErrInsufficientStock, item.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total=%s", res.ID, res.UserID, res.Total)
	return &res, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders WHERE user_id = $1 ORDER BY created_at DESC"
	return r.list(ctx, q, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC"
	return r.list(ctx, q)
}

func (r *postgresRepo) GetByIDForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders WHERE user_id = $1 AND id = $2"
	ord, err := scanOrder(r.pool.QueryRow(ctx, q, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || invalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*domain.Order{ord}); err != nil {
		return nil, err
	}
	return ord, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	q := `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	ord, err := scanOrder(r.pool.QueryRow(ctx, q, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || invalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: update status id=%s error=%v", id, err)
		return nil, err
	}
	if err := r.attachItems(ctx, []*domain.Order{ord}); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: id=%s status=%s", ord.ID, ord.Status)
	return ord, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var refs []*domain.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	result := make([]domain.Order, len(refs))
	for i, ord := range refs {
		result[i] = *ord
	}
	return result, nil
}

// attachItems loads item snapshots for the given orders in one query.
func (r *postgresRepo) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, ord := range orders {
		ord.Items = []domain.CartItem{}
		byID[ord.ID] = ord
		ids = append(ids, ord.ID)
	}

	const q = `
SELECT order_id::text, product_id::text, name, price::text, quantity
FROM order_items
WHERE order_id::text = ANY($1)
ORDER BY order_id, position
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID  string
			item     domain.CartItem
			priceStr string
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &priceStr, &item.Quantity); err != nil {
			return err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return fmt.Errorf("parse price %q: %w", priceStr, err)
		}
		item.Price = price
		if ord, ok := byID[orderID]; ok {
			ord.Items = append(ord.Items, item)
		}
	}
	return rows.Err()
}

// invalidUUID reports the 22P02 bind failure a malformed id raises
// before any row is matched. Callers treat it as an unknown id.
func invalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		ord      domain.Order
		totalStr string
		addr     []byte
	)
	if err := row.Scan(&ord.ID, &ord.UserID, &totalStr, &ord.Status, &addr, &ord.CreatedAt, &ord.UpdatedAt); err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", totalStr, err)
	}
	ord.Total = total
	if err := json.Unmarshal(addr, &ord.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &ord, nil
}
