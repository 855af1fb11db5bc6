package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

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

const productColumns = `id::text, name, COALESCE(description, ''), price::text, COALESCE(category, ''), stock, COALESCE(image_url, ''), created_at, updated_at`

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("lower(name) LIKE $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	q := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE id = $1"
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || invalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (name, description, price, category, stock, image_url)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, NULLIF($6, ''))
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Category,
		product.Stock,
		product.ImageURL,
	))
	if err != nil {
		r.logger.Printf("product repo: create name=%s error=%v", product.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s", p.ID)
	return p, nil
}

func (r *postgresRepo) Update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
UPDATE products
SET name = $2,
    description = NULLIF($3, ''),
    price = $4,
    category = NULLIF($5, ''),
    stock = $6,
    image_url = NULLIF($7, ''),
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.ID,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Category,
		product.Stock,
		product.ImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || invalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: update id=%s error=%v", product.ID, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if invalidUUID(err) {
			return domain.ErrNotFound
		}
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%s", id)
	return nil
}

func (r *postgresRepo) SetImageURL(ctx context.Context, id, url string) (*domain.Product, error) {
	q := `
UPDATE products
SET image_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || invalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: set image id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

// invalidUUID reports the 22P02 bind failure a malformed id raises
// before any row is matched. Callers treat it as an unknown id.
func invalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		priceStr string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &priceStr, &p.Category, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	p.Price = price
	return &p, nil
}
