package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const productColumns = `id, custom_id, name, COALESCE(description, ''), stock, price, COALESCE(image, ''), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: list")
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("product repo: list rows")
		return nil, err
	}
	r.logger.Debug().Int("count", len(result)).Msg("product repo: list")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error().Err(err).Int64("id", id).Msg("product repo: get")
	}
	return p, err
}

func (r *postgresRepo) GetByCustomID(ctx context.Context, customID string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE custom_id = $1`, customID))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error().Err(err).Str("custom_id", customID).Msg("product repo: get by custom id")
	}
	return p, err
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (custom_id, name, description, stock, price, image)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, p.CustomID, p.Name, p.Description, p.Stock, p.Price, p.Image))
	if err != nil {
		r.logger.Error().Err(err).Str("custom_id", p.CustomID).Msg("product repo: create")
		return nil, err
	}
	r.logger.Info().Int64("id", created.ID).Str("custom_id", created.CustomID).Msg("product repo: created")
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $2,
    description = NULLIF($3, ''),
    stock = $4,
    price = $5,
    image = NULLIF($6, '')
WHERE id = $1
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Stock, p.Price, p.Image))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error().Err(err).Int64("id", p.ID).Msg("product repo: update")
	}
	return updated, err
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("product repo: delete")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert inserts p or overwrites the product holding the same customId.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (custom_id, name, description, stock, price, image)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
ON CONFLICT (custom_id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    stock = EXCLUDED.stock,
    price = EXCLUDED.price,
    image = EXCLUDED.image
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, p.CustomID, p.Name, p.Description, p.Stock, p.Price, p.Image))
	if err != nil {
		r.logger.Error().Err(err).Str("custom_id", p.CustomID).Msg("product repo: upsert")
		return nil, err
	}
	r.logger.Debug().Int64("id", res.ID).Str("custom_id", res.CustomID).Msg("product repo: upserted")
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.CustomID, &p.Name, &p.Description, &p.Stock, &p.Price, &p.Image, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}
