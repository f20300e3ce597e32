package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const orderColumns = `id, order_number, details, status, total_price, user_id, user_name, full_name,
       address, city, postal_code, phone, email, comments, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (order_number, details, status, total_price, user_id, user_name, full_name,
                    address, city, postal_code, phone, email, comments)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns
	created, err := scanOrder(r.pool.QueryRow(ctx, q, orderArgs(o)...))
	if err != nil {
		r.logger.Error().Err(err).Msg("order repo: create")
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id ASC`)
}

func (r *postgresRepo) ListByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY id ASC`, status)
}

func (r *postgresRepo) Update(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
UPDATE orders
SET order_number = $1,
    details = $2,
    status = $3,
    total_price = $4,
    user_id = $5,
    user_name = $6,
    full_name = $7,
    address = $8,
    city = $9,
    postal_code = $10,
    phone = $11,
    email = $12,
    comments = $13
WHERE id = $14
RETURNING ` + orderColumns
	args := append(orderArgs(o), o.ID)
	updated, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error().Err(err).Int64("id", o.ID).Msg("order repo: update")
	}
	return updated, err
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("order repo: query")
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func orderArgs(o domain.Order) []interface{} {
	return []interface{}{
		o.OrderNumber,
		o.Details,
		o.Status,
		o.TotalPrice,
		o.UserID,
		o.UserName,
		o.FullName,
		o.Address,
		o.City,
		o.PostalCode,
		o.Phone,
		o.Email,
		o.Comments,
	}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Details,
		&o.Status,
		&o.TotalPrice,
		&o.UserID,
		&o.UserName,
		&o.FullName,
		&o.Address,
		&o.City,
		&o.PostalCode,
		&o.Phone,
		&o.Email,
		&o.Comments,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
