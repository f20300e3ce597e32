package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"storefront/internal/domain"
)

const uniqueViolation = "23505"

var (
	_ Repository = (*Postgres)(nil)
	_ Merger     = (*Postgres)(nil)
	_ Sweeper    = (*Postgres)(nil)
)

const cartColumns = `id::text, session_key, user_key, total, last_updated, version`

// Postgres stores carts in Postgres with one row per line item.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a store backed by the carts and cart_lines tables.
// It supports atomic merges and stale cart sweeps.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *Postgres) FindBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_key = $1`, sessionKey)
}

func (r *Postgres) FindByUserKey(ctx context.Context, userKey int64) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_key = $1`, userKey)
}

func (r *Postgres) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	saved, err := saveCart(ctx, tx, cart)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translateErr(err)
	}
	return saved, nil
}

func (r *Postgres) Delete(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteCart(ctx, tx, cart); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveAndDelete removes source and persists merged in a single transaction.
// The delete runs first so merged may take over keys held by source.
func (r *Postgres) SaveAndDelete(ctx context.Context, merged, source *domain.Cart) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := deleteCart(ctx, tx, source); err != nil {
		return nil, err
	}
	saved, err := saveCart(ctx, tx, merged)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translateErr(err)
	}
	return saved, nil
}

func (r *Postgres) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE last_updated < $1`, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func saveCart(ctx context.Context, tx pgx.Tx, cart *domain.Cart) (*domain.Cart, error) {
	out := cart.Clone()
	if out.Version == 0 {
		if out.ID == "" {
			out.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO carts (id, session_key, user_key, total, last_updated, version)
VALUES ($1, $2, $3, $4, $5, 1)
`, out.ID, out.SessionKey, out.UserKey, out.Total, out.LastUpdated); err != nil {
			return nil, translateErr(err)
		}
		out.Version = 1
	} else {
		cmd, err := tx.Exec(ctx, `
UPDATE carts
SET session_key = $1,
    user_key = $2,
    total = $3,
    last_updated = $4,
    version = version + 1
WHERE id = $5 AND version = $6
`, out.SessionKey, out.UserKey, out.Total, out.LastUpdated, out.ID, out.Version)
		if err != nil {
			return nil, translateErr(err)
		}
		if cmd.RowsAffected() == 0 {
			return nil, missingOrConflict(ctx, tx, out.ID, domain.ErrNotFound)
		}
		out.Version++
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, out.ID); err != nil {
			return nil, err
		}
	}

	if err := insertLines(ctx, tx, out.ID, out.Items); err != nil {
		return nil, err
	}
	return out, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, cartID string, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(`
INSERT INTO cart_lines (cart_id, position, product_id, label, quantity, unit_price, options)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, cartID, i, it.ProductID, it.Label, it.Quantity, it.UnitPrice, it.Options)
	}
	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return translateErr(err)
		}
	}
	return br.Close()
}

func deleteCart(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	if cart.ID == "" {
		return nil
	}
	var (
		cmd pgconn.CommandTag
		err error
	)
	if cart.Version == 0 {
		cmd, err = tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cart.ID)
	} else {
		cmd, err = tx.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND version = $2`, cart.ID, cart.Version)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return missingOrConflict(ctx, tx, cart.ID, nil)
	}
	return nil
}

// missingOrConflict resolves a write that matched no rows. It returns
// ifMissing when the cart is gone and domain.ErrConflict when only the
// version differed.
func missingOrConflict(ctx context.Context, tx pgx.Tx, id string, ifMissing error) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM carts WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ifMissing
	}
	if err != nil {
		return err
	}
	return domain.ErrConflict
}

// fetchCart reads the cart row and its lines from one snapshot, so a save
// committing in between cannot pair one version's total with another's lines.
func (r *Postgres) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cart, err := readCart(ctx, tx, cartQuery, args...)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cart, nil
}

func readCart(ctx context.Context, tx pgx.Tx, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	err := tx.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.SessionKey,
		&cart.UserKey,
		&cart.Total,
		&cart.LastUpdated,
		&cart.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT product_id, label, quantity, unit_price, options
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := tx.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.LineItem{}
	for rows.Next() {
		var line domain.LineItem
		if err := rows.Scan(
			&line.ProductID,
			&line.Label,
			&line.Quantity,
			&line.UnitPrice,
			&line.Options,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}
