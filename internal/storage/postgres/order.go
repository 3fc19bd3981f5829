package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickserve/pos-billing/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// Fetcher pulls the authoritative open tab from the POS backend.
type Fetcher interface {
	FetchOrder(ctx context.Context, masterID string) (*order.Order, error)
}

// OrderStore implements order.Store backed by PostgreSQL. The backend owns
// the orders; this table is a local cache so totals preview and finalization
// snapshots do not need a backend round trip per render.
type OrderStore struct {
	pool    *pgxpool.Pool
	fetcher Fetcher
}

// NewOrderStore returns an OrderStore that uses the given pool and refreshes
// through fetcher.
func NewOrderStore(pool *pgxpool.Pool, fetcher Fetcher) *OrderStore {
	return &OrderStore{pool: pool, fetcher: fetcher}
}

// Current returns the cached order, or order.ErrNotFound.
func (s *OrderStore) Current(ctx context.Context, masterID string) (*order.Order, error) {
	const q = `
		SELECT fulfillment_type, customer_phone, items, discount, additional_charges, updated_at
		FROM open_orders
		WHERE master_id = $1`

	o := order.Order{MasterID: masterID}
	var ftype string
	var itemsJSON []byte

	err := s.pool.QueryRow(ctx, q, masterID).Scan(
		&ftype, &o.CustomerPhone, &itemsJSON, &o.Discount, &o.AdditionalCharges, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "query order %q", masterID)
	}

	o.FulfillmentType = order.ParseFulfillmentType(ftype)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrapf(err, "decode items for order %q", masterID)
	}

	return &o, nil
}

// Refresh pulls the order from the backend, upserts it into the cache, and
// returns it.
func (s *OrderStore) Refresh(ctx context.Context, masterID string) (*order.Order, error) {
	o, err := s.fetcher.FetchOrder(ctx, masterID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch order")
	}

	if err := s.Upsert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Upsert writes the order into the cache, replacing any previous row.
func (s *OrderStore) Upsert(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "encode items")
	}

	const q = `
		INSERT INTO open_orders (master_id, fulfillment_type, customer_phone, items, discount, additional_charges, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (master_id) DO UPDATE SET
			fulfillment_type   = EXCLUDED.fulfillment_type,
			customer_phone     = EXCLUDED.customer_phone,
			items              = EXCLUDED.items,
			discount           = EXCLUDED.discount,
			additional_charges = EXCLUDED.additional_charges,
			updated_at         = now()`

	_, err = s.pool.Exec(ctx, q,
		o.MasterID, o.FulfillmentType.String(), o.CustomerPhone, itemsJSON, o.Discount, o.AdditionalCharges,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert order %q", o.MasterID)
	}
	return nil
}

// SetCustomerPhone records a phone number collected at the counter.
func (s *OrderStore) SetCustomerPhone(ctx context.Context, masterID, phone string) error {
	const q = `UPDATE open_orders SET customer_phone = $2, updated_at = now() WHERE master_id = $1`

	tag, err := s.pool.Exec(ctx, q, masterID, phone)
	if err != nil {
		return errors.Wrapf(err, "update phone for order %q", masterID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Clear removes the tab from the active list.
func (s *OrderStore) Clear(ctx context.Context, masterID string) error {
	const q = `DELETE FROM open_orders WHERE master_id = $1`

	if _, err := s.pool.Exec(ctx, q, masterID); err != nil {
		return errors.Wrapf(err, "delete order %q", masterID)
	}
	return nil
}
