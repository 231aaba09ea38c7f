package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/casecraft/internal/model"
)

// OrderRepo persists orders in the 'orders' table. The payment webhook
// is the only writer of payment_status and the admin surface the only
// writer of shipping_status; both mutations are conditional UPDATEs so
// concurrent writers cannot double-apply a transition.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create inserts a new order in the Pending / awaiting-shipping state
// and returns it with generated fields populated.
func (r *OrderRepo) Create(ctx context.Context, userID uint64, phoneCaseID *uint64) (model.Order, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO orders (user_id, phone_case_id, payment_status, shipping_status) VALUES (?,?,?,?)",
		userID, phoneCaseID, model.PaymentPending, model.ShippingAwaiting)
	if err != nil {
		return model.Order{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Order{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches one order. Returns ErrNotFound when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var (
		o           model.Order
		phoneCaseID sql.NullInt64
		addressID   sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,phone_case_id,address_id,payment_status,shipping_status,created_at,updated_at FROM orders WHERE id=? LIMIT 1",
		id).Scan(&o.ID, &o.UserID, &phoneCaseID, &addressID, &o.PaymentStatus, &o.ShippingStatus, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if phoneCaseID.Valid {
		v := uint64(phoneCaseID.Int64)
		o.PhoneCaseID = &v
	}
	if addressID.Valid {
		v := uint64(addressID.Int64)
		o.AddressID = &v
	}
	return o, nil
}

// GetAddress fetches the address linked to an order, or nil when the
// order has none yet.
func (r *OrderRepo) GetAddress(ctx context.Context, orderID uint64) (*model.Address, error) {
	var a model.Address
	err := r.DB.QueryRowContext(ctx,
		`SELECT a.id,a.name,a.street,a.city,a.state,a.zipcode,a.phone,a.email,a.created_at
		 FROM addresses a JOIN orders o ON o.address_id = a.id WHERE o.id=? LIMIT 1`,
		orderID).Scan(&a.ID, &a.Name, &a.Street, &a.City, &a.State, &a.Zipcode, &a.Phone, &a.Email, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SettlePayment consumes one completed-checkout event in a single
// transaction: record the event id, persist the address snapshot and
// flip the order from Pending to Paid. The event_id primary key is the
// idempotency gate and the conditional UPDATE the race guard; if either
// rejects, the whole unit rolls back and (false, nil) is returned. Any
// other failure also rolls everything back, so no event id is ever left
// recorded for an order that did not transition and a redelivery can
// retry the consumption from scratch.
func (r *OrderRepo) SettlePayment(ctx context.Context, orderID uint64, eventID string, addr model.Address) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO processed_payment_events (event_id, order_id) VALUES (?,?)",
		eventID, orderID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return false, nil
		}
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO addresses (name, street, city, state, zipcode, phone, email) VALUES (?,?,?,?,?,?,?)",
		addr.Name, addr.Street, addr.City, addr.State, addr.Zipcode, addr.Phone, addr.Email)
	if err != nil {
		return false, err
	}
	addrID, err := res.LastInsertId()
	if err != nil {
		return false, err
	}

	upd, err := tx.ExecContext(ctx,
		"UPDATE orders SET payment_status=?, address_id=? WHERE id=? AND payment_status=?",
		model.PaymentPaid, addrID, orderID, model.PaymentPending)
	if err != nil {
		return false, err
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Already Paid (or Cancelled): drop the event record and the
		// address with the rollback.
		return false, nil
	}
	return true, tx.Commit()
}

// UpdateShippingStatus advances the shipping status of a paid order.
// The transition must be forward (awaiting shipping -> fulfilled ->
// shipped) and the order must already be Paid; anything else is
// ErrConflict. The UPDATE re-checks both conditions so a concurrent
// change between read and write cannot slip through.
func (r *OrderRepo) UpdateShippingStatus(ctx context.Context, id uint64, status string) error {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.PaymentStatus != model.PaymentPaid {
		return ErrConflict
	}
	if !model.CanAdvanceShipping(o.ShippingStatus, status) {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET shipping_status=? WHERE id=? AND shipping_status=? AND payment_status=?",
		status, id, o.ShippingStatus, model.PaymentPaid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// PaidOrder is one row of the admin order listing: the order joined
// with its owner and line-item price.
type PaidOrder struct {
	ID             uint64 `json:"id"`
	UserID         uint64 `json:"user_id"`
	Username       string `json:"username"`
	ShippingStatus string `json:"shipping_status"`
	PriceCents     uint64 `json:"price_cents"`
	CreatedAt      string `json:"created_at"`
}

// ListPaid returns the most recent Paid orders plus the aggregate sum of
// their line-item prices in minor units.
func (r *OrderRepo) ListPaid(ctx context.Context, limit int) ([]PaidOrder, uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT o.id, o.user_id, u.username, o.shipping_status,
		        COALESCE(pc.price_cents, 0), o.created_at
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 LEFT JOIN phone_cases pc ON pc.id = o.phone_case_id
		 WHERE o.payment_status=?
		 ORDER BY o.created_at DESC
		 LIMIT ?`,
		model.PaymentPaid, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []PaidOrder
	for rows.Next() {
		var p PaidOrder
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.ShippingStatus, &p.PriceCents, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total uint64
	err = r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(pc.price_cents), 0)
		 FROM orders o LEFT JOIN phone_cases pc ON pc.id = o.phone_case_id
		 WHERE o.payment_status=?`,
		model.PaymentPaid).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
