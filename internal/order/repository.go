package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// Store is the narrow order-persistence surface the payment adapter
// needs. The rest of the storefront owns the orders table.
type Store interface {
	FindByTxnRef(ctx context.Context, txnRef string) (*Order, error)
	UpsertPending(ctx context.Context, o *Order) error

	// UpdateStatus flips an order into a terminal state and merges
	// metadata in one conditional statement. It reports whether a row
	// actually changed; an already-terminal order is left untouched.
	UpdateStatus(ctx context.Context, txnRef string, status Status, paymentMethod string, metadata json.RawMessage) (bool, error)

	AppendHistory(ctx context.Context, e *StatusHistoryEntry) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &repository{db: db}
}

func (r *repository) FindByTxnRef(ctx context.Context, txnRef string) (*Order, error) {
	query := `
		SELECT id, txn_ref, total, status, payment_method, metadata, last_status_change
		FROM orders
		WHERE txn_ref = $1
	`

	var (
		o             Order
		paymentMethod sql.NullString
		metadata      []byte
		lastChange    sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, txnRef).
		Scan(&o.ID, &o.TxnRef, &o.Total, &o.Status, &paymentMethod, &metadata, &lastChange)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = paymentMethod.String
	o.Metadata = metadata
	o.LastStatusChange = lastChange.Time

	return &o, nil
}

func (r *repository) UpsertPending(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (txn_ref, total, status, metadata, last_status_change)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (txn_ref) DO UPDATE
		SET total = EXCLUDED.total,
		    updated_at = NOW()
		WHERE orders.status = $3
	`

	metadata := o.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	_, err := r.db.ExecContext(ctx, query, o.TxnRef, o.Total, StatusPending, []byte(metadata))
	return err
}

// UpdateStatus is a single atomic statement: the status guard lives in
// the WHERE clause, so concurrent return/notify callbacks cannot
// interleave a read-modify-write and a paid order is never clobbered
// by a late failed retry.
func (r *repository) UpdateStatus(ctx context.Context, txnRef string, status Status, paymentMethod string, metadata json.RawMessage) (bool, error) {
	query := `
		UPDATE orders
		SET status = $2,
		    payment_method = $3,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
		    last_status_change = NOW(),
		    updated_at = NOW()
		WHERE txn_ref = $1
		  AND status NOT IN ($5, $6)
	`

	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	res, err := r.db.ExecContext(ctx, query, txnRef, status, paymentMethod, []byte(metadata), StatusPaid, StatusFailed)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) AppendHistory(ctx context.Context, e *StatusHistoryEntry) error {
	query := `
		INSERT INTO order_status_history (order_id, status, note, changed_by)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, e.OrderID, e.Status, e.Note, e.ChangedBy)
	return err
}
