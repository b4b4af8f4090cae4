package order

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"vietcart-be/internal/logger"
	"vietcart-be/internal/vnpay"

	"go.uber.org/zap"
)

// Outcome is what a callback did to the local order. The HTTP layer
// maps these onto the gateway's response codes.
type Outcome string

const (
	OutcomeUpdated        Outcome = "updated"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
	OutcomeNoStore        Outcome = "no_store"
	OutcomeDBError        Outcome = "db_error"
)

// AmountTolerance is the absolute difference, in major units, allowed
// between the order total and the callback amount.
const AmountTolerance = 0.01

const (
	// PaymentMethodVNPay is written to orders settled through the
	// VNPay channel.
	PaymentMethodVNPay = "VNPAY"

	metadataKey  = "vnpay"
	historyActor = "vnpay-gateway"
)

// EventSink receives best-effort notifications after a status flip.
type EventSink interface {
	PaymentStatusChanged(ctx context.Context, txnRef string, status string, amountMinor int64)
}

// Reconciler applies verified callback outcomes to the order store.
// It is safe to invoke repeatedly with the same payload: the gateway
// delivers notifications at least once.
type Reconciler struct {
	store     Store
	events    EventSink
	tolerance float64
}

func NewReconciler(store Store, events EventSink) *Reconciler {
	return &Reconciler{store: store, events: events, tolerance: AmountTolerance}
}

// WithTolerance overrides the amount tolerance, in major units.
func (r *Reconciler) WithTolerance(t float64) *Reconciler {
	r.tolerance = t
	return r
}

// Apply moves the order for cb.TxnRef into paid or failed. Only a
// verified callback may reach this point; signature checking is the
// caller's job.
func (r *Reconciler) Apply(ctx context.Context, cb vnpay.Callback) Outcome {
	log := logger.FromCtx(ctx).With(
		zap.String("txn_ref", cb.TxnRef),
		zap.String("response_code", cb.ResponseCode),
		zap.Int64("amount_minor", cb.AmountMinor),
	)

	if r.store == nil {
		log.Error("no order store configured")
		return OutcomeNoStore
	}

	o, err := r.store.FindByTxnRef(ctx, cb.TxnRef)
	if err != nil {
		log.Error("failed to load order", zap.Error(err))
		return OutcomeDBError
	}
	if o == nil {
		log.Warn("callback for unknown order")
		return OutcomeNotFound
	}

	if o.Total > 0 && !math.IsInf(o.Total, 0) {
		if math.Abs(cb.AmountMajor()-o.Total) > r.tolerance {
			log.Warn("callback amount does not match order total",
				zap.Float64("order_total", o.Total),
				zap.Float64("callback_amount", cb.AmountMajor()),
			)
			return OutcomeAmountMismatch
		}
	}

	target := StatusFailed
	if cb.Success() {
		target = StatusPaid
	}

	// Retried delivery of an outcome already applied: nothing to do.
	if o.Status == target {
		log.Info("order already in target status", zap.String("status", string(target)))
		return OutcomeUpdated
	}

	metadata, err := json.Marshal(map[string]any{metadataKey: cb.Raw})
	if err != nil {
		log.Error("failed to encode callback metadata", zap.Error(err))
		return OutcomeDBError
	}

	applied, err := r.store.UpdateStatus(ctx, cb.TxnRef, target, PaymentMethodVNPay, metadata)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return OutcomeDBError
	}
	if !applied {
		// A concurrent callback already settled the order; the first
		// terminal outcome wins and this retry is a no-op.
		log.Info("order already settled by a concurrent callback")
		return OutcomeUpdated
	}

	// History and events are audit side effects; losing one must not
	// fail the confirmation back to the gateway.
	entry := &StatusHistoryEntry{
		OrderID:   o.ID,
		Status:    target,
		Note:      fmt.Sprintf("vnpay callback: code=%s txn_no=%s", cb.ResponseCode, cb.TransactionNo),
		ChangedBy: historyActor,
	}
	if err := r.store.AppendHistory(ctx, entry); err != nil {
		log.Warn("failed to append status history", zap.Error(err))
	}

	if r.events != nil {
		r.events.PaymentStatusChanged(ctx, cb.TxnRef, string(target), cb.AmountMinor)
	}

	log.Info("order status updated", zap.String("status", string(target)))
	return OutcomeUpdated
}

// RecordPending upserts a traceable pending order before the shopper
// is redirected to the gateway.
func (r *Reconciler) RecordPending(ctx context.Context, txnRef string, amount float64, orderInfo string) error {
	if r.store == nil {
		return ErrNoStore
	}

	metadata, err := json.Marshal(map[string]string{"order_info": orderInfo})
	if err != nil {
		return err
	}

	return r.store.UpsertPending(ctx, &Order{
		TxnRef:   txnRef,
		Total:    amount,
		Status:   StatusPending,
		Metadata: metadata,
	})
}
