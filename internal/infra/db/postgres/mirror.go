package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/repository"
)

var _ repository.SubscriptionMirror = (*subscriptionMirror)(nil)

// subscriptionMirror keeps a best-effort backend copy of the locally
// authoritative subscription record. Writes are upserts keyed by user; the
// mirror is never read on the hot path and its failures never block the
// engine.
type subscriptionMirror struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

func NewSubscriptionMirror(pool *pgxpool.Pool, log *zerolog.Logger) *subscriptionMirror {
	return &subscriptionMirror{pool: pool, log: log}
}

func (m *subscriptionMirror) Record(ctx context.Context, userID string, rec *model.SubscriptionRecord) error {
	const q = `
INSERT INTO subscription_mirror (
  user_id, record_id, plan, scripts_remaining, total_scripts, start_date, end_date, payment_id, order_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id) DO UPDATE SET
  record_id=$2, plan=$3, scripts_remaining=$4, total_scripts=$5, start_date=$6, end_date=$7, payment_id=$8, order_id=$9;`

	var paymentID, orderID *string
	if rec.PaymentRef != nil {
		paymentID = &rec.PaymentRef.PaymentID
		orderID = &rec.PaymentRef.OrderID
	}
	_, err := m.pool.Exec(ctx, q,
		userID, rec.ID, string(rec.Plan), rec.ScriptsRemaining, rec.TotalScripts,
		rec.StartDate, rec.EndDate, paymentID, orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			m.log.Warn().Str("code", pgErr.Code).Str("user_id", userID).Msg("mirror upsert rejected")
		}
		return err
	}
	return nil
}

func (m *subscriptionMirror) Clear(ctx context.Context, userID string) error {
	const q = `DELETE FROM subscription_mirror WHERE user_id=$1;`
	_, err := m.pool.Exec(ctx, q, userID)
	return err
}
