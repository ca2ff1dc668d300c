package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"optical-commerce/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const paymentColumns = `id::text, user_id, order_id::text, gateway_order_id, COALESCE(gateway_payment_id, ''),
COALESCE(signature, ''), amount_cents, currency, status, COALESCE(failure_reason, ''), COALESCE(refund_id, ''),
refund_cents, metadata, created_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var metadata []byte
	if err := row.Scan(
		&p.ID, &p.UserID, &p.OrderID, &p.GatewayOrderID, &p.GatewayPaymentID,
		&p.Signature, &p.AmountCents, &p.Currency, &p.Status, &p.FailureReason,
		&p.RefundID, &p.RefundCents, &metadata, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = domain.PaymentRecordCreated
	}
	out, err := scanPayment(r.pool.QueryRow(ctx, `
INSERT INTO payments (user_id, gateway_order_id, amount_cents, currency, status, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+paymentColumns,
		p.UserID, p.GatewayOrderID, p.AmountCents, p.Currency, p.Status, metadata))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("gateway order %s: %w", p.GatewayOrderID, domain.ErrAlreadyExists)
		}
		r.logger.Error("payment insert failed", zap.String("gateway_order_id", p.GatewayOrderID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `
SELECT `+paymentColumns+` FROM payments WHERE gateway_order_id = $1
`, gatewayOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `
UPDATE payments
SET status = 'paid', gateway_payment_id = $2, signature = $3
WHERE gateway_order_id = $1 AND status IN ('created', 'attempted')
RETURNING `+paymentColumns, gatewayOrderID, gatewayPaymentID, signature))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// nothing advanced: either unknown, already paid (callback replay), or terminal
	existing, err := r.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.PaymentRecordPaid {
		return existing, nil
	}
	return nil, domain.ErrInvalidTransition
}

func (r *postgresRepo) LinkOrder(ctx context.Context, paymentID, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE payments SET order_id = $2::uuid WHERE id = $1::uuid`, paymentID, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
