package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

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

const orderColumns = `id::text, order_number, user_id, total_cents, street, city, state, zip_code, country, COALESCE(phone, ''),
payment_status, order_status, COALESCE(payment_method, ''), COALESCE(payment_id, ''), COALESCE(tracking_number, ''),
estimated_delivery, COALESCE(notes, ''), created_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.TotalCents,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Country, &o.ShippingAddress.Phone,
		&o.PaymentStatus, &o.OrderStatus, &o.PaymentMethod, &o.PaymentID,
		&o.TrackingNumber, &o.EstimatedDelivery, &o.Notes, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.IdempotencyKey != "" {
		existing, err := r.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("order number sequence: %w", err)
	}
	orderNumber := FormatOrderNumber(time.Now().UnixMilli(), seq)

	var key *string
	if in.IdempotencyKey != "" {
		key = &in.IdempotencyKey
	}

	var orderID string
	err = tx.QueryRow(ctx, `
INSERT INTO orders (order_number, user_id, total_cents, street, city, state, zip_code, country, phone,
                    payment_status, order_status, payment_method, payment_id, notes, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), $15)
RETURNING id::text
`,
		orderNumber, in.UserID, in.Total(),
		in.ShippingAddress.Street, in.ShippingAddress.City, in.ShippingAddress.State,
		in.ShippingAddress.ZipCode, in.ShippingAddress.Country, in.ShippingAddress.Phone,
		in.PaymentStatus, in.OrderStatus, in.PaymentMethod, in.PaymentID, in.Notes, key,
	).Scan(&orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && in.IdempotencyKey != "" {
			// lost a race against a concurrent submission with the same key
			return r.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		}
		r.logger.Error("order insert failed", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}

	for _, item := range in.Items {
		var customizations []byte
		if item.Customizations != nil {
			customizations, err = json.Marshal(item.Customizations)
			if err != nil {
				return nil, err
			}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, price_cents, prescription_id, customizations)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
`, orderID, item.ProductID, item.Quantity, item.PriceCents, item.PrescriptionID, customizations); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, orderID)
}

func (r *postgresRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1 AND idempotency_key = $2
`, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
SELECT product_id::text, quantity, price_cents, prescription_id, customizations
FROM order_items
WHERE order_id = $1::uuid
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		var customizations []byte
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceCents, &item.PrescriptionID, &customizations); err != nil {
			return err
		}
		if len(customizations) > 0 {
			var c domain.Customizations
			if err := json.Unmarshal(customizations, &c); err != nil {
				return err
			}
			item.Customizations = &c
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (r *postgresRepo) FindByUser(ctx context.Context, userID string, filter UserFilter) (*Page, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND order_status = $%d`, len(args))
	}
	return r.page(ctx, where, args, filter.Page, filter.Limit, 10)
}

func (r *postgresRepo) FindAll(ctx context.Context, filter AdminFilter) (*Page, error) {
	where := `WHERE TRUE`
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND order_status = $%d`, len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}
	return r.page(ctx, where, args, filter.Page, filter.Limit, 20)
}

func (r *postgresRepo) page(ctx context.Context, where string, args []interface{}, pageNum, limit, defaultLimit int) (*Page, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listArgs := append(args, limit, (pageNum-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, q, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	totalPages := (total + limit - 1) / limit
	return &Page{Orders: orders, Total: total, TotalPages: totalPages, CurrentPage: pageNum}, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, patch StatusPatch) (*domain.Order, error) {
	set := []string{}
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.OrderStatus != nil {
		add("order_status", *patch.OrderStatus)
	}
	if patch.PaymentStatus != nil {
		add("payment_status", *patch.PaymentStatus)
	}
	if patch.TrackingNumber != nil {
		add("tracking_number", *patch.TrackingNumber)
	}
	if patch.EstimatedDelivery != nil {
		add("estimated_delivery", *patch.EstimatedDelivery)
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d::uuid`, strings.Join(set, ", "), len(args))
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		r.logger.Error("order status update failed", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}
