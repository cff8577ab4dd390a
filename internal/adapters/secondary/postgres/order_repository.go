package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

// OrderRepository is the secondary adapter for repair order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// Ensure OrderRepository implements the ports.OrderRepository interface.
var _ ports.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new repair order repository.
func NewOrderRepository(pool *pgxpool.Pool) ports.OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `order_no, subject, device_name, department, reported_by, status,
	items, root_cause, action, assigned_technician, notes, created_at, last_modified_at`

// scanOrder maps a database row to the core domain model.
func scanOrder(row pgx.Row) (*domain.RepairOrder, error) {
	var order domain.RepairOrder
	var createdAt, lastModifiedAt pgtype.Timestamptz

	err := row.Scan(
		&order.OrderNo,
		&order.Subject,
		&order.DeviceName,
		&order.Department,
		&order.ReportedBy,
		&order.Status,
		&order.Items,
		&order.RootCause,
		&order.Action,
		&order.AssignedTechnician,
		&order.Notes,
		&createdAt,
		&lastModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	order.CreatedAt = createdAt.Time
	order.LastModifiedAt = lastModifiedAt.Time
	return &order, nil
}

// Create persists a new repair order. The order number is minted from a
// dedicated sequence inside the insert, so numbers are unique and never
// reused even after deletes.
func (r *OrderRepository) Create(ctx context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error) {
	const query = `
		INSERT INTO repair_orders (
			order_no, subject, device_name, department, reported_by, status,
			items, root_cause, action, assigned_technician, notes,
			created_at, last_modified_at
		) VALUES (
			'RO-' || to_char(now(), 'YYYY') || '-' || lpad(nextval('repair_order_seq')::text, 4, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING ` + orderColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		order.Subject,
		order.DeviceName,
		order.Department,
		order.ReportedBy,
		string(order.Status),
		order.Items,
		order.RootCause,
		order.Action,
		order.AssignedTechnician,
		order.Notes,
		order.CreatedAt,
		order.LastModifiedAt,
	)

	return scanOrder(row)
}

// GetByOrderNo retrieves a single repair order by its order number.
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.RepairOrder, error) {
	const query = `SELECT ` + orderColumns + ` FROM repair_orders WHERE order_no = $1`

	order, err := scanOrder(GetDBTX(ctx, r.pool).QueryRow(ctx, query, orderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// Update persists changes to an existing repair order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error) {
	const query = `
		UPDATE repair_orders SET
			subject = $2,
			device_name = $3,
			department = $4,
			reported_by = $5,
			status = $6,
			items = $7,
			root_cause = $8,
			action = $9,
			assigned_technician = $10,
			notes = $11,
			last_modified_at = $12
		WHERE order_no = $1
		RETURNING ` + orderColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		order.OrderNo,
		order.Subject,
		order.DeviceName,
		order.Department,
		order.ReportedBy,
		string(order.Status),
		order.Items,
		order.RootCause,
		order.Action,
		order.AssignedTechnician,
		order.Notes,
		order.LastModifiedAt,
	)

	updated, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a repair order. The order number stays burned in the
// sequence and is never handed out again.
func (r *OrderRepository) Delete(ctx context.Context, orderNo string) error {
	const query = `DELETE FROM repair_orders WHERE order_no = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, orderNo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

// List retrieves repair orders with pagination and optional filters, newest
// first. Nil filter pointers match everything.
func (r *OrderRepository) List(ctx context.Context, params ports.ListOrdersRepoParams) ([]*domain.RepairOrder, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM repair_orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR department = $2)
		  AND ($3::text IS NULL OR
		       order_no ILIKE '%' || $3 || '%' OR
		       subject ILIKE '%' || $3 || '%' OR
		       device_name ILIKE '%' || $3 || '%' OR
		       reported_by ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC, order_no DESC
		LIMIT $4 OFFSET $5`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query,
		toPgText(params.Status),
		toPgText(params.Department),
		toPgText(params.Search),
		params.Limit,
		params.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.RepairOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// toPgText converts an optional string filter to its pgtype form.
func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
