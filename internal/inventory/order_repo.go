package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ DB *pgxpool.Pool }

// PlaceOrder validates and commits an order in one transaction.
//
// Items are processed in input order: lock the product row (FOR UPDATE),
// check stock, decrement. The first missing product or shortage aborts the
// call and the deferred rollback leaves both stores untouched. Only a fully
// staged order commits, together with all stock decrements.
func (r *OrderRepo) PlaceOrder(ctx context.Context, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Qty < 1 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQty, it.ProductID)
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order := &Order{
		ID:     uuid.NewString(),
		Status: StatusPending,
		Items:  make([]OrderItem, 0, len(items)),
	}

	for _, it := range items {
		var (
			name    string
			stock   int
			version int
		)
		err := tx.QueryRow(ctx,
			`SELECT name, stock, version FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).
			Scan(&name, &stock, &version)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if stock < it.Qty {
			return nil, &InsufficientStockError{ProductName: name, Required: it.Qty, Available: stock}
		}

		// The row lock already serializes writers; the version guard catches
		// anything that updated the row without taking the lock.
		ct, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $2, version = version + 1, updated_at = now()
			WHERE id = $1 AND version = $3`,
			it.ProductID, it.Qty, version)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() != 1 {
			return nil, fmt.Errorf("%w: %s", ErrVersionConflict, it.ProductID)
		}

		order.Items = append(order.Items, OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   it.ProductID,
			ProductName: name,
			Qty:         it.Qty,
		})
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders(id, status) VALUES ($1,$2) RETURNING order_date`,
		order.ID, string(order.Status)).Scan(&order.OrderDate)
	if err != nil {
		return nil, err
	}
	for i, oi := range order.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, line_no)
			VALUES ($1,$2,$3,$4,$5)`,
			oi.ID, oi.OrderID, oi.ProductID, oi.Qty, i); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus persists a new status on an existing order. Status text is
// parsed upstream; only recognized members reach this point.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*Order, error) {
	var (
		o Order
		s string
	)
	err := r.DB.QueryRow(ctx,
		`SELECT id, status, order_date FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &s, &o.OrderDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(s)

	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.product_id, p.name, oi.qty
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.line_no`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		oi := OrderItem{OrderID: o.ID}
		if err := rows.Scan(&oi.ID, &oi.ProductID, &oi.ProductName, &oi.Qty); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, oi)
	}
	return &o, rows.Err()
}

// List returns every order with its line items.
func (r *OrderRepo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, status, order_date FROM orders ORDER BY order_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	for rows.Next() {
		var (
			o Order
			s string
		)
		if err := rows.Scan(&o.ID, &s, &o.OrderDate); err != nil {
			return nil, err
		}
		o.Status = Status(s)
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	irows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.qty
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		ORDER BY oi.order_id, oi.line_no`)
	if err != nil {
		return nil, err
	}
	defer irows.Close()

	for irows.Next() {
		var oi OrderItem
		if err := irows.Scan(&oi.ID, &oi.OrderID, &oi.ProductID, &oi.ProductName, &oi.Qty); err != nil {
			return nil, err
		}
		if i, ok := index[oi.OrderID]; ok {
			out[i].Items = append(out[i].Items, oi)
		}
	}
	return out, irows.Err()
}

// SummarizeValuePerProduct prices every line item across all orders at the
// product's current price and accumulates per SKU.
func (r *OrderRepo) SummarizeValuePerProduct(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.sku, p.price, oi.qty
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []LineValue
	for rows.Next() {
		var lv LineValue
		if err := rows.Scan(&lv.SKU, &lv.UnitPrice, &lv.Qty); err != nil {
			return nil, err
		}
		lines = append(lines, lv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return SummarizeLineValues(lines), nil
}
