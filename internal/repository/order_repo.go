package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_service/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresOrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

// CreateOrder writes the order row, all item rows, and the guarded stock
// decrements inside one transaction. Any failure rolls everything back, so a
// half-placed order is never visible.
func (r *postgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Errorf("Failed to begin transaction: %v", err)
		return nil, fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.log.Warnf("Rolling back order transaction: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	orderQuery := `
        INSERT INTO orders (id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, last_modified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING last_modified`

	err = tx.QueryRowContext(ctx, orderQuery,
		order.ID,
		order.CustomerID,
		order.OrderDate,
		order.TotalAmount,
		order.Status,
		order.ShippingAddress,
		order.CustomerNotes,
	).Scan(&order.LastModified)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			r.log.Warnf("Order references non-existent customer %s", order.CustomerID)
			err = &domain.CustomerNotFoundError{CustomerID: order.CustomerID}
			return nil, err
		}
		r.log.Errorf("Failed to insert order for customer %s: %v", order.CustomerID, err)
		err = fmt.Errorf("could not create order entry: %w", err)
		return nil, err
	}

	itemStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, total_price)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		r.log.Errorf("Failed to prepare order item statement: %v", err)
		err = fmt.Errorf("could not prepare item statement: %w", err)
		return nil, err
	}
	defer itemStmt.Close()

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID

		_, err = itemStmt.ExecContext(ctx, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				r.log.Warnf("Order item references non-existent product %s", item.ProductID)
				err = &domain.ProductNotFoundError{ProductID: item.ProductID}
				return nil, err
			}
			r.log.Errorf("Failed to insert order item (product: %s) for order %s: %v", item.ProductID, order.ID, err)
			err = fmt.Errorf("could not create order item (product: %s): %w", item.ProductID, err)
			return nil, err
		}

		err = r.decrementStockTx(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		r.log.Errorf("Failed to commit order transaction for order %s: %v", order.ID, err)
		err = fmt.Errorf("failed to commit order transaction: %w", err)
		return nil, err
	}

	r.log.Infof("Order %s created successfully with %d items.", order.ID, len(order.Items))
	return order, nil
}

// decrementStockTx is the stock serialization point: the guarded UPDATE only
// matches while enough stock remains, so concurrent placements for the same
// product cannot drive stock below zero.
func (r *postgresOrderRepository) decrementStockTx(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	result, err := tx.ExecContext(ctx, `
        UPDATE products
        SET stock_available = stock_available - $2, last_modified = NOW()
        WHERE id = $1 AND stock_available >= $2`, productID, quantity)
	if err != nil {
		r.log.Errorf("Failed to decrement stock for product %s: %v", productID, err)
		return fmt.Errorf("could not decrement stock for product %s: %w", productID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm stock decrement for product %s: %w", productID, err)
	}
	if affected > 0 {
		return nil
	}

	var available int
	checkErr := tx.QueryRowContext(ctx, `SELECT stock_available FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(checkErr, sql.ErrNoRows) {
		r.log.Warnf("Product %s disappeared during order placement", productID)
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	if checkErr != nil {
		r.log.Errorf("Failed to read stock for product %s after rejected decrement: %v", productID, checkErr)
		return fmt.Errorf("could not read stock for product %s: %w", productID, checkErr)
	}

	r.log.Warnf("Insufficient stock for product %s during commit (requested: %d, available: %d)", productID, quantity, available)
	return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var processedDate sql.NullTime
	var processedBy sql.NullString

	orderQuery := `
        SELECT id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, processed_date, processed_by, last_modified
        FROM orders
        WHERE id = $1`

	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.CustomerID,
		&order.OrderDate,
		&order.TotalAmount,
		&order.Status,
		&order.ShippingAddress,
		&order.CustomerNotes,
		&processedDate,
		&processedBy,
		&order.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with ID %s not found", id)
			return nil, &domain.OrderNotFoundError{OrderID: id}
		}
		r.log.Errorf("Failed to get order by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not retrieve order: %w", err)
	}
	if processedDate.Valid {
		order.ProcessedDate = &processedDate.Time
	}
	if processedBy.Valid {
		order.ProcessedBy = processedBy.String
	}

	items, err := r.getOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *postgresOrderRepository) getOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	itemsQuery := `
        SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
        FROM order_items
        WHERE order_id = $1`

	rows, err := r.db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		r.log.Errorf("Failed to query order items for order %s: %v", orderID, err)
		return nil, fmt.Errorf("could not retrieve order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			r.log.Errorf("Failed to scan order item row for order %s: %v", orderID, err)
			return nil, fmt.Errorf("error scanning order item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during order items iteration for order %s: %v", orderID, err)
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	if items == nil {
		items = []domain.OrderItem{}
	}
	return items, nil
}

func (r *postgresOrderRepository) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	query := `
        SELECT id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, processed_date, processed_by, last_modified
        FROM orders
        ORDER BY order_date DESC
        LIMIT $1 OFFSET $2`
	return r.listOrders(ctx, query, limit, offset)
}

func (r *postgresOrderRepository) ListOrdersByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	query := `
        SELECT id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, processed_date, processed_by, last_modified
        FROM orders
        WHERE customer_id = $3
        ORDER BY order_date DESC
        LIMIT $1 OFFSET $2`
	return r.listOrders(ctx, query, limit, offset, customerID)
}

func (r *postgresOrderRepository) listOrders(ctx context.Context, query string, limit, offset int, extraArgs ...interface{}) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	args := append([]interface{}{limit, offset}, extraArgs...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Failed to list orders: %v", err)
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var orderIDs []string
	for rows.Next() {
		var order domain.Order
		var processedDate sql.NullTime
		var processedBy sql.NullString
		if err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.OrderDate,
			&order.TotalAmount,
			&order.Status,
			&order.ShippingAddress,
			&order.CustomerNotes,
			&processedDate,
			&processedBy,
			&order.LastModified,
		); err != nil {
			r.log.Errorf("Failed to scan order row: %v", err)
			return nil, fmt.Errorf("error scanning order data: %w", err)
		}
		if processedDate.Valid {
			order.ProcessedDate = &processedDate.Time
		}
		if processedBy.Valid {
			order.ProcessedBy = processedBy.String
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during orders iteration: %v", err)
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	itemsQuery := `
        SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
        FROM order_items
        WHERE order_id = ANY($1)
        ORDER BY order_id`

	itemRows, err := r.db.QueryContext(ctx, itemsQuery, pq.Array(orderIDs))
	if err != nil {
		r.log.Errorf("Failed to query items for multiple orders: %v", err)
		return nil, fmt.Errorf("could not retrieve order items for list: %w", err)
	}
	defer itemRows.Close()

	itemsMap := make(map[string][]domain.OrderItem)
	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			r.log.Errorf("Failed to scan order item row during multi-order fetch: %v", err)
			return nil, fmt.Errorf("error scanning order item data for list: %w", err)
		}
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}
	if err = itemRows.Err(); err != nil {
		r.log.Errorf("Error during multi-order items iteration: %v", err)
		return nil, fmt.Errorf("error iterating order items for list: %w", err)
	}

	for i := range orders {
		if items, ok := itemsMap[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}

	return orders, nil
}

// UpdateOrderStatus compare-and-swaps the status column: the UPDATE only
// matches while the stored status still equals expectedStatus, so two
// concurrent transitions cannot both win.
func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, id string, status, expectedStatus domain.OrderStatus, processedBy string, processedDate *time.Time) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = $1, processed_by = $2, processed_date = $3, last_modified = NOW()
        WHERE id = $4 AND status = $5
        RETURNING id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, processed_date, processed_by, last_modified`

	updatedOrder := &domain.Order{}
	var procDate sql.NullTime
	var procBy sql.NullString
	var procByArg sql.NullString
	if processedBy != "" {
		procByArg = sql.NullString{String: processedBy, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, status, procByArg, processedDate, id, expectedStatus).Scan(
		&updatedOrder.ID,
		&updatedOrder.CustomerID,
		&updatedOrder.OrderDate,
		&updatedOrder.TotalAmount,
		&updatedOrder.Status,
		&updatedOrder.ShippingAddress,
		&updatedOrder.CustomerNotes,
		&procDate,
		&procBy,
		&updatedOrder.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.resolveStaleStatus(ctx, r.db.QueryRowContext, id, status, expectedStatus)
		}
		r.log.Errorf("Failed to update status for order %s: %v", id, err)
		return nil, fmt.Errorf("could not update order status: %w", err)
	}
	if procDate.Valid {
		updatedOrder.ProcessedDate = &procDate.Time
	}
	if procBy.Valid {
		updatedOrder.ProcessedBy = procBy.String
	}

	items, err := r.getOrderItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order status updated, but failed to retrieve items: %w", err)
	}
	updatedOrder.Items = items

	r.log.Infof("Order %s status updated to '%s'", updatedOrder.ID, updatedOrder.Status)
	return updatedOrder, nil
}

type queryRowFunc func(ctx context.Context, query string, args ...interface{}) *sql.Row

// resolveStaleStatus turns a zero-row guarded status UPDATE into the precise
// error: the order is gone, or its status moved underneath the caller.
func (r *postgresOrderRepository) resolveStaleStatus(ctx context.Context, queryRow queryRowFunc, id string, status, expectedStatus domain.OrderStatus) error {
	var current domain.OrderStatus
	err := queryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		r.log.Warnf("Order with ID %s not found for status update", id)
		return &domain.OrderNotFoundError{OrderID: id}
	}
	if err != nil {
		r.log.Errorf("Failed to read status for order %s after rejected update: %v", id, err)
		return fmt.Errorf("could not read order status: %w", err)
	}
	r.log.Warnf("Status of order %s changed concurrently (expected '%s', found '%s')", id, expectedStatus, current)
	return &domain.InvalidTransitionError{OrderID: id, From: current, To: status}
}

// CancelOrder writes the Cancelled status and, when restoreStock is set, puts
// every item's quantity back on the shelf inside the same transaction. The
// guarded status UPDATE makes the whole cancellation a no-op when the order
// moved on concurrently, so the restore can never run without the status
// change committing with it.
func (r *postgresOrderRepository) CancelOrder(ctx context.Context, id string, expectedStatus domain.OrderStatus, restoreStock bool) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Errorf("Failed to begin cancellation transaction for order %s: %v", id, err)
		return nil, fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Recovered from panic, rolling back cancellation")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.log.Warnf("Rolling back cancellation of order %s: %v", id, err)
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorf("Failed to rollback cancellation: %v", rbErr)
			}
		}
	}()

	query := `
        UPDATE orders
        SET status = $1, last_modified = NOW()
        WHERE id = $2 AND status = $3
        RETURNING id, customer_id, order_date, total_amount, status, shipping_address, customer_notes, processed_date, processed_by, last_modified`

	cancelled := &domain.Order{}
	var procDate sql.NullTime
	var procBy sql.NullString
	err = tx.QueryRowContext(ctx, query, domain.StatusCancelled, id, expectedStatus).Scan(
		&cancelled.ID,
		&cancelled.CustomerID,
		&cancelled.OrderDate,
		&cancelled.TotalAmount,
		&cancelled.Status,
		&cancelled.ShippingAddress,
		&cancelled.CustomerNotes,
		&procDate,
		&procBy,
		&cancelled.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = r.resolveStaleStatus(ctx, tx.QueryRowContext, id, domain.StatusCancelled, expectedStatus)
			return nil, err
		}
		r.log.Errorf("Failed to cancel order %s: %v", id, err)
		err = fmt.Errorf("could not cancel order: %w", err)
		return nil, err
	}
	if procDate.Valid {
		cancelled.ProcessedDate = &procDate.Time
	}
	if procBy.Valid {
		cancelled.ProcessedBy = procBy.String
	}

	itemRows, err := tx.QueryContext(ctx, `
        SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
        FROM order_items
        WHERE order_id = $1`, id)
	if err != nil {
		r.log.Errorf("Failed to query items for cancellation of order %s: %v", id, err)
		err = fmt.Errorf("could not retrieve order items: %w", err)
		return nil, err
	}
	items := []domain.OrderItem{}
	for itemRows.Next() {
		var item domain.OrderItem
		if err = itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			itemRows.Close()
			r.log.Errorf("Failed to scan order item during cancellation of order %s: %v", id, err)
			err = fmt.Errorf("error scanning order item: %w", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err = itemRows.Err(); err != nil {
		itemRows.Close()
		err = fmt.Errorf("error iterating order items: %w", err)
		return nil, err
	}
	itemRows.Close()
	cancelled.Items = items

	if restoreStock {
		for _, item := range items {
			_, err = tx.ExecContext(ctx, `
                UPDATE products
                SET stock_available = stock_available + $2, last_modified = NOW()
                WHERE id = $1`, item.ProductID, item.Quantity)
			if err != nil {
				r.log.Errorf("Failed to restore stock for product %s during cancellation of order %s: %v", item.ProductID, id, err)
				err = fmt.Errorf("could not restore stock for product %s: %w", item.ProductID, err)
				return nil, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		r.log.Errorf("Failed to commit cancellation of order %s: %v", id, err)
		err = fmt.Errorf("failed to commit cancellation: %w", err)
		return nil, err
	}

	r.log.Infof("Order %s cancelled (stock restored: %t)", id, restoreStock)
	return cancelled, nil
}

func (r *postgresOrderRepository) DeleteOrder(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Errorf("Failed to begin transaction for order delete: %v", err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		_ = tx.Rollback()
		r.log.Errorf("Failed to delete items for order %s: %v", id, err)
		return fmt.Errorf("could not delete order items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		r.log.Errorf("Failed to delete order %s: %v", id, err)
		return fmt.Errorf("could not delete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not confirm order delete: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return &domain.OrderNotFoundError{OrderID: id}
	}

	if err = tx.Commit(); err != nil {
		r.log.Errorf("Failed to commit order delete for %s: %v", id, err)
		return fmt.Errorf("failed to commit order delete: %w", err)
	}

	r.log.Infof("Order %s deleted with its items", id)
	return nil
}
