package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail_service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var _ domain.OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	orderRepo    domain.OrderRepository
	productRepo  domain.ProductRepository
	customerRepo domain.CustomerRepository
	cartStore    domain.CartStore
	notifier     domain.Notifier
	log          *logrus.Logger
}

func NewOrderUseCase(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	customerRepo domain.CustomerRepository,
	cartStore domain.CartStore,
	notifier domain.Notifier,
	logger *logrus.Logger,
) domain.OrderUseCase {
	return &orderUseCase{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		cartStore:    cartStore,
		notifier:     notifier,
		log:          logger,
	}
}

// PlaceOrder converts cart lines into a persisted order. Every line is
// validated before any mutation begins; the repository then commits order,
// items, and stock decrements as one transaction.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, input domain.PlaceOrderInput) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		uc.log.Warnf("Use Case: Order placement rejected - empty cart for customer %s", input.CustomerID)
		return nil, &domain.EmptyCartError{CustomerID: input.CustomerID}
	}

	customer, err := uc.customerRepo.GetCustomerByID(ctx, input.CustomerID)
	if err != nil {
		var notFound *domain.CustomerNotFoundError
		if errors.As(err, &notFound) {
			uc.log.Warnf("Use Case: Order placement rejected - customer %s not found", input.CustomerID)
			return nil, err
		}
		uc.log.Errorf("Use Case: Failed to resolve customer %s: %v", input.CustomerID, err)
		return nil, fmt.Errorf("could not resolve customer: %w", err)
	}
	if !customer.IsActive() {
		uc.log.Warnf("Use Case: Order placement rejected - customer %s is inactive", input.CustomerID)
		return nil, &domain.CustomerNotFoundError{CustomerID: input.CustomerID}
	}

	// Validate every line against current stock before touching anything.
	// Duplicate product ids are validated against their summed quantity.
	requested := make(map[string]int)
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", line.Quantity, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	products := make(map[string]*domain.Product, len(requested))
	for _, line := range input.Lines {
		if _, seen := products[line.ProductID]; seen {
			continue
		}
		product, err := uc.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			var notFound *domain.ProductNotFoundError
			if errors.As(err, &notFound) {
				uc.log.Warnf("Use Case: Order placement rejected - product %s not found", line.ProductID)
				return nil, err
			}
			uc.log.Errorf("Use Case: Failed to resolve product %s: %v", line.ProductID, err)
			return nil, fmt.Errorf("could not resolve product %s: %w", line.ProductID, err)
		}
		if !product.IsActive {
			uc.log.Warnf("Use Case: Order placement rejected - product %s is inactive", line.ProductID)
			return nil, &domain.ProductNotFoundError{ProductID: line.ProductID}
		}
		if product.StockAvailable < requested[line.ProductID] {
			uc.log.Warnf("Use Case: Order placement rejected - insufficient stock for product %s (requested: %d, available: %d)",
				line.ProductID, requested[line.ProductID], product.StockAvailable)
			return nil, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: requested[line.ProductID],
				Available: product.StockAvailable,
			}
		}
		products[line.ProductID] = product
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		OrderDate:       now,
		Status:          domain.StatusPending,
		ShippingAddress: input.ShippingAddress,
		CustomerNotes:   input.CustomerNotes,
		Items:           make([]domain.OrderItem, 0, len(input.Lines)),
	}
	if order.ShippingAddress == "" {
		order.ShippingAddress = customer.ShippingAddress
	}

	total := decimal.Zero
	for _, line := range input.Lines {
		product := products[line.ProductID]
		// Snapshot name and price as of now; the order is never re-priced.
		itemTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  itemTotal,
		})
		total = total.Add(itemTotal)
	}
	order.TotalAmount = total

	uc.log.Infof("Use Case: Placing order %s for customer %s (%d items, total %s)",
		order.ID, customer.ID, len(order.Items), order.TotalAmount.StringFixed(2))

	createdOrder, err := uc.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to persist order for customer %s: %v", customer.ID, err)
		return nil, err
	}

	// The order is committed; cart cleanup is best-effort.
	if err := uc.cartStore.DeleteCart(ctx, customer.ID); err != nil {
		uc.log.Warnf("Use Case: Order %s placed but cart for customer %s could not be cleared: %v", createdOrder.ID, customer.ID, err)
	}

	for _, item := range createdOrder.Items {
		uc.notifier.EmitStockUpdate(domain.NewStockUpdateMessage(item.ProductID, -item.Quantity, now))
	}

	uc.log.Infof("Use Case: Order %s created successfully for customer %s", createdOrder.ID, customer.ID)
	return createdOrder, nil
}

func (uc *orderUseCase) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, errors.New("invalid order ID")
	}
	order, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to get order %s: %v", id, err)
		return nil, err
	}
	return order, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	orders, err := uc.orderRepo.ListOrders(ctx, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list orders: %v", err)
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}
	return orders, nil
}

func (uc *orderUseCase) ListOrdersByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	if customerID == "" {
		return nil, errors.New("invalid customer ID")
	}
	orders, err := uc.orderRepo.ListOrdersByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list orders for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("could not retrieve orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// UpdateOrderStatus enforces the order lifecycle, stamps processing metadata,
// restores stock on early cancellation, and emits exactly one status
// notification after the update commits.
func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus, actor string) (*domain.Order, error) {
	if orderID == "" {
		return nil, errors.New("invalid order ID for status update")
	}
	if !domain.IsValidStatus(newStatus) {
		return nil, fmt.Errorf("invalid target order status: %s", newStatus)
	}

	currentOrder, err := uc.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		uc.log.Warnf("Use Case: Could not get order %s for status update: %v", orderID, err)
		return nil, err
	}
	previousStatus := currentOrder.Status

	if !previousStatus.CanTransition(newStatus) {
		uc.log.Warnf("Use Case: Rejected status transition for order %s: %s -> %s", orderID, previousStatus, newStatus)
		return nil, &domain.InvalidTransitionError{OrderID: orderID, From: previousStatus, To: newStatus}
	}

	var updatedOrder *domain.Order
	if newStatus == domain.StatusCancelled {
		// Cancelling an order that never shipped puts its stock back on the
		// shelf. The repository commits the status change and the restore as
		// one transaction, guarded on the status the caller saw, so a failed
		// or concurrent cancellation never leaves restored stock behind.
		restoreStock := previousStatus != domain.StatusShipped
		updatedOrder, err = uc.orderRepo.CancelOrder(ctx, orderID, previousStatus, restoreStock)
		if err != nil {
			uc.log.Errorf("Use Case: Failed to cancel order %s: %v", orderID, err)
			return nil, err
		}
		if restoreStock {
			for _, item := range updatedOrder.Items {
				uc.notifier.EmitStockUpdate(domain.NewStockUpdateMessage(item.ProductID, item.Quantity, time.Now().UTC()))
			}
		}
	} else {
		processedBy := currentOrder.ProcessedBy
		processedDate := currentOrder.ProcessedDate
		if newStatus == domain.StatusProcessing || newStatus == domain.StatusShipped {
			now := time.Now().UTC()
			processedBy = actor
			processedDate = &now
		}

		updatedOrder, err = uc.orderRepo.UpdateOrderStatus(ctx, orderID, newStatus, previousStatus, processedBy, processedDate)
		if err != nil {
			uc.log.Errorf("Use Case: Failed to update status for order %s: %v", orderID, err)
			return nil, err
		}
	}

	uc.notifier.EmitOrderStatus(domain.NewOrderStatusMessage(
		updatedOrder.ID, previousStatus, updatedOrder.Status, actor, updatedOrder.CustomerID, time.Now().UTC()))

	uc.log.Infof("Use Case: Order %s status updated from '%s' to '%s' by %s", updatedOrder.ID, previousStatus, updatedOrder.Status, actor)
	return updatedOrder, nil
}

func (uc *orderUseCase) CancelOrder(ctx context.Context, orderID string, actor string) (*domain.Order, error) {
	return uc.UpdateOrderStatus(ctx, orderID, domain.StatusCancelled, actor)
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return errors.New("invalid order ID")
	}
	if err := uc.orderRepo.DeleteOrder(ctx, orderID); err != nil {
		uc.log.Errorf("Use Case: Failed to delete order %s: %v", orderID, err)
		return err
	}
	uc.log.Infof("Use Case: Order %s deleted", orderID)
	return nil
}
