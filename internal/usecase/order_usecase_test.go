package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"retail_service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func activeCustomer(id string) *domain.Customer {
	return &domain.Customer{
		ID:              id,
		Name:            "Thandi",
		Surname:         "Mokoena",
		Username:        "thandi",
		Email:           "thandi@example.com",
		Role:            domain.RoleCustomer,
		Status:          domain.CustomerActive,
		ShippingAddress: "12 Long Street, Cape Town",
	}
}

func testProduct(id string, price string, stock int) *domain.Product {
	return &domain.Product{
		ID:             id,
		ProductName:    "Product " + id,
		Price:          decimal.RequireFromString(price),
		StockAvailable: stock,
		IsActive:       true,
	}
}

type orderFixture struct {
	uc        domain.OrderUseCase
	orders    *fakeOrderRepo
	products  *fakeProductRepo
	customers *fakeCustomerRepo
	carts     *fakeCartStore
	notifier  *fakeNotifier
}

func newOrderFixture(products ...*domain.Product) *orderFixture {
	productRepo := newFakeProductRepo(products...)
	customerRepo := newFakeCustomerRepo(activeCustomer("cust-1"))
	orderRepo := newFakeOrderRepo(productRepo)
	cartStore := newFakeCartStore()
	notifier := &fakeNotifier{}

	return &orderFixture{
		uc:        NewOrderUseCase(orderRepo, productRepo, customerRepo, cartStore, notifier, newTestLogger()),
		orders:    orderRepo,
		products:  productRepo,
		customers: customerRepo,
		carts:     cartStore,
		notifier:  notifier,
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	fix.carts.carts["cust-1"] = &domain.Cart{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", ProductName: "Product P", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 3}},
	}

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 3}},
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "30.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "P", order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "30.00", order.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, 2, fix.products.stock("P"))

	// Shipping address is copied from the customer when absent from the input.
	assert.Equal(t, "12 Long Street, Cape Town", order.ShippingAddress)

	// Cart is cleared after a successful placement.
	cart, err := fix.carts.GetCart(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Nil(t, cart)

	// One stock-update message per involved product, negative for a sale.
	require.Len(t, fix.notifier.stockMsgs, 1)
	assert.Equal(t, "P", fix.notifier.stockMsgs[0].ProductID)
	assert.Equal(t, -3, fix.notifier.stockMsgs[0].QuantityChange)
	assert.NotEmpty(t, fix.notifier.stockMsgs[0].EventID)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 2))

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 3}},
	})
	require.Error(t, err)
	assert.Nil(t, order)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "P", stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, 2, fix.products.stock("P"))
	assert.Empty(t, fix.orders.orders)
	assert.Empty(t, fix.notifier.stockMsgs)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	fix := newOrderFixture()

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{CustomerID: "cust-1"})
	require.Error(t, err)
	assert.Nil(t, order)

	var emptyErr *domain.EmptyCartError
	assert.True(t, errors.As(err, &emptyErr))
	assert.Empty(t, fix.orders.orders)
}

func TestPlaceOrderCustomerNotFound(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))

	_, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "ghost",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 1}},
	})
	var notFound *domain.CustomerNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 5, fix.products.stock("P"))
}

func TestPlaceOrderInactiveCustomerRejected(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	inactive := activeCustomer("cust-2")
	inactive.Status = domain.CustomerInactive
	fix.customers.customers["cust-2"] = inactive

	_, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-2",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 1}},
	})
	var notFound *domain.CustomerNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestPlaceOrderProductNotFoundNamesLine(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))

	_, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines: []domain.CartLine{
			{ProductID: "P", Quantity: 1},
			{ProductID: "missing", Quantity: 1},
		},
	})
	var notFound *domain.ProductNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.ProductID)
	assert.Equal(t, 5, fix.products.stock("P"))
}

func TestPlaceOrderAllOrNothingAcrossLines(t *testing.T) {
	fix := newOrderFixture(
		testProduct("A", "5.00", 10),
		testProduct("B", "7.50", 1),
	)

	_, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines: []domain.CartLine{
			{ProductID: "A", Quantity: 4},
			{ProductID: "B", Quantity: 2},
		},
	})
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "B", stockErr.ProductID)

	// The valid line must not have been applied.
	assert.Equal(t, 10, fix.products.stock("A"))
	assert.Equal(t, 1, fix.products.stock("B"))
	assert.Empty(t, fix.orders.orders)
}

func TestPlaceOrderDuplicateLinesValidatedAgainstSum(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))

	_, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines: []domain.CartLine{
			{ProductID: "P", Quantity: 3},
			{ProductID: "P", Quantity: 3},
		},
	})
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 5, fix.products.stock("P"))
}

func TestPlaceOrderPersistenceFailureLeavesNoTrace(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	fix.orders.createErr = errors.New("connection reset")
	fix.carts.carts["cust-1"] = &domain.Cart{CustomerID: "cust-1", Lines: []domain.CartLine{{ProductID: "P", Quantity: 2}}}

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 2}},
	})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Equal(t, 5, fix.products.stock("P"))
	assert.Empty(t, fix.notifier.stockMsgs)

	// The cart must survive a failed placement.
	cart, getErr := fix.carts.GetCart(context.Background(), "cust-1")
	require.NoError(t, getErr)
	require.NotNil(t, cart)
	assert.Equal(t, 2, cart.TotalItems())
}

func TestPlacedOrderPriceSnapshotIsStable(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 3}},
	})
	require.NoError(t, err)

	// A later price change must not re-price the placed order.
	fix.products.products["P"].Price = decimal.RequireFromString("99.99")

	for i := 0; i < 3; i++ {
		fetched, err := fix.uc.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, "30.00", fetched.TotalAmount.StringFixed(2))
		require.Len(t, fetched.Items, 1)
		assert.Equal(t, "10.00", fetched.Items[0].UnitPrice.StringFixed(2))
	}
}

func placePendingOrder(t *testing.T, fix *orderFixture, productID string, quantity int) *domain.Order {
	t.Helper()
	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: productID, Quantity: quantity}},
	})
	require.NoError(t, err)
	fix.notifier.stockMsgs = nil
	return order
}

func TestUpdateOrderStatusStampsProcessingMetadata(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 2)

	updated, err := fix.uc.UpdateOrderStatus(context.Background(), order.ID, domain.StatusProcessing, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessing, updated.Status)
	assert.Equal(t, "admin-1", updated.ProcessedBy)
	require.NotNil(t, updated.ProcessedDate)

	require.Len(t, fix.notifier.orderMsgs, 1)
	msg := fix.notifier.orderMsgs[0]
	assert.Equal(t, domain.MessageTypeOrderStatusUpdated, msg.Type)
	assert.Equal(t, order.ID, msg.OrderID)
	assert.Equal(t, domain.StatusPending, msg.PreviousStatus)
	assert.Equal(t, domain.StatusProcessing, msg.NewStatus)
	assert.Equal(t, "admin-1", msg.UpdatedBy)
	assert.Equal(t, "cust-1", msg.CustomerID)
	assert.NotEmpty(t, msg.EventID)
}

func TestUpdateOrderStatusEmitsExactlyOneMessagePerTransition(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 1)

	for _, status := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered} {
		_, err := fix.uc.UpdateOrderStatus(context.Background(), order.ID, status, "admin-1")
		require.NoError(t, err)
	}
	assert.Len(t, fix.notifier.orderMsgs, 3)
}

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 1)

	_, err := fix.uc.UpdateOrderStatus(context.Background(), order.ID, domain.StatusDelivered, "admin-1")
	var transitionErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, domain.StatusPending, transitionErr.From)
	assert.Equal(t, domain.StatusDelivered, transitionErr.To)
	assert.Empty(t, fix.notifier.orderMsgs)
}

func TestDeliveredOrderCannotBeCancelled(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 1)

	for _, status := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered} {
		_, err := fix.uc.UpdateOrderStatus(context.Background(), order.ID, status, "admin-1")
		require.NoError(t, err)
	}

	_, err := fix.uc.CancelOrder(context.Background(), order.ID, "cust-1")
	var transitionErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
}

func TestCancelBeforeShipmentRestoresStock(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 3)
	require.Equal(t, 2, fix.products.stock("P"))

	cancelled, err := fix.uc.CancelOrder(context.Background(), order.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, fix.products.stock("P"))

	require.Len(t, fix.notifier.stockMsgs, 1)
	assert.Equal(t, 3, fix.notifier.stockMsgs[0].QuantityChange)
}

func TestCancelAfterShipmentKeepsStock(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 3)

	for _, status := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped} {
		_, err := fix.uc.UpdateOrderStatus(context.Background(), order.ID, status, "admin-1")
		require.NoError(t, err)
	}

	_, err := fix.uc.CancelOrder(context.Background(), order.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, fix.products.stock("P"))
	assert.Empty(t, fix.notifier.stockMsgs)
}

func TestFailedCancellationRestoresNothing(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 3)
	require.Equal(t, 2, fix.products.stock("P"))

	fix.orders.cancelErr = errors.New("connection reset")

	_, err := fix.uc.CancelOrder(context.Background(), order.ID, "cust-1")
	require.Error(t, err)

	// The cancellation did not commit, so the order keeps its status and the
	// sold units stay off the shelf.
	stored, getErr := fix.uc.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, 2, fix.products.stock("P"))
	assert.Empty(t, fix.notifier.stockMsgs)
	assert.Empty(t, fix.notifier.orderMsgs)
}

func TestConcurrentCancellationRestoresStockOnce(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	order := placePendingOrder(t, fix, "P", 3)
	require.Equal(t, 2, fix.products.stock("P"))

	// Another cancellation wins between this caller's read and its commit.
	fix.orders.beforeCancel = func() {
		fix.orders.beforeCancel = nil
		stored := fix.orders.orders[order.ID]
		stored.Status = domain.StatusCancelled
		fix.products.mu.Lock()
		fix.products.products["P"].StockAvailable += 3
		fix.products.mu.Unlock()
	}

	_, err := fix.uc.CancelOrder(context.Background(), order.ID, "cust-1")
	var transitionErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))

	assert.Equal(t, 5, fix.products.stock("P"))
	assert.Empty(t, fix.notifier.stockMsgs)
}

func TestCartClearFailureDoesNotFailPlacement(t *testing.T) {
	fix := newOrderFixture(testProduct("P", "10.00", 5))
	fix.carts.deleteErr = errors.New("redis unavailable")

	order, err := fix.uc.PlaceOrder(context.Background(), domain.PlaceOrderInput{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "P", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 4, fix.products.stock("P"))
}
