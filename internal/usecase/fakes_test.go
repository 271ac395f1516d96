package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"retail_service/internal/domain"

	"github.com/google/uuid"
)

// In-memory doubles for the repository and notifier interfaces. The fake order
// repository mirrors the transactional contract of the real one: order, items,
// and stock decrements commit together or not at all.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	r.products[product.ID] = product
	return product, nil
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	clone := *product
	return &clone, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, _, _ int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return nil, &domain.ProductNotFoundError{ProductID: product.ID}
	}
	clone := *product
	r.products[product.ID] = &clone
	return product, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	product.IsActive = false
	return nil
}

func (r *fakeProductRepo) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].StockAvailable
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
}

func newFakeCustomerRepo(customers ...*domain.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{customers: make(map[string]*domain.Customer)}
	for _, c := range customers {
		repo.customers[c.ID] = c
	}
	return repo
}

func (r *fakeCustomerRepo) CreateCustomer(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	for _, existing := range r.customers {
		if existing.Username == customer.Username || existing.Email == customer.Email {
			return nil, errors.New("customer with this username or email already exists")
		}
	}
	customer.CreatedAt = time.Now().UTC()
	r.customers[customer.ID] = customer
	return customer, nil
}

func (r *fakeCustomerRepo) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, &domain.CustomerNotFoundError{CustomerID: id}
	}
	clone := *customer
	return &clone, nil
}

func (r *fakeCustomerRepo) GetCustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email {
			clone := *c
			return &clone, nil
		}
	}
	return nil, &domain.CustomerNotFoundError{CustomerID: email}
}

func (r *fakeCustomerRepo) GetCustomerByUsername(_ context.Context, username string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.Username == username {
			clone := *c
			return &clone, nil
		}
	}
	return nil, &domain.CustomerNotFoundError{CustomerID: username}
}

func (r *fakeCustomerRepo) ListCustomers(_ context.Context, _, _ int) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, c := range r.customers {
		if c.Status == domain.CustomerActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if _, ok := r.customers[customer.ID]; !ok {
		return nil, &domain.CustomerNotFoundError{CustomerID: customer.ID}
	}
	clone := *customer
	r.customers[customer.ID] = &clone
	return customer, nil
}

func (r *fakeCustomerRepo) DeleteCustomer(_ context.Context, id string) error {
	customer, ok := r.customers[id]
	if !ok {
		return &domain.CustomerNotFoundError{CustomerID: id}
	}
	customer.Status = domain.CustomerInactive
	return nil
}

func (r *fakeCustomerRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	customer, ok := r.customers[id]
	if !ok {
		return &domain.CustomerNotFoundError{CustomerID: id}
	}
	customer.LastLogin = &at
	return nil
}

type fakeCartStore struct {
	carts     map[string]*domain.Cart
	saveErr   error
	deleteErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string]*domain.Cart)}
}

func (s *fakeCartStore) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	cart, ok := s.carts[customerID]
	if !ok {
		return nil, nil
	}
	clone := *cart
	clone.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &clone, nil
}

func (s *fakeCartStore) SaveCart(_ context.Context, cart *domain.Cart) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *cart
	clone.Lines = append([]domain.CartLine(nil), cart.Lines...)
	s.carts[cart.CustomerID] = &clone
	return nil
}

func (s *fakeCartStore) DeleteCart(_ context.Context, customerID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.carts, customerID)
	return nil
}

type fakeOrderRepo struct {
	orders    map[string]*domain.Order
	products  *fakeProductRepo
	createErr error
	cancelErr error
	// beforeCancel runs at the top of CancelOrder, standing in for another
	// request interleaving between the caller's read and the commit.
	beforeCancel func()
}

func newFakeOrderRepo(products *fakeProductRepo) *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order), products: products}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}

	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	// Validate every decrement before applying any, like the real transaction.
	for _, item := range order.Items {
		product, ok := r.products.products[item.ProductID]
		if !ok {
			return nil, &domain.ProductNotFoundError{ProductID: item.ProductID}
		}
		if product.StockAvailable < item.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: product.StockAvailable,
			}
		}
	}
	for _, item := range order.Items {
		r.products.products[item.ProductID].StockAvailable -= item.Quantity
	}

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &stored
	return order, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, &domain.OrderNotFoundError{OrderID: id}
	}
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return &clone, nil
}

func (r *fakeOrderRepo) ListOrders(_ context.Context, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) ListOrdersByCustomer(_ context.Context, customerID string, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id string, status, expectedStatus domain.OrderStatus, processedBy string, processedDate *time.Time) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, &domain.OrderNotFoundError{OrderID: id}
	}
	if order.Status != expectedStatus {
		return nil, &domain.InvalidTransitionError{OrderID: id, From: order.Status, To: status}
	}
	order.Status = status
	order.ProcessedBy = processedBy
	order.ProcessedDate = processedDate
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return &clone, nil
}

// CancelOrder mirrors the real transaction: the guarded status write and the
// stock restore succeed or fail together.
func (r *fakeOrderRepo) CancelOrder(_ context.Context, id string, expectedStatus domain.OrderStatus, restoreStock bool) (*domain.Order, error) {
	if r.beforeCancel != nil {
		r.beforeCancel()
	}
	if r.cancelErr != nil {
		return nil, r.cancelErr
	}
	order, ok := r.orders[id]
	if !ok {
		return nil, &domain.OrderNotFoundError{OrderID: id}
	}
	if order.Status != expectedStatus {
		return nil, &domain.InvalidTransitionError{OrderID: id, From: order.Status, To: domain.StatusCancelled}
	}
	order.Status = domain.StatusCancelled
	if restoreStock {
		r.products.mu.Lock()
		for _, item := range order.Items {
			if product, ok := r.products.products[item.ProductID]; ok {
				product.StockAvailable += item.Quantity
			}
		}
		r.products.mu.Unlock()
	}
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return &clone, nil
}

func (r *fakeOrderRepo) DeleteOrder(_ context.Context, id string) error {
	if _, ok := r.orders[id]; !ok {
		return &domain.OrderNotFoundError{OrderID: id}
	}
	delete(r.orders, id)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	orderMsgs []domain.OrderStatusMessage
	stockMsgs []domain.StockUpdateMessage
}

func (n *fakeNotifier) EmitOrderStatus(msg domain.OrderStatusMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orderMsgs = append(n.orderMsgs, msg)
}

func (n *fakeNotifier) EmitStockUpdate(msg domain.StockUpdateMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stockMsgs = append(n.stockMsgs, msg)
}
