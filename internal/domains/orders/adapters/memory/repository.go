package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	catalogmemory "github.com/meganoshop/backend/internal/domains/catalog/adapters/memory"
	"github.com/meganoshop/backend/internal/domains/orders/domain"
	"github.com/meganoshop/backend/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory orders adapter. It needs the catalog memory
// repository to mutate stock during settlement, the way the Postgres
// adapter touches the products table inside its transaction.
type Repository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	nextID     int64
	nextLineID int64
	condition  domain.DeliveryCondition
	products   *catalogmemory.Repository
	locks      sync.Map // order id -> *sync.Mutex, serializes settlement
}

func NewRepository(products *catalogmemory.Repository) *Repository {
	return &Repository{
		orders:   map[int64]*domain.Order{},
		products: products,
		condition: domain.DeliveryCondition{
			ID:         1,
			Name:       "standard conditions",
			Cost:       200,
			Threshold:  2000,
			ExpressFee: 500,
		},
	}
}

// SetDeliveryCondition overrides the live condition, for tests.
func (r *Repository) SetDeliveryCondition(condition domain.DeliveryCondition) {
	r.mu.Lock()
	r.condition = condition
	r.mu.Unlock()
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := cloneOrder(order)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone.ID = r.nextID
	for i := range clone.Lines {
		r.nextLineID++
		clone.Lines[i].ID = r.nextLineID
		clone.Lines[i].OrderID = clone.ID
	}
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			list = append(list, cloneOrder(order))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return ports.ErrNotFound
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *Repository) SetStatus(_ context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	return order.Transition(status)
}

// Settle serializes on a per-order mutex standing in for the row lock, then
// applies the same sequence as the Postgres adapter. Mutations become
// visible only when every step succeeded.
func (r *Repository) Settle(ctx context.Context, orderID int64, charge func(ctx context.Context, order *domain.Order) error) error {
	lockAny, _ := r.locks.LoadOrStore(orderID, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.orders[orderID]
	r.mu.RUnlock()
	if !ok {
		return ports.ErrNotFound
	}

	working := cloneOrder(stored)
	if err := working.Transition(domain.StatusConfirmingPayment); err != nil {
		return err
	}
	if err := charge(ctx, working); err != nil {
		return err
	}
	if err := working.Transition(domain.StatusPaid); err != nil {
		return err
	}

	// Commit point: publish status and stock changes together.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products != nil {
		for _, line := range working.Lines {
			if err := r.products.AdjustStock(line.ProductID, line.Count); err != nil {
				// Roll back the deductions applied so far.
				for _, applied := range working.Lines {
					if applied.ID == line.ID {
						break
					}
					_ = r.products.AdjustStock(applied.ProductID, -applied.Count)
				}
				return err
			}
		}
	}
	r.orders[orderID] = working
	return nil
}

func (r *Repository) DeliveryCondition(_ context.Context) (*domain.DeliveryCondition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	condition := r.condition
	return &condition, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Lines = make([]domain.PurchasedLine, len(order.Lines))
	copy(clone.Lines, order.Lines)
	return &clone
}
