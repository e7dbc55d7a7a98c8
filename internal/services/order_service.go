package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"shop-backend/internal/domain"
	rabbit "shop-backend/internal/infra/rabbitmq"
	"shop-backend/internal/repository"
)

const maxOrderNumberAttempts = 10

// OrderService is the order transaction engine: it converts a cart into an
// immutable order snapshot inside one database transaction.
type OrderService struct {
	store     repository.Store
	pricing   PricingPolicy
	publisher rabbit.PublisherInterface
}

func NewOrderService(store repository.Store, pricing PricingPolicy, publisher rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		store:     store,
		pricing:   pricing,
		publisher: publisher,
	}
}

type CreateOrderInput struct {
	Email               string
	PhoneNumber         string
	ShippingAddress     domain.Address
	BillingAddress      *domain.Address
	PaymentMethod       string
	SpecialInstructions string
}

// CreateOrder runs the whole cart-to-order conversion as one atomic unit:
// binding stock validation, totals, order + item snapshots, stock
// reservation and cart clear either all commit or none do.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint64, in CreateOrderInput) (*domain.Order, error) {
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if in.BillingAddress != nil {
		if err := in.BillingAddress.Validate(); err != nil {
			return nil, err
		}
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "paystack"
	}

	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		// Binding re-validation: the cart-time check was advisory, this one
		// decides. Product rows are refreshed so the price snapshot below
		// uses order-time prices.
		for i := range cart.Items {
			product, err := tx.Products().GetByID(ctx, cart.Items[i].ProductID)
			if err != nil {
				return err
			}
			if !product.Available() {
				return &domain.ProductUnavailableError{ProductID: product.ID, ProductName: product.Name}
			}
			if cart.Items[i].Quantity > product.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Quantity,
				}
			}
			cart.Items[i].Product = *product
		}

		subtotal := cart.Subtotal()
		weight := cart.TotalWeight(s.pricing.ItemWeightFallback())

		order = &domain.Order{
			UserID:              userID,
			Email:               in.Email,
			PhoneNumber:         in.PhoneNumber,
			Status:              domain.OrderPending,
			PaymentStatus:       domain.PaymentPending,
			ShippingAddress:     in.ShippingAddress,
			BillingAddress:      in.BillingAddress,
			Subtotal:            subtotal,
			ShippingCost:        s.pricing.ShippingCost(subtotal, weight),
			TaxAmount:           s.pricing.Tax(subtotal),
			DiscountAmount:      decimal.Zero,
			PaymentMethod:       in.PaymentMethod,
			SpecialInstructions: in.SpecialInstructions,
		}
		order.ComputeTotal()

		if err := s.createWithFreshNumber(ctx, tx, order); err != nil {
			return err
		}

		for i := range cart.Items {
			item := &cart.Items[i]
			orderItem := &domain.OrderItem{
				OrderID:      order.ID,
				ProductID:    item.ProductID,
				ProductName:  item.Product.Name,
				ProductSKU:   item.Product.SKU,
				ProductImage: item.Product.ImageURL,
				UnitPrice:    item.Product.Price,
				Quantity:     item.Quantity,
				TotalPrice:   item.LineTotal(),
			}
			if err := tx.Orders().CreateItem(ctx, orderItem); err != nil {
				return err
			}
			order.Items = append(order.Items, *orderItem)

			// Losing the race against a concurrent order here aborts the
			// whole transaction, undoing reservations already made above.
			if err := tx.Products().Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return tx.Carts().Clear(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		TotalItems:  totalItems(order.Items),
		CreatedAt:   order.CreatedAt,
	})

	return order, nil
}

// CancelOrder reverses the order's stock reservations and records the
// transition. Only pending/confirmed orders without captured payment
// qualify.
func (s *OrderService) CancelOrder(ctx context.Context, userID uint64, orderNumber, reason string) (*domain.Order, error) {
	var order *domain.Order
	var old domain.OrderStatus
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		old = order.Status
		if order.UserID != userID {
			return domain.ErrOrderNotFound
		}
		if !order.CanCancel() {
			return domain.ErrNotCancellable
		}

		note := "Cancelled by user"
		if reason != "" {
			note = "Cancelled: " + reason
		}
		if err := tx.Orders().AppendNotes(ctx, order, note); err != nil {
			return err
		}

		for i := range order.Items {
			if err := tx.Products().Release(ctx, order.Items[i].ProductID, order.Items[i].Quantity); err != nil {
				return err
			}
		}

		return tx.Orders().SetStatus(ctx, order, domain.OrderCancelled, note, &userID)
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		OldStatus:   old,
		NewStatus:   domain.OrderCancelled,
		ChangedAt:   time.Now(),
	})

	return order, nil
}

// UpdateStatus is the administrative transition path. It still goes through
// the repository's single status-write path, so history is always recorded.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, notes string, changedBy *uint64) (*domain.Order, error) {
	var order *domain.Order
	var old domain.OrderStatus
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		old = order.Status
		return tx.Orders().SetStatus(ctx, order, status, notes, changedBy)
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		OldStatus:   old,
		NewStatus:   status,
		ChangedAt:   time.Now(),
	})

	return order, nil
}

// MarkDelivered stamps the delivery date via the delivered transition.
func (s *OrderService) MarkDelivered(ctx context.Context, orderNumber string, changedBy *uint64) (*domain.Order, error) {
	return s.UpdateStatus(ctx, orderNumber, domain.OrderDelivered, "Order delivered", changedBy)
}

func (s *OrderService) GetOrder(ctx context.Context, userID uint64, orderNumber string) (*domain.Order, error) {
	order, err := s.store.Orders().GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID, limit)
}

type ReturnRequestInput struct {
	OrderNumber string
	OrderItemID *uint64
	Reason      domain.ReturnReason
	Description string
}

// RequestReturn opens a pending return for an order the user owns. Only paid
// orders that have not been cancelled or refunded qualify; an item-scoped
// return must name a line that belongs to the order.
func (s *OrderService) RequestReturn(ctx context.Context, userID uint64, in ReturnRequestInput) (*domain.ReturnRequest, error) {
	order, err := s.store.Orders().GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	if !order.CanRefund() {
		return nil, domain.ErrNotReturnable
	}

	ret := &domain.ReturnRequest{
		OrderID:     order.ID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      domain.ReturnPending,
	}
	if in.OrderItemID != nil {
		var found bool
		for i := range order.Items {
			if order.Items[i].ID == *in.OrderItemID {
				found = true
				break
			}
		}
		if !found {
			return nil, domain.ErrOrderItemNotFound
		}
		ret.OrderItemID = in.OrderItemID
	}

	if err := s.store.Orders().CreateReturn(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *OrderService) ListReturns(ctx context.Context, userID uint64, limit int) ([]domain.ReturnRequest, error) {
	return s.store.Orders().ListReturnsByUser(ctx, userID, limit)
}

// ApproveReturn resolves a pending return and records the refund against the
// order's payment in the same transaction. The refund amount is the item's
// line total for an item-scoped return, otherwise the order total; the usual
// refund guards apply, so an approval can never over-refund a payment.
func (s *OrderService) ApproveReturn(ctx context.Context, returnID uint64, approvedBy *uint64) (*domain.ReturnRequest, error) {
	var ret *domain.ReturnRequest
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ret, err = tx.Orders().GetReturnByID(ctx, returnID)
		if err != nil {
			return err
		}
		if !ret.IsPending() {
			return domain.ErrReturnNotPending
		}
		if ret.Order == nil || ret.Order.PaymentReference == "" {
			return domain.ErrNotRefundable
		}

		amount := ret.Order.TotalAmount
		refundType := domain.RefundFull
		if ret.OrderItem != nil {
			amount = ret.OrderItem.TotalPrice
			refundType = domain.RefundPartial
		}

		payment, err := tx.Payments().GetByReference(ctx, ret.Order.PaymentReference)
		if err != nil {
			return err
		}
		if _, err := createRefund(ctx, tx, payment, amount, refundType, "Return request approved", approvedBy); err != nil {
			return err
		}

		return tx.Orders().SetReturnStatus(ctx, ret, domain.ReturnApproved, "", &amount)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// RejectReturn closes a pending return without touching the payment. The
// rejection reason is kept as admin notes.
func (s *OrderService) RejectReturn(ctx context.Context, returnID uint64, reason string) (*domain.ReturnRequest, error) {
	ret, err := s.store.Orders().GetReturnByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if !ret.IsPending() {
		return nil, domain.ErrReturnNotPending
	}
	if err := s.store.Orders().SetReturnStatus(ctx, ret, domain.ReturnRejected, reason, nil); err != nil {
		return nil, err
	}
	return ret, nil
}

// AddShippingUpdate appends a courier tracking entry. It is a log write, not
// a status transition; delivered orders still go through UpdateStatus.
func (s *OrderService) AddShippingUpdate(ctx context.Context, orderNumber string, updateType domain.ShippingUpdateType, message, location string) (*domain.OrderShippingUpdate, error) {
	order, err := s.store.Orders().GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	update := &domain.OrderShippingUpdate{
		OrderID:  order.ID,
		Type:     updateType,
		Message:  message,
		Location: location,
	}
	if err := s.store.Orders().CreateShippingUpdate(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

type TrackingInfo struct {
	OrderNumber           string                       `json:"order_number"`
	Status                domain.OrderStatus           `json:"status"`
	TrackingNumber        string                       `json:"tracking_number"`
	CourierService        string                       `json:"courier_service"`
	EstimatedDeliveryDate *time.Time                   `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time                   `json:"actual_delivery_date"`
	ShippingUpdates       []domain.OrderShippingUpdate `json:"shipping_updates"`
}

// GetTracking returns the courier view of an order the user owns.
func (s *OrderService) GetTracking(ctx context.Context, userID uint64, orderNumber string) (*TrackingInfo, error) {
	order, err := s.GetOrder(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	return &TrackingInfo{
		OrderNumber:           order.OrderNumber,
		Status:                order.Status,
		TrackingNumber:        order.TrackingNumber,
		CourierService:        order.CourierService,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		ActualDeliveryDate:    order.ActualDeliveryDate,
		ShippingUpdates:       order.ShippingUpdates,
	}, nil
}

// createWithFreshNumber allocates an ORD-YYYYMMDD-NNNNN reference and inserts
// the order. NumberExists screens collisions cheaply, but the unique index is
// the arbiter: two concurrent transactions can pass the check with the same
// number, and the loser gets ErrDuplicateOrderNumber and retries with a fresh
// one. A rejected insert fails only that statement, not the surrounding
// transaction.
func (s *OrderService) createWithFreshNumber(ctx context.Context, tx repository.Store, order *domain.Order) error {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := generateOrderNumber(time.Now())
		exists, err := tx.Orders().NumberExists(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		order.OrderNumber = number
		err = tx.Orders().Create(ctx, order)
		if errors.Is(err, domain.ErrDuplicateOrderNumber) {
			continue
		}
		return err
	}
	return errors.New("could not allocate a unique order number")
}

func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%05d", now.Format("20060102"), rand.Intn(100000))
}

func totalItems(items []domain.OrderItem) int64 {
	var n int64
	for i := range items {
		n += items[i].Quantity
	}
	return n
}

func (s *OrderService) publishEvent(routingKey string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), routingKey, data); err != nil {
		log.Printf("failed to publish %s event: %v", routingKey, err)
	}
}
