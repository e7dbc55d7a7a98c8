package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shop-backend/internal/domain"
)

type orderRepo struct {
	db *gorm.DB
}

// Create persists the order row and the initial status-history entry. The
// history entry is written here, not by the caller, so an order can never
// exist without its "Order created" audit record. A unique-index rejection of
// the order number comes back as ErrDuplicateOrderNumber so the caller can
// retry with a fresh one.
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items", "StatusHistory", "ShippingUpdates").Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateOrderNumber
		}
		return err
	}
	history := &domain.OrderStatusHistory{
		OrderID: order.ID,
		Status:  order.Status,
		Notes:   "Order created",
	}
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *orderRepo) CreateItem(ctx context.Context, item *domain.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_history.created_at DESC")
		}).
		Preload("ShippingUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_shipping_updates.created_at DESC")
		}).
		Where("order_number = ?", orderNumber).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) NumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

// SetStatus is the only write path for Order.Status. It updates the row and
// appends the history entry together; callers that bypass it would break the
// audit-trail invariant, so nothing else exposes a status write.
func (r *orderRepo) SetStatus(ctx context.Context, order *domain.Order, status domain.OrderStatus, notes string, changedBy *uint64) error {
	old := order.Status
	updates := map[string]interface{}{"status": status}
	if status == domain.OrderDelivered && order.ActualDeliveryDate == nil {
		now := time.Now()
		updates["actual_delivery_date"] = now
		order.ActualDeliveryDate = &now
	}
	if err := r.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
		return err
	}
	order.Status = status

	if notes == "" {
		notes = fmt.Sprintf("Status changed from %s to %s", old, status)
	}
	history := &domain.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    status,
		Notes:     notes,
		ChangedBy: changedBy,
	}
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *orderRepo) SetPaymentStatus(ctx context.Context, order *domain.Order, status domain.PaymentStatus) error {
	if err := r.db.WithContext(ctx).Model(order).
		UpdateColumn("payment_status", status).Error; err != nil {
		return err
	}
	order.PaymentStatus = status
	return nil
}

func (r *orderRepo) AppendNotes(ctx context.Context, order *domain.Order, notes string) error {
	if notes == "" {
		return nil
	}
	if order.OrderNotes != "" {
		order.OrderNotes += "\n"
	}
	order.OrderNotes += notes
	return r.db.WithContext(ctx).Model(order).
		UpdateColumn("order_notes", order.OrderNotes).Error
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "StatusHistory", "ShippingUpdates").Save(order).Error
}

func (r *orderRepo) CreateReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	return r.db.WithContext(ctx).Omit("Order", "OrderItem").Create(ret).Error
}

func (r *orderRepo) GetReturnByID(ctx context.Context, id uint64) (*domain.ReturnRequest, error) {
	var ret domain.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("OrderItem").
		First(&ret, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReturnNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *orderRepo) ListReturnsByUser(ctx context.Context, userID uint64, limit int) ([]domain.ReturnRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.ReturnRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = return_requests.order_id").
		Where("orders.user_id = ?", userID).
		Preload("Order").
		Order("return_requests.requested_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) SetReturnStatus(ctx context.Context, ret *domain.ReturnRequest, status domain.ReturnStatus, adminNotes string, refundAmount *decimal.Decimal) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": now,
	}
	if adminNotes != "" {
		updates["admin_notes"] = adminNotes
	}
	if refundAmount != nil {
		updates["refund_amount"] = *refundAmount
	}
	if err := r.db.WithContext(ctx).Model(ret).Updates(updates).Error; err != nil {
		return err
	}
	ret.Status = status
	ret.ProcessedAt = &now
	if adminNotes != "" {
		ret.AdminNotes = adminNotes
	}
	if refundAmount != nil {
		ret.RefundAmount = decimal.NewNullDecimal(*refundAmount)
	}
	return nil
}

func (r *orderRepo) CreateShippingUpdate(ctx context.Context, update *domain.OrderShippingUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}
