package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shop-backend/internal/domain"
)

type paymentRepo struct {
	db *gorm.DB
}

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Omit("Order").Create(payment).Error
}

func (r *paymentRepo) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("reference = ?", reference).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkCompleted transitions to completed at most once. The WHERE clause is
// the idempotent completion guard: when verify and the webhook race, exactly
// one caller sees an affected row and applies the side effects.
func (r *paymentRepo) MarkCompleted(ctx context.Context, payment *domain.Payment, rawResponse []byte, gatewayFee decimal.Decimal) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       domain.PaymentCompleted,
		"completed_at": now,
		"gateway_fee":  gatewayFee,
	}
	if len(rawResponse) > 0 {
		updates["gateway_response"] = rawResponse
	}

	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status <> ?", payment.ID, domain.PaymentCompleted).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	payment.Status = domain.PaymentCompleted
	payment.CompletedAt = &now
	payment.GatewayFee = gatewayFee
	if len(rawResponse) > 0 {
		payment.GatewayResponse = rawResponse
	}
	return true, nil
}

// MarkFailed only demotes a pending payment; a completed payment is final.
func (r *paymentRepo) MarkFailed(ctx context.Context, payment *domain.Payment, rawResponse []byte) error {
	updates := map[string]interface{}{"status": domain.PaymentFailed}
	if len(rawResponse) > 0 {
		updates["gateway_response"] = rawResponse
	}
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", payment.ID, domain.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		payment.Status = domain.PaymentFailed
		if len(rawResponse) > 0 {
			payment.GatewayResponse = rawResponse
		}
	}
	return nil
}

func (r *paymentRepo) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *paymentRepo) CreateWebhook(ctx context.Context, webhook *domain.PaymentWebhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}

func (r *paymentRepo) MarkWebhookProcessed(ctx context.Context, webhook *domain.PaymentWebhook, processingErr string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed":        true,
		"processing_error": processingErr,
		"processed_at":     now,
	}
	if err := r.db.WithContext(ctx).Model(webhook).Updates(updates).Error; err != nil {
		return err
	}
	webhook.Processed = true
	webhook.ProcessingError = processingErr
	webhook.ProcessedAt = &now
	return nil
}

func (r *paymentRepo) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *paymentRepo) SumRefunded(ctx context.Context, paymentID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&domain.Refund{}).
		Where("payment_id = ? AND status NOT IN ?", paymentID,
			[]domain.PaymentStatus{domain.PaymentFailed, domain.PaymentCancelled}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
