package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shop-backend/internal/domain"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) GetByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Reserve is the binding stock check. The conditional update serializes
// concurrent callers at the row level: whoever the database applies first
// wins, the loser sees zero affected rows.
func (r *productRepo) Reserve(ctx context.Context, id uint64, quantity int64) error {
	if quantity == 0 {
		return nil
	}
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{
			ProductID:   id,
			ProductName: p.Name,
			Available:   p.Quantity,
		}
	}
	return nil
}

func (r *productRepo) Release(ctx context.Context, id uint64, quantity int64) error {
	if quantity == 0 {
		return nil
	}
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
