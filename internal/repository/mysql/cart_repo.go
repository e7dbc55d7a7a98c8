package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shop-backend/internal/domain"
)

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) GetByUserID(ctx context.Context, userID uint64) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.added_at") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Carts are created lazily on first access. When two first requests
		// race, the unique index on user_id lets only one insert through;
		// the loser picks up the winner's cart.
		c = domain.Cart{UserID: &userID}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return r.GetByUserID(ctx, userID)
			}
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("session_key = ?", sessionKey).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = domain.Cart{SessionKey: sessionKey}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetItem returns nil without error when the line does not exist.
func (r *cartRepo) GetItem(ctx context.Context, cartID, productID uint64) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) SaveItem(ctx context.Context, item *domain.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Save(item).Error
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, productID uint64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&domain.CartItem{}).Error
}

func (r *cartRepo) Clear(ctx context.Context, cartID uint64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&domain.CartItem{}).Error
}

func (r *cartRepo) Delete(ctx context.Context, cartID uint64) error {
	if err := r.Clear(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&domain.Cart{}, cartID).Error
}
