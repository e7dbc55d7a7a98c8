package mysql

import (
	"context"

	"gorm.io/gorm"

	"shop-backend/internal/repository"
)

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) Products() repository.ProductRepository { return &productRepo{db: s.db} }
func (s *store) Carts() repository.CartRepository       { return &cartRepo{db: s.db} }
func (s *store) Orders() repository.OrderRepository     { return &orderRepo{db: s.db} }
func (s *store) Payments() repository.PaymentRepository { return &paymentRepo{db: s.db} }

// InTx hands fn a Store bound to a single database transaction. Returning an
// error rolls back everything done through that Store.
func (s *store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
