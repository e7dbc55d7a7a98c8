package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"shop-backend/internal/domain"
	"shop-backend/internal/repository"
)

// CartService owns cart mutations. Stock checks here are advisory only; the
// binding check happens inside the order-creation transaction, so losing a
// race between add-to-cart and checkout surfaces at checkout, not here.
type CartService struct {
	store       repository.Store
	pricing     PricingPolicy
	redisClient *redis.Client
}

func NewCartService(store repository.Store, pricing PricingPolicy) *CartService {
	return &CartService{store: store, pricing: pricing}
}

func (s *CartService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// CartSummary is the cart with its live-computed aggregates.
type CartSummary struct {
	Cart        *domain.Cart
	Subtotal    string
	TotalItems  int64
	TotalWeight string
}

func (s *CartService) GetCart(ctx context.Context, userID uint64) (*CartSummary, error) {
	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(cart), nil
}

func (s *CartService) summarize(cart *domain.Cart) *CartSummary {
	return &CartSummary{
		Cart:        cart,
		Subtotal:    cart.Subtotal().StringFixed(2),
		TotalItems:  cart.TotalItems(),
		TotalWeight: cart.TotalWeight(s.pricing.ItemWeightFallback()).String(),
	}
}

// AddItem creates the line or increases its quantity. No stock is reserved
// here.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint64, quantity int64) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.getProductWithCache(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Available() {
		return nil, &domain.ProductUnavailableError{ProductID: product.ID, ProductName: product.Name}
	}

	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.Carts().GetItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	if item != nil {
		newQuantity = item.Quantity + quantity
	}
	if newQuantity > product.Quantity {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
		}
	}

	if item == nil {
		item = &domain.CartItem{CartID: cart.ID, ProductID: productID}
	}
	item.Quantity = newQuantity
	if err := s.store.Carts().SaveItem(ctx, item); err != nil {
		return nil, err
	}
	item.Product = *product
	return item, nil
}

// UpdateItemQuantity sets the line quantity; zero removes the line. When the
// line does not exist nothing happens.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID uint64, quantity int64) (*domain.CartItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil, s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.getProductWithCache(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Available() {
		return nil, &domain.ProductUnavailableError{ProductID: product.ID, ProductName: product.Name}
	}
	if quantity > product.Quantity {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
		}
	}

	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.Carts().GetItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	item.Quantity = quantity
	if err := s.store.Carts().SaveItem(ctx, item); err != nil {
		return nil, err
	}
	item.Product = *product
	return item, nil
}

// RemoveItem is an idempotent no-op when the line is absent.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint64) error {
	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.Carts().RemoveItem(ctx, cart.ID, productID)
}

func (s *CartService) Clear(ctx context.Context, userID uint64) error {
	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.Carts().Clear(ctx, cart.ID)
}

// MergeGuestCart folds a guest session cart into the user's cart on login.
// Lines that no longer fit the available stock are skipped rather than
// failing the merge.
func (s *CartService) MergeGuestCart(ctx context.Context, sessionKey string, userID uint64) error {
	guest, err := s.store.Carts().GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return err
	}
	for _, item := range guest.Items {
		if _, err := s.AddItem(ctx, userID, item.ProductID, item.Quantity); err != nil {
			log.Printf("cart merge: skipping product %d: %v", item.ProductID, err)
		}
	}
	return s.store.Carts().Delete(ctx, guest.ID)
}

func productCacheKey(productID uint64) string {
	return fmt.Sprintf("product:%d", productID)
}

// getProductWithCache serves catalog reads through Redis with a short TTL.
// Stale quantities are acceptable: these reads only back the advisory check.
func (s *CartService) getProductWithCache(ctx context.Context, productID uint64) (*domain.Product, error) {
	cacheKey := productCacheKey(productID)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	product, err := s.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, time.Minute)
		}
	}

	return product, nil
}

// WarmupProductCache preloads hot products into Redis at startup.
func (s *CartService) WarmupProductCache(ctx context.Context, productIDs []uint64) error {
	if s.redisClient == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range productIDs {
		id := id
		g.Go(func() error {
			product, err := s.store.Products().GetByID(ctx, id)
			if err != nil {
				log.Printf("cache warmup: product %d: %v", id, err)
				return nil
			}
			data, err := json.Marshal(product)
			if err != nil {
				return nil
			}
			s.redisClient.Set(ctx, productCacheKey(id), data, 5*time.Minute)
			return nil
		})
	}
	return g.Wait()
}
