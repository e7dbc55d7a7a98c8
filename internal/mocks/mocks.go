package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"shop-backend/internal/domain"
	"shop-backend/internal/infra/paystack"
	"shop-backend/internal/repository"
)

// MockStore satisfies repository.Store. InTx simply runs fn against the
// same store, so unit tests exercise service logic without a database; the
// transactional behavior itself is covered by the sqlite-backed store tests.
type MockStore struct {
	ProductRepo *MockProductRepository
	CartRepo    *MockCartRepository
	OrderRepo   *MockOrderRepository
	PaymentRepo *MockPaymentRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		ProductRepo: new(MockProductRepository),
		CartRepo:    new(MockCartRepository),
		OrderRepo:   new(MockOrderRepository),
		PaymentRepo: new(MockPaymentRepository),
	}
}

func (s *MockStore) Products() repository.ProductRepository { return s.ProductRepo }
func (s *MockStore) Carts() repository.CartRepository       { return s.CartRepo }
func (s *MockStore) Orders() repository.OrderRepository     { return s.OrderRepo }
func (s *MockStore) Payments() repository.PaymentRepository { return s.PaymentRepo }

func (s *MockStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.ProductRepo.AssertExpectations(t)
	s.CartRepo.AssertExpectations(t)
	s.OrderRepo.AssertExpectations(t)
	s.PaymentRepo.AssertExpectations(t)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Reserve(ctx context.Context, id uint64, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) Release(ctx context.Context, id uint64, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetByUserID(ctx context.Context, userID uint64) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) GetItem(ctx context.Context, cartID, productID uint64) (*domain.CartItem, error) {
	args := m.Called(ctx, cartID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) SaveItem(ctx context.Context, item *domain.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, productID uint64) error {
	args := m.Called(ctx, cartID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, cartID uint64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, cartID uint64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateItem(ctx context.Context, item *domain.OrderItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) NumberExists(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetStatus(ctx context.Context, order *domain.Order, status domain.OrderStatus, notes string, changedBy *uint64) error {
	args := m.Called(ctx, order, status, notes, changedBy)
	if args.Error(0) == nil {
		order.Status = status
	}
	return args.Error(0)
}

func (m *MockOrderRepository) SetPaymentStatus(ctx context.Context, order *domain.Order, status domain.PaymentStatus) error {
	args := m.Called(ctx, order, status)
	if args.Error(0) == nil {
		order.PaymentStatus = status
	}
	return args.Error(0)
}

func (m *MockOrderRepository) AppendNotes(ctx context.Context, order *domain.Order, notes string) error {
	args := m.Called(ctx, order, notes)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockOrderRepository) GetReturnByID(ctx context.Context, id uint64) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}

func (m *MockOrderRepository) ListReturnsByUser(ctx context.Context, userID uint64, limit int) ([]domain.ReturnRequest, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnRequest), args.Error(1)
}

func (m *MockOrderRepository) SetReturnStatus(ctx context.Context, ret *domain.ReturnRequest, status domain.ReturnStatus, adminNotes string, refundAmount *decimal.Decimal) error {
	args := m.Called(ctx, ret, status, adminNotes, refundAmount)
	if args.Error(0) == nil {
		ret.Status = status
		if adminNotes != "" {
			ret.AdminNotes = adminNotes
		}
		if refundAmount != nil {
			ret.RefundAmount = decimal.NewNullDecimal(*refundAmount)
		}
	}
	return args.Error(0)
}

func (m *MockOrderRepository) CreateShippingUpdate(ctx context.Context, update *domain.OrderShippingUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, payment *domain.Payment, rawResponse []byte, gatewayFee decimal.Decimal) (bool, error) {
	args := m.Called(ctx, payment, rawResponse, gatewayFee)
	won := args.Bool(0)
	if won && args.Error(1) == nil {
		payment.Status = domain.PaymentCompleted
		payment.GatewayFee = gatewayFee
	}
	return won, args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, payment *domain.Payment, rawResponse []byte) error {
	args := m.Called(ctx, payment, rawResponse)
	if args.Error(0) == nil && payment.Status == domain.PaymentPending {
		payment.Status = domain.PaymentFailed
	}
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateWebhook(ctx context.Context, webhook *domain.PaymentWebhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkWebhookProcessed(ctx context.Context, webhook *domain.PaymentWebhook, processingErr string) error {
	args := m.Called(ctx, webhook, processingErr)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumRefunded(ctx context.Context, paymentID string) (decimal.Decimal, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPaystackClient struct {
	mock.Mock
}

func (m *MockPaystackClient) Initialize(ctx context.Context, req *paystack.InitializeRequest) (*paystack.InitializeData, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.InitializeData), args.Error(1)
}

func (m *MockPaystackClient) Verify(ctx context.Context, reference string) (*paystack.VerifyData, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.VerifyData), args.Error(1)
}

func (m *MockPaystackClient) VerifySignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}
