package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shop-backend/internal/domain"
	"shop-backend/internal/infra/paystack"
	"shop-backend/internal/mocks"
)

func newPaymentServiceForTest(store *mocks.MockStore) (*PaymentService, *mocks.MockPaystackClient) {
	gateway := new(mocks.MockPaystackClient)
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	svc := NewPaymentService(store, gateway, pub, "NGN", "http://localhost:3000/payment/callback")
	return svc, gateway
}

func pendingTestPayment() *domain.Payment {
	return &domain.Payment{
		ID:        "pay-1",
		UserID:    42,
		OrderID:   9,
		Amount:    dec("1268.75"),
		Currency:  "NGN",
		Status:    domain.PaymentPending,
		Reference: "order_9_ref",
	}
}

func TestPaymentService_Initialize(t *testing.T) {
	userID := uint64(42)

	pendingOrder := &domain.Order{
		ID:          9,
		OrderNumber: "ORD-20260823-00042",
		UserID:      userID,
		Email:       "ada@example.com",
		Status:      domain.OrderPending,
		TotalAmount: dec("1268.75"),
	}

	t.Run("pending order gets a charge and a pending payment", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)

		store.OrderRepo.On("GetByNumber", mock.Anything, pendingOrder.OrderNumber).Return(pendingOrder, nil)
		gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(req *paystack.InitializeRequest) bool {
			// 1268.75 NGN is 126875 kobo.
			return req.Amount == 126875 && req.Email == "ada@example.com"
		})).Return(&paystack.InitializeData{
			AuthorizationURL: "https://checkout.paystack.com/abc",
			AccessCode:       "abc",
			Reference:        "order_9_ref",
		}, nil)
		store.PaymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Payment).ID = "pay-1"
		})
		store.PaymentRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
			return txn.Type == domain.TransactionPayment && txn.Status == domain.PaymentPending
		})).Return(nil)
		store.OrderRepo.On("Update", mock.Anything, pendingOrder).Return(nil)

		result, err := svc.Initialize(context.Background(), userID, pendingOrder.OrderNumber)
		assert.NoError(t, err)
		assert.Equal(t, "pay-1", result.PaymentID)
		assert.Equal(t, "https://checkout.paystack.com/abc", result.AuthorizationURL)
		assert.Equal(t, "order_9_ref", pendingOrder.PaymentReference)
		store.AssertExpectations(t)
		gateway.AssertExpectations(t)
	})

	t.Run("confirmed order cannot start another charge", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		confirmed := &domain.Order{ID: 9, OrderNumber: "ORD-20260823-00042", UserID: userID, Status: domain.OrderConfirmed}
		store.OrderRepo.On("GetByNumber", mock.Anything, confirmed.OrderNumber).Return(confirmed, nil)

		_, err := svc.Initialize(context.Background(), userID, confirmed.OrderNumber)
		assert.ErrorIs(t, err, domain.ErrOrderNotPending)
	})

	t.Run("another user's order looks like not found", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		store.OrderRepo.On("GetByNumber", mock.Anything, pendingOrder.OrderNumber).Return(pendingOrder, nil)

		_, err := svc.Initialize(context.Background(), 7, pendingOrder.OrderNumber)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("gateway failure creates no payment", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		store.OrderRepo.On("GetByNumber", mock.Anything, pendingOrder.OrderNumber).Return(pendingOrder, nil)
		gateway.On("Initialize", mock.Anything, mock.Anything).
			Return(nil, &domain.GatewayError{Op: "initialize", Timeout: true})

		_, err := svc.Initialize(context.Background(), userID, pendingOrder.OrderNumber)
		var gwErr *domain.GatewayError
		assert.ErrorAs(t, err, &gwErr)
		assert.True(t, gwErr.Timeout)
		store.PaymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func expectCompletion(store *mocks.MockStore, payment *domain.Payment, order *domain.Order, txnType domain.TransactionType) {
	store.PaymentRepo.On("MarkCompleted", mock.Anything, payment, mock.Anything, mock.Anything).Return(true, nil)
	store.OrderRepo.On("GetByID", mock.Anything, payment.OrderID).Return(order, nil)
	store.OrderRepo.On("SetPaymentStatus", mock.Anything, order, domain.PaymentCompleted).Return(nil)
	store.OrderRepo.On("SetStatus", mock.Anything, order, domain.OrderConfirmed, "Payment completed", (*uint64)(nil)).Return(nil)
	store.PaymentRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Type == txnType && txn.Status == domain.PaymentCompleted
	})).Return(nil)
	store.CartRepo.On("GetByUserID", mock.Anything, payment.UserID).Return(&domain.Cart{ID: 77}, nil)
	store.CartRepo.On("Clear", mock.Anything, uint64(77)).Return(nil)
}

func TestPaymentService_Verify(t *testing.T) {
	userID := uint64(42)

	t.Run("successful charge completes payment and confirms order", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		order := &domain.Order{ID: 9, OrderNumber: "ORD-20260823-00042", UserID: userID, Status: domain.OrderPending}

		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		gateway.On("Verify", mock.Anything, payment.Reference).Return(&paystack.VerifyData{
			Status:    "success",
			Reference: payment.Reference,
			Amount:    126875,
			Fees:      1903,
		}, nil)
		expectCompletion(store, payment, order, domain.TransactionVerification)

		got, err := svc.Verify(context.Background(), userID, payment.Reference)
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, got.Status)
		assert.Equal(t, domain.OrderConfirmed, order.Status)
		assert.Equal(t, "19.03", got.GatewayFee.String())
		store.AssertExpectations(t)
	})

	t.Run("already completed payment short-circuits without a gateway call", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		payment.Status = domain.PaymentCompleted
		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)

		got, err := svc.Verify(context.Background(), userID, payment.Reference)
		assert.NoError(t, err)
		assert.Equal(t, payment, got)
		gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("concurrent completion makes verify a no-op", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()

		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		gateway.On("Verify", mock.Anything, payment.Reference).Return(&paystack.VerifyData{
			Status: "success", Reference: payment.Reference, Amount: 126875,
		}, nil)
		store.PaymentRepo.On("MarkCompleted", mock.Anything, payment, mock.Anything, mock.Anything).Return(false, nil)

		_, err := svc.Verify(context.Background(), userID, payment.Reference)
		assert.NoError(t, err)
		store.OrderRepo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("explicit decline marks the payment failed", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()

		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		gateway.On("Verify", mock.Anything, payment.Reference).Return(&paystack.VerifyData{
			Status:          "failed",
			Reference:       payment.Reference,
			Amount:          126875,
			GatewayResponse: "Declined",
		}, nil)
		store.PaymentRepo.On("MarkFailed", mock.Anything, payment, mock.Anything).Return(nil)
		store.PaymentRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
			return txn.Type == domain.TransactionVerification && txn.Status == domain.PaymentFailed
		})).Return(nil)

		_, err := svc.Verify(context.Background(), userID, payment.Reference)
		assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
		assert.Equal(t, domain.PaymentFailed, payment.Status)
		store.AssertExpectations(t)
	})

	t.Run("gateway timeout leaves the payment pending", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()

		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		gateway.On("Verify", mock.Anything, payment.Reference).
			Return(nil, &domain.GatewayError{Op: "verify", Timeout: true})

		_, err := svc.Verify(context.Background(), userID, payment.Reference)
		var gwErr *domain.GatewayError
		assert.ErrorAs(t, err, &gwErr)
		assert.Equal(t, domain.PaymentPending, payment.Status)
		store.PaymentRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("another user's payment looks like not found", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)

		_, err := svc.Verify(context.Background(), 7, payment.Reference)
		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	})
}

func webhookPayload(t *testing.T, event string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	assert.NoError(t, err)
	return raw
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	t.Run("invalid signature is rejected before anything is stored", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payload := webhookPayload(t, "charge.success", map[string]interface{}{"reference": "order_9_ref"})
		gateway.On("VerifySignature", payload, "bad-sig").Return(false)

		err := svc.HandleWebhook(context.Background(), payload, "bad-sig")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		store.PaymentRepo.AssertNotCalled(t, "CreateWebhook", mock.Anything, mock.Anything)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)

		err := svc.HandleWebhook(context.Background(), []byte(`{}`), "")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("malformed json is rejected after the signature check", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payload := []byte(`{"event": `)
		gateway.On("VerifySignature", payload, "sig").Return(true)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidSignature)
		store.PaymentRepo.AssertNotCalled(t, "CreateWebhook", mock.Anything, mock.Anything)
	})

	t.Run("charge.success completes the payment", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		order := &domain.Order{ID: 9, OrderNumber: "ORD-20260823-00042", UserID: 42, Status: domain.OrderPending}
		payload := webhookPayload(t, "charge.success", map[string]interface{}{
			"reference": payment.Reference,
			"amount":    126875,
			"fees":      1903,
		})

		gateway.On("VerifySignature", payload, "sig").Return(true)
		store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.MatchedBy(func(w *domain.PaymentWebhook) bool {
			return w.EventType == "charge.success"
		})).Return(nil)
		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		expectCompletion(store, payment, order, domain.TransactionWebhookConfirmation)
		store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, "").Return(nil)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, payment.Status)
		store.AssertExpectations(t)
	})

	t.Run("charge.success after verify already won is a recorded no-op", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		payload := webhookPayload(t, "charge.success", map[string]interface{}{"reference": payment.Reference})

		gateway.On("VerifySignature", payload, "sig").Return(true)
		store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.Anything).Return(nil)
		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		store.PaymentRepo.On("MarkCompleted", mock.Anything, payment, mock.Anything, mock.Anything).Return(false, nil)
		store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, "").Return(nil)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.NoError(t, err)
		store.OrderRepo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown reference is recorded with a processing error and acknowledged", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payload := webhookPayload(t, "charge.success", map[string]interface{}{"reference": "no-such-ref"})

		gateway.On("VerifySignature", payload, "sig").Return(true)
		store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.Anything).Return(nil)
		store.PaymentRepo.On("GetByReference", mock.Anything, "no-such-ref").Return(nil, domain.ErrPaymentNotFound)
		store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, domain.ErrPaymentNotFound.Error()).Return(nil)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("charge.failed marks the payment failed", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		payload := webhookPayload(t, "charge.failed", map[string]interface{}{"reference": payment.Reference})

		gateway.On("VerifySignature", payload, "sig").Return(true)
		store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.Anything).Return(nil)
		store.PaymentRepo.On("GetByReference", mock.Anything, payment.Reference).Return(payment, nil)
		store.PaymentRepo.On("MarkFailed", mock.Anything, payment, mock.Anything).Return(nil)
		store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, "").Return(nil)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, payment.Status)
	})

	t.Run("unknown event is stored and ignored", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, gateway := newPaymentServiceForTest(store)
		payload := webhookPayload(t, "transfer.success", map[string]interface{}{"reference": "x"})

		gateway.On("VerifySignature", payload, "sig").Return(true)
		store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.MatchedBy(func(w *domain.PaymentWebhook) bool {
			return w.EventType == "transfer.success"
		})).Return(nil)
		store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, "").Return(nil)

		err := svc.HandleWebhook(context.Background(), payload, "sig")
		assert.NoError(t, err)
		store.PaymentRepo.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_RequestRefund(t *testing.T) {
	completedPayment := func() *domain.Payment {
		p := pendingTestPayment()
		p.Status = domain.PaymentCompleted
		return p
	}

	t.Run("partial refund within the payment amount is recorded", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		payment := completedPayment()

		store.PaymentRepo.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
		store.PaymentRepo.On("SumRefunded", mock.Anything, payment.ID).Return(dec("200.00"), nil)
		store.PaymentRepo.On("CreateRefund", mock.Anything, mock.MatchedBy(func(r *domain.Refund) bool {
			return r.Amount.Equal(dec("500.00")) && r.Type == domain.RefundPartial
		})).Return(nil)
		store.PaymentRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
			return txn.Type == domain.TransactionRefund && txn.Status == domain.PaymentPending
		})).Return(nil)

		refund, err := svc.RequestRefund(context.Background(), uintPtr(1), payment.ID, dec("500.00"), domain.RefundPartial, "damaged item")
		assert.NoError(t, err)
		assert.Contains(t, refund.Reference, "refund_")
		store.AssertExpectations(t)
	})

	t.Run("refund past the payment amount is refused", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		payment := completedPayment()

		store.PaymentRepo.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
		store.PaymentRepo.On("SumRefunded", mock.Anything, payment.ID).Return(dec("1000.00"), nil)

		_, err := svc.RequestRefund(context.Background(), uintPtr(1), payment.ID, dec("300.00"), domain.RefundPartial, "second claim")
		assert.ErrorIs(t, err, domain.ErrRefundExceedsPayment)
		store.PaymentRepo.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	})

	t.Run("pending payment cannot be refunded", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)
		payment := pendingTestPayment()
		store.PaymentRepo.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

		_, err := svc.RequestRefund(context.Background(), nil, payment.ID, dec("100.00"), domain.RefundFull, "")
		assert.ErrorIs(t, err, domain.ErrNotRefundable)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		store := mocks.NewMockStore()
		svc, _ := newPaymentServiceForTest(store)

		_, err := svc.RequestRefund(context.Background(), nil, "pay-1", dec("0"), domain.RefundFull, "")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}
