package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shop-backend/internal/domain"
	"shop-backend/internal/infra/paystack"
	rabbit "shop-backend/internal/infra/rabbitmq"
	"shop-backend/internal/repository"
)

// PaymentService reconciles external charges against orders. The two entry
// paths, user-triggered verify and the gateway webhook, converge on one
// guarded completion transition that applies side effects at most once.
type PaymentService struct {
	store     repository.Store
	gateway   paystack.ClientInterface
	publisher rabbit.PublisherInterface

	currency    string
	callbackURL string
}

func NewPaymentService(store repository.Store, gateway paystack.ClientInterface, publisher rabbit.PublisherInterface, currency, callbackURL string) *PaymentService {
	return &PaymentService{
		store:       store,
		gateway:     gateway,
		publisher:   publisher,
		currency:    currency,
		callbackURL: callbackURL,
	}
}

type InitializeResult struct {
	PaymentID        string `json:"payment_id"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Initialize starts a charge for a pending order: one gateway call, then a
// pending Payment plus its pending `payment` Transaction.
func (s *PaymentService) Initialize(ctx context.Context, userID uint64, orderNumber string) (*InitializeResult, error) {
	order, err := s.store.Orders().GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	if order.Status != domain.OrderPending {
		return nil, domain.ErrOrderNotPending
	}

	reference := fmt.Sprintf("order_%d_%s", order.ID, uuid.NewString())
	initData, err := s.gateway.Initialize(ctx, &paystack.InitializeRequest{
		Email:       order.Email,
		Amount:      paystack.ToKobo(order.TotalAmount),
		Reference:   reference,
		Currency:    s.currency,
		CallbackURL: s.callbackURL,
		Metadata: map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		UserID:          userID,
		OrderID:         order.ID,
		Amount:          order.TotalAmount,
		Currency:        s.currency,
		Status:          domain.PaymentPending,
		Method:          order.PaymentMethod,
		Reference:       initData.Reference,
		GatewayResponse: initData.Raw,
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		txn := &domain.Transaction{
			PaymentID:        payment.ID,
			Type:             domain.TransactionPayment,
			Amount:           payment.Amount,
			Status:           domain.PaymentPending,
			Reference:        payment.Reference,
			ProviderResponse: initData.Raw,
		}
		if err := tx.Payments().CreateTransaction(ctx, txn); err != nil {
			return err
		}
		order.PaymentReference = payment.Reference
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return &InitializeResult{
		PaymentID:        payment.ID,
		AuthorizationURL: initData.AuthorizationURL,
		AccessCode:       initData.AccessCode,
		Reference:        initData.Reference,
	}, nil
}

// Verify is the synchronous reconciliation path. Already-completed payments
// short-circuit without re-applying side effects; a timeout leaves the
// payment pending for later reconciliation; only an explicit gateway decline
// marks it failed.
func (s *PaymentService) Verify(ctx context.Context, userID uint64, reference string) (*domain.Payment, error) {
	payment, err := s.store.Payments().GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	if payment.Status == domain.PaymentCompleted {
		return payment, nil
	}

	data, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if data.Succeeded() {
		if err := s.applyCompletion(ctx, payment, domain.TransactionVerification, data); err != nil {
			return nil, err
		}
		return payment, nil
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().MarkFailed(ctx, payment, data.Raw); err != nil {
			return err
		}
		txn := &domain.Transaction{
			PaymentID:        payment.ID,
			Type:             domain.TransactionVerification,
			Amount:           paystack.FromKobo(data.Amount),
			Status:           domain.PaymentFailed,
			Reference:        reference,
			ProviderResponse: data.Raw,
			Notes:            data.GatewayResponse,
		}
		return tx.Payments().CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publishPaymentEvent(domain.EventPaymentFailed, payment)
	return nil, domain.ErrPaymentDeclined
}

type webhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type webhookChargeData struct {
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Fees            int64  `json:"fees"`
	GatewayResponse string `json:"gateway_response"`
}

// HandleWebhook is the asynchronous reconciliation path. Signature failures
// are rejected at the boundary; everything signature- and JSON-valid is
// recorded and acknowledged, even when processing fails, so the gateway does
// not retry forever.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" || !s.gateway.VerifySignature(payload, signature) {
		log.Printf("webhook rejected: invalid signature")
		return domain.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("webhook rejected: malformed payload: %v", err)
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	webhook := &domain.PaymentWebhook{
		EventType: event.Event,
		Payload:   payload,
		Signature: signature,
	}
	if err := s.store.Payments().CreateWebhook(ctx, webhook); err != nil {
		return err
	}

	var procErr error
	switch event.Event {
	case "charge.success":
		procErr = s.handleChargeSuccess(ctx, event.Data, payload)
	case "charge.failed":
		procErr = s.handleChargeFailed(ctx, event.Data, payload)
	default:
		// Unknown events are stored for audit and otherwise ignored.
	}

	procMsg := ""
	if procErr != nil {
		procMsg = procErr.Error()
		log.Printf("webhook %s processing error: %v", event.Event, procErr)
	}
	return s.store.Payments().MarkWebhookProcessed(ctx, webhook, procMsg)
}

func (s *PaymentService) handleChargeSuccess(ctx context.Context, data json.RawMessage, payload []byte) error {
	var charge webhookChargeData
	if err := json.Unmarshal(data, &charge); err != nil {
		return fmt.Errorf("malformed charge data: %w", err)
	}
	if charge.Reference == "" {
		return fmt.Errorf("charge.success event without reference")
	}

	payment, err := s.store.Payments().GetByReference(ctx, charge.Reference)
	if err != nil {
		return err
	}

	return s.applyCompletion(ctx, payment, domain.TransactionWebhookConfirmation, &paystack.VerifyData{
		Status:          "success",
		Reference:       charge.Reference,
		Amount:          charge.Amount,
		Fees:            charge.Fees,
		GatewayResponse: charge.GatewayResponse,
		Raw:             payload,
	})
}

func (s *PaymentService) handleChargeFailed(ctx context.Context, data json.RawMessage, payload []byte) error {
	var charge webhookChargeData
	if err := json.Unmarshal(data, &charge); err != nil {
		return fmt.Errorf("malformed charge data: %w", err)
	}
	payment, err := s.store.Payments().GetByReference(ctx, charge.Reference)
	if err != nil {
		return err
	}
	if err := s.store.Payments().MarkFailed(ctx, payment, payload); err != nil {
		return err
	}
	s.publishPaymentEvent(domain.EventPaymentFailed, payment)
	return nil
}

// applyCompletion is the shared at-most-once completion transition. The
// conditional MarkCompleted update decides the winner; only the winner
// confirms the order, records the completed transaction and clears the
// cart. Losers see a no-op, which is what makes verify-then-webhook (or the
// reverse, or duplicates of either) safe.
func (s *PaymentService) applyCompletion(ctx context.Context, payment *domain.Payment, txnType domain.TransactionType, data *paystack.VerifyData) error {
	var won bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		won, err = tx.Payments().MarkCompleted(ctx, payment, data.Raw, paystack.FromKobo(data.Fees))
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		order, err := tx.Orders().GetByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if err := tx.Orders().SetPaymentStatus(ctx, order, domain.PaymentCompleted); err != nil {
			return err
		}
		if err := tx.Orders().SetStatus(ctx, order, domain.OrderConfirmed, "Payment completed", nil); err != nil {
			return err
		}

		txn := &domain.Transaction{
			PaymentID:        payment.ID,
			Type:             txnType,
			Amount:           paystack.FromKobo(data.Amount),
			Status:           domain.PaymentCompleted,
			Reference:        payment.Reference,
			ProviderResponse: data.Raw,
		}
		if err := tx.Payments().CreateTransaction(ctx, txn); err != nil {
			return err
		}

		// Defensive cleanup: checkout already cleared the cart, but a user
		// who kept shopping between checkout and payment starts fresh.
		cart, err := tx.Carts().GetByUserID(ctx, payment.UserID)
		if err != nil {
			return err
		}
		return tx.Carts().Clear(ctx, cart.ID)
	})
	if err != nil {
		return err
	}

	if won {
		s.publishPaymentEvent(domain.EventPaymentCompleted, payment)
	}
	return nil
}

// RequestRefund records a refund against a completed payment, refusing any
// amount that would push the non-failed refund total past the payment
// amount.
func (s *PaymentService) RequestRefund(ctx context.Context, requestedBy *uint64, paymentID string, amount decimal.Decimal, refundType domain.RefundType, reason string) (*domain.Refund, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var refund *domain.Refund
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		refund, err = createRefund(ctx, tx, payment, amount, refundType, reason, requestedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// createRefund records a refund and its pending transaction against a
// completed payment. It enforces the over-refund guard shared by direct
// refund requests and approved returns.
func createRefund(ctx context.Context, tx repository.Store, payment *domain.Payment, amount decimal.Decimal, refundType domain.RefundType, reason string, requestedBy *uint64) (*domain.Refund, error) {
	if payment.Status != domain.PaymentCompleted {
		return nil, domain.ErrNotRefundable
	}

	refunded, err := tx.Payments().SumRefunded(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if refunded.Add(amount).GreaterThan(payment.Amount) {
		return nil, domain.ErrRefundExceedsPayment
	}

	refund := &domain.Refund{
		PaymentID:   payment.ID,
		Amount:      amount,
		Type:        refundType,
		Reason:      reason,
		Status:      domain.PaymentPending,
		Reference:   "refund_" + uuid.NewString(),
		RequestedBy: requestedBy,
	}
	if err := tx.Payments().CreateRefund(ctx, refund); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		PaymentID: payment.ID,
		Type:      domain.TransactionRefund,
		Amount:    amount,
		Status:    domain.PaymentPending,
		Reference: refund.Reference,
		Notes:     reason,
	}
	if err := tx.Payments().CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *PaymentService) History(ctx context.Context, userID uint64, limit int) ([]domain.Payment, error) {
	return s.store.Payments().ListByUser(ctx, userID, limit)
}

func (s *PaymentService) publishPaymentEvent(routingKey string, payment *domain.Payment) {
	if s.publisher == nil {
		return
	}
	event := domain.PaymentEvent{
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		UserID:     payment.UserID,
		Reference:  payment.Reference,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Status:     payment.Status,
		OccurredAt: time.Now(),
	}
	if payment.Order != nil {
		event.OrderNumber = payment.Order.OrderNumber
	}
	go func() {
		if err := s.publisher.Publish(context.Background(), routingKey, event); err != nil {
			log.Printf("failed to publish %s event: %v", routingKey, err)
		}
	}()
}
