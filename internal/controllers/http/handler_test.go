package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shop-backend/internal/config"
	"shop-backend/internal/domain"
	"shop-backend/internal/infra/paystack"
	"shop-backend/internal/mocks"
	"shop-backend/internal/services"
)

const testWebhookSecret = "sk_test_webhook_secret"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestRouter(store *mocks.MockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	gateway := paystack.NewClient(&config.PaystackConfig{
		SecretKey:     testWebhookSecret,
		WebhookSecret: testWebhookSecret,
		BaseURL:       "http://paystack.invalid",
		Currency:      "NGN",
		Timeout:       time.Second,
	})

	pricing := services.NewStandardPricing(config.PricingConfig{
		FreeShippingThreshold: dec("50000.00"),
		BaseShippingCost:      dec("1000.00"),
		ShippingPerKg:         dec("100.00"),
		TaxRate:               dec("0.075"),
		DefaultItemWeight:     dec("0.5"),
	})

	carts := services.NewCartService(store, pricing)
	orders := services.NewOrderService(store, pricing, nil)
	payments := services.NewPaymentService(store, gateway, nil, "NGN", "http://localhost:3000/payment/callback")

	r := gin.New()
	NewHandler(carts, orders, payments).RegisterRoutes(r)
	return r
}

func sign(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhook(t *testing.T) {
	payload, _ := json.Marshal(map[string]interface{}{
		"event": "transfer.success",
		"data":  map[string]interface{}{"reference": "x"},
	})

	tests := []struct {
		name       string
		body       []byte
		signature  string
		setupMocks func(*mocks.MockStore)
		wantStatus int
	}{
		{
			name:      "valid signature is acknowledged",
			body:      payload,
			signature: sign(payload),
			setupMocks: func(store *mocks.MockStore) {
				store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.Anything).Return(nil)
				store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, "").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing signature is rejected",
			body:       payload,
			signature:  "",
			setupMocks: func(store *mocks.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "tampered payload is rejected",
			body:       append(payload, ' '),
			signature:  sign(payload),
			setupMocks: func(store *mocks.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "signed garbage is rejected",
			body:       []byte(`{"event": `),
			signature:  sign([]byte(`{"event": `)),
			setupMocks: func(store *mocks.MockStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "processing failure is still acknowledged",
			body:      mustSignedChargePayload(t, "no-such-ref"),
			signature: sign(mustSignedChargePayload(t, "no-such-ref")),
			setupMocks: func(store *mocks.MockStore) {
				store.PaymentRepo.On("CreateWebhook", mock.Anything, mock.Anything).Return(nil)
				store.PaymentRepo.On("GetByReference", mock.Anything, "no-such-ref").Return(nil, domain.ErrPaymentNotFound)
				store.PaymentRepo.On("MarkWebhookProcessed", mock.Anything, mock.Anything, domain.ErrPaymentNotFound.Error()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			tt.setupMocks(store)
			r := newTestRouter(store)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("x-paystack-signature", tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			store.AssertExpectations(t)
		})
	}
}

func mustSignedChargePayload(t *testing.T, reference string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"event": "charge.success",
		"data":  map[string]interface{}{"reference": reference},
	})
	assert.NoError(t, err)
	return payload
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(mocks.NewMockStore())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodPost, "/payments/initialize"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestGetCart(t *testing.T) {
	store := mocks.NewMockStore()
	userID := uint64(42)
	cart := &domain.Cart{ID: 77, UserID: &userID}
	store.CartRepo.On("GetByUserID", mock.Anything, userID).Return(cart, nil)

	r := newTestRouter(store)
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-User-ID", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "0.00", body["subtotal"])
	assert.Equal(t, float64(0), body["total_items"])
}

func TestCreateOrder_ValidationAndErrorMapping(t *testing.T) {
	t.Run("missing email is a 400 before any service call", func(t *testing.T) {
		store := mocks.NewMockStore()
		r := newTestRouter(store)

		body := []byte(`{"shipping_address":{"full_name":"Ada Obi","address_line_1":"12 Marina Road","city":"Lagos","country":"NG"}}`)
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty cart maps to 400", func(t *testing.T) {
		store := mocks.NewMockStore()
		userID := uint64(42)
		store.CartRepo.On("GetByUserID", mock.Anything, userID).Return(&domain.Cart{ID: 77, UserID: &userID}, nil)
		r := newTestRouter(store)

		body := []byte(`{"email":"ada@example.com","shipping_address":{"full_name":"Ada Obi","address_line_1":"12 Marina Road","city":"Lagos","country":"NG"}}`)
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown order maps to 404", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.OrderRepo.On("GetByNumber", mock.Anything, "ORD-20260823-99999").Return(nil, domain.ErrOrderNotFound)
		r := newTestRouter(store)

		req := httptest.NewRequest(http.MethodGet, "/orders/ORD-20260823-99999", nil)
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("not cancellable maps to 400", func(t *testing.T) {
		store := mocks.NewMockStore()
		order := &domain.Order{
			ID: 9, OrderNumber: "ORD-20260823-00042", UserID: 42,
			Status: domain.OrderDelivered, PaymentStatus: domain.PaymentCompleted,
		}
		store.OrderRepo.On("GetByNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		r := newTestRouter(store)

		req := httptest.NewRequest(http.MethodPost, "/orders/ORD-20260823-00042/cancel", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestReturn(t *testing.T) {
	deliveredOrder := func() *domain.Order {
		return &domain.Order{
			ID: 9, OrderNumber: "ORD-20260823-00042", UserID: 42,
			Status: domain.OrderDelivered, PaymentStatus: domain.PaymentCompleted,
			TotalAmount: dec("1268.75"),
		}
	}

	t.Run("valid request opens a return", func(t *testing.T) {
		store := mocks.NewMockStore()
		store.OrderRepo.On("GetByNumber", mock.Anything, "ORD-20260823-00042").Return(deliveredOrder(), nil)
		store.OrderRepo.On("CreateReturn", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)
		r := newTestRouter(store)

		body := []byte(`{"order_number":"ORD-20260823-00042","reason":"defective","description":"screen flickers after an hour"}`)
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var ret domain.ReturnRequest
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret))
		assert.Equal(t, domain.ReturnPending, ret.Status)
		store.AssertExpectations(t)
	})

	t.Run("unknown reason is a 400 before any service call", func(t *testing.T) {
		store := mocks.NewMockStore()
		r := newTestRouter(store)

		body := []byte(`{"order_number":"ORD-20260823-00042","reason":"it_broke","description":"x"}`)
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		store.AssertExpectations(t)
	})

	t.Run("unpaid order maps to 400", func(t *testing.T) {
		store := mocks.NewMockStore()
		order := deliveredOrder()
		order.PaymentStatus = domain.PaymentPending
		store.OrderRepo.On("GetByNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		r := newTestRouter(store)

		body := []byte(`{"order_number":"ORD-20260823-00042","reason":"changed_mind","description":"no longer needed"}`)
		req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewReader(body))
		req.Header.Set("X-User-ID", "42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		store.AssertExpectations(t)
	})
}

func TestGetTracking(t *testing.T) {
	store := mocks.NewMockStore()
	order := &domain.Order{
		ID: 9, OrderNumber: "ORD-20260823-00042", UserID: 42,
		Status: domain.OrderShipped, TrackingNumber: "TRK-99812", CourierService: "DHL",
		ShippingUpdates: []domain.OrderShippingUpdate{
			{ID: 1, OrderID: 9, Type: domain.ShippingShipped, Message: "Package picked up", Location: "Ikeja"},
		},
	}
	store.OrderRepo.On("GetByNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	r := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/orders/ORD-20260823-00042/tracking", nil)
	req.Header.Set("X-User-ID", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TRK-99812", body["tracking_number"])
	updates, ok := body["shipping_updates"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, updates, 1)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(mocks.NewMockStore())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
