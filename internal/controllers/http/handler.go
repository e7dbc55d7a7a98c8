package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/domain"
	"shop-backend/internal/services"
)

// Paystack sends the webhook signature in this header.
const signatureHeader = "x-paystack-signature"

// Handler translates HTTP to service calls. Authentication is terminated
// upstream; the gateway forwards the authenticated user id in X-User-ID.
type Handler struct {
	carts    *services.CartService
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewHandler(carts *services.CartService, orders *services.OrderService, payments *services.PaymentService) *Handler {
	return &Handler{carts: carts, orders: orders, payments: payments}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddCartItem)
	r.PUT("/cart/items/:productId", h.UpdateCartItem)
	r.DELETE("/cart/items/:productId", h.RemoveCartItem)
	r.DELETE("/cart", h.ClearCart)

	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:orderNumber", h.GetOrder)
	r.POST("/orders/:orderNumber/cancel", h.CancelOrder)
	r.GET("/orders/:orderNumber/tracking", h.GetTracking)

	r.POST("/returns", h.RequestReturn)
	r.GET("/returns", h.ListReturns)

	r.POST("/payments/initialize", h.InitializePayment)
	r.POST("/payments/verify", h.VerifyPayment)
	r.GET("/payments", h.PaymentHistory)

	r.POST("/webhooks/paystack", h.PaystackWebhook)
}

func (h *Handler) userID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return 0, false
	}
	return id, true
}

func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	summary, err := h.carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":         summary.Cart,
		"subtotal":     summary.Subtotal,
		"total_items":  summary.TotalItems,
		"total_weight": summary.TotalWeight,
	})
}

func (h *Handler) AddCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.carts.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.carts.UpdateItemQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.CreateOrderInput{
		Email:               req.Email,
		PhoneNumber:         req.PhoneNumber,
		ShippingAddress:     req.ShippingAddress.toDomain(),
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toDomain()
		in.BillingAddress = &billing
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, err := h.orders.ListOrders(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), userID, c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), userID, c.Param("orderNumber"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled", "order": order})
}

func (h *Handler) GetTracking(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	tracking, err := h.orders.GetTracking(c.Request.Context(), userID, c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracking)
}

func (h *Handler) RequestReturn(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ret, err := h.orders.RequestReturn(c.Request.Context(), userID, services.ReturnRequestInput{
		OrderNumber: req.OrderNumber,
		OrderItemID: req.OrderItemID,
		Reason:      domain.ReturnReason(req.Reason),
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}

func (h *Handler) ListReturns(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	returns, err := h.orders.ListReturns(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, returns)
}

func (h *Handler) InitializePayment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.payments.Initialize(c.Request.Context(), userID, req.OrderNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := h.payments.Verify(c.Request.Context(), userID, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment verified", "payment": payment})
}

func (h *Handler) PaymentHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	payments, err := h.payments.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// PaystackWebhook implements the wire contract: 400 on missing/invalid
// signature or malformed JSON, bare 200 on anything accepted, even when
// internal processing failed, so the gateway does not retry an event we
// already recorded.
func (h *Handler) PaystackWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	err = h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "invalid signature")
			return
		}
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}
	c.String(http.StatusOK, "OK")
}

// respondError maps domain errors onto HTTP statuses without leaking
// gateway internals to clients.
func respondError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	var unavailErr *domain.ProductUnavailableError
	var gatewayErr *domain.GatewayError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error(), "available": stockErr.Available})
	case errors.As(err, &unavailErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": unavailErr.Error()})
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNotCancellable),
		errors.Is(err, domain.ErrNotRefundable),
		errors.Is(err, domain.ErrOrderNotPending),
		errors.Is(err, domain.ErrRefundExceedsPayment),
		errors.Is(err, domain.ErrPaymentDeclined),
		errors.Is(err, domain.ErrNotReturnable),
		errors.Is(err, domain.ErrReturnNotPending):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrOrderItemNotFound),
		errors.Is(err, domain.ErrReturnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
