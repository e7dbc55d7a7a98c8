package http

import "shop-backend/internal/domain"

type AddCartItemRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" binding:"min=0"`
}

type AddressRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Company      string `json:"company"`
	AddressLine1 string `json:"address_line_1" binding:"required"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country" binding:"required"`
	PhoneNumber  string `json:"phone_number"`
}

func (r *AddressRequest) toDomain() domain.Address {
	return domain.Address{
		FullName:     r.FullName,
		Company:      r.Company,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		PhoneNumber:  r.PhoneNumber,
	}
}

type CreateOrderRequest struct {
	Email               string          `json:"email" binding:"required,email"`
	PhoneNumber         string          `json:"phone_number"`
	ShippingAddress     AddressRequest  `json:"shipping_address" binding:"required"`
	BillingAddress      *AddressRequest `json:"billing_address"`
	PaymentMethod       string          `json:"payment_method"`
	SpecialInstructions string          `json:"special_instructions"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type CreateReturnRequest struct {
	OrderNumber string  `json:"order_number" binding:"required"`
	OrderItemID *uint64 `json:"order_item_id"`
	Reason      string  `json:"reason" binding:"required,oneof=defective damaged wrong_item not_as_described changed_mind other"`
	Description string  `json:"description" binding:"required"`
}

type InitializePaymentRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}
