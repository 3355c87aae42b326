package service

import "github.com/gaugyan/storefront/internal/domain"

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	Customer      CustomerInfo    `json:"customer" binding:"required"`
	Shipping      ShippingAddress `json:"shipping" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

type CustomerInfo struct {
	Name  string  `json:"name" binding:"required"`
	Email string  `json:"email" binding:"required,email"`
	Phone *string `json:"phone,omitempty"`
}

type ShippingAddress struct {
	Street     string  `json:"street" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Country    string  `json:"country" binding:"required"`
}

func (c CustomerInfo) toDomain() domain.Customer {
	customer := domain.Customer{Name: c.Name, Email: c.Email}
	if c.Phone != nil {
		customer.Phone = *c.Phone
	}
	return customer
}

func (s ShippingAddress) toDomain() domain.ShippingAddress {
	address := domain.ShippingAddress{
		Street:     s.Street,
		City:       s.City,
		PostalCode: s.PostalCode,
		Country:    s.Country,
	}
	if s.State != nil {
		address.State = *s.State
	}
	return address
}
