package request

import (
	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// SaleCustomerRequest is the buyer block of a sale
type SaleCustomerRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Phone      string  `json:"phone" binding:"required,phone"`
	Email      *string `json:"email" binding:"omitempty,email"`
	NationalID *string `json:"national_id" binding:"omitempty,national_id"`
	Address    *string `json:"address"`
}

// SaleItemRequest is one requested line
type SaleItemRequest struct {
	MachineID      uuid.UUID        `json:"machine_id" binding:"required"`
	Quantity       int              `json:"quantity" binding:"required,min=1"`
	VATPercentage  *decimal.Decimal `json:"vat_percentage"`
	WarrantyMonths *int             `json:"warranty_months" binding:"omitempty,min=0"`
}

// ExtraRequest is an additional charge
type ExtraRequest struct {
	Description string          `json:"description" binding:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
}

// ProcessSaleRequest represents a sale request
type ProcessSaleRequest struct {
	Customer             SaleCustomerRequest `json:"customer" binding:"required"`
	Items                []SaleItemRequest   `json:"items" binding:"required,min=1,dive"`
	Extras               []ExtraRequest      `json:"extras" binding:"omitempty,dive"`
	DiscountPercentage   *decimal.Decimal    `json:"discount_percentage"`
	DefaultVATPercentage *decimal.Decimal    `json:"default_vat_percentage"`
	PaymentStatus        *enum.PaymentStatus `json:"payment_status"`
	Notes                *string             `json:"notes"`
}

// ToInput converts the request into service input
func (r *ProcessSaleRequest) ToInput(processedBy string) *service.ProcessSaleInput {
	items := make([]service.SaleItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.SaleItemInput{
			MachineID:      item.MachineID,
			Quantity:       item.Quantity,
			VATPercentage:  item.VATPercentage,
			WarrantyMonths: item.WarrantyMonths,
		}
	}
	return &service.ProcessSaleInput{
		Customer: service.SaleCustomerInput{
			Name:       r.Customer.Name,
			Phone:      r.Customer.Phone,
			Email:      r.Customer.Email,
			NationalID: r.Customer.NationalID,
			Address:    r.Customer.Address,
		},
		Items:                items,
		Extras:               extrasInput(r.Extras),
		DiscountPercentage:   r.DiscountPercentage,
		DefaultVATPercentage: r.DefaultVATPercentage,
		PaymentStatus:        r.PaymentStatus,
		Notes:                r.Notes,
		ProcessedBy:          processedBy,
	}
}

// UpdateOrderItemRequest is one line of a replacement item list
type UpdateOrderItemRequest struct {
	ID             *uuid.UUID       `json:"id"`
	MachineID      uuid.UUID        `json:"machine_id" binding:"required"`
	Quantity       int              `json:"quantity" binding:"required,min=1"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	VATPercentage  *decimal.Decimal `json:"vat_percentage"`
	WarrantyMonths *int             `json:"warranty_months" binding:"omitempty,min=0"`
}

// UpdateOrderRequest represents a partial order update
type UpdateOrderRequest struct {
	CustomerName       *string                  `json:"customer_name" binding:"omitempty,min=1,max=255"`
	CustomerPhone      *string                  `json:"customer_phone" binding:"omitempty,phone"`
	CustomerEmail      *string                  `json:"customer_email"`
	CustomerNationalID *string                  `json:"customer_national_id"`
	CustomerAddress    *string                  `json:"customer_address"`
	Items              []UpdateOrderItemRequest `json:"items" binding:"omitempty,dive"`
	Extras             []ExtraRequest           `json:"extras" binding:"omitempty,dive"`
	DiscountPercentage *decimal.Decimal         `json:"discount_percentage"`
	OrderStatus        *enum.OrderStatus        `json:"order_status"`
	PaymentStatus      *enum.PaymentStatus      `json:"payment_status"`
	Notes              *string                  `json:"notes"`
	ProcessedBy        *string                  `json:"processed_by"`
}

// ToInput converts the request into service input
func (r *UpdateOrderRequest) ToInput() *service.UpdateOrderInput {
	input := &service.UpdateOrderInput{
		CustomerName:       r.CustomerName,
		CustomerPhone:      r.CustomerPhone,
		CustomerEmail:      r.CustomerEmail,
		CustomerNationalID: r.CustomerNationalID,
		CustomerAddress:    r.CustomerAddress,
		DiscountPercentage: r.DiscountPercentage,
		OrderStatus:        r.OrderStatus,
		PaymentStatus:      r.PaymentStatus,
		Notes:              r.Notes,
		ProcessedBy:        r.ProcessedBy,
	}
	if r.Items != nil {
		input.Items = make([]service.UpdateOrderItemInput, len(r.Items))
		for i, item := range r.Items {
			input.Items[i] = service.UpdateOrderItemInput{
				ID:             item.ID,
				MachineID:      item.MachineID,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				VATPercentage:  item.VATPercentage,
				WarrantyMonths: item.WarrantyMonths,
			}
		}
	}
	if r.Extras != nil {
		input.Extras = extrasInput(r.Extras)
	}
	return input
}

// ReturnItemRequest represents an item return
type ReturnItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func extrasInput(extras []ExtraRequest) []service.SaleExtraInput {
	if extras == nil {
		return nil
	}
	out := make([]service.SaleExtraInput, len(extras))
	for i, e := range extras {
		out[i] = service.SaleExtraInput{Description: e.Description, Amount: e.Amount}
	}
	return out
}
