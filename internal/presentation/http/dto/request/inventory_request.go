package request

import (
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// CreateMachineRequest represents a machine creation request
type CreateMachineRequest struct {
	Code        string               `json:"code" binding:"omitempty,max=64"`
	Name        string               `json:"name" binding:"required,min=2,max=255"`
	Category    enum.MachineCategory `json:"category" binding:"required"`
	Description *string              `json:"description"`
	Price       decimal.Decimal      `json:"price"`
	Quantity    int                  `json:"quantity" binding:"min=0"`
}

// UpdateMachineRequest represents a machine update request
type UpdateMachineRequest struct {
	Name        *string               `json:"name" binding:"omitempty,min=2,max=255"`
	Category    *enum.MachineCategory `json:"category"`
	Description *string               `json:"description"`
	Price       *decimal.Decimal      `json:"price"`
	Quantity    *int                  `json:"quantity" binding:"omitempty,min=0"`
}

// MachineFilterRequest represents machine filter parameters
type MachineFilterRequest struct {
	Search    string `form:"search"`
	Category  string `form:"category"`
	LowStock  bool   `form:"low_stock"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// CustomerRequest represents a customer creation request
type CustomerRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Phone      string  `json:"phone" binding:"required,phone"`
	Email      *string `json:"email" binding:"omitempty,email"`
	NationalID *string `json:"national_id" binding:"omitempty,national_id"`
	Address    *string `json:"address"`
}

// UpdateCustomerRequest represents a customer update request
type UpdateCustomerRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=255"`
	Phone      *string `json:"phone" binding:"omitempty,phone"`
	Email      *string `json:"email"`
	NationalID *string `json:"national_id"`
	Address    *string `json:"address"`
}
