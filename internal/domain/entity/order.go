package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a historical sale record. It owns a frozen snapshot of the
// customer and of every machine sold; totals are derived from the lines.
type Order struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderCode string    `gorm:"size:32;uniqueIndex;not null" json:"order_code"`

	CustomerID         uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName       string    `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone      string    `gorm:"size:32;not null;index" json:"customer_phone"`
	CustomerEmail      *string   `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerNationalID *string   `gorm:"size:16" json:"customer_national_id,omitempty"`
	CustomerAddress    *string   `gorm:"type:text" json:"customer_address,omitempty"`

	Subtotal            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	VATAmount           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;column:vat_amount" json:"vat_amount"`
	TotalBeforeDiscount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_before_discount"`
	DiscountPercentage  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount_amount"`
	ExtrasTotal         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"extras_total"`
	FinalTotal          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"final_total"`
	Total               decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total"` // subtotal + extras, kept for older clients

	PaymentStatus enum.PaymentStatus `gorm:"not null;default:0" json:"payment_status"`
	OrderStatus   enum.OrderStatus   `gorm:"not null;default:0;index" json:"order_status"`
	Notes         *string            `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy   string             `gorm:"size:255" json:"processed_by"`
	Version       int                `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relationships
	Items  []OrderItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Extras []OrderExtra `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"extras"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// FindItem resolves a line either by its own ID or by the machine it sold.
// Line IDs win over machine IDs. A machine ID picks the first line for that
// machine with units left to return, else its first line.
func (o *Order) FindItem(ref uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == ref {
			return &o.Items[i]
		}
	}
	var first *OrderItem
	for i := range o.Items {
		if o.Items[i].MachineID != ref {
			continue
		}
		if o.Items[i].RemainingQuantity() > 0 {
			return &o.Items[i]
		}
		if first == nil {
			first = &o.Items[i]
		}
	}
	return first
}

// TotalQuantity is the number of units sold across all lines
func (o *Order) TotalQuantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// HasFullyReturnedItem reports whether any line has been returned completely
func (o *Order) HasFullyReturnedItem() bool {
	for _, item := range o.Items {
		if item.Returned {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order
type OrderItem struct {
	ID               uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	OrderID          uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	Position         int                  `gorm:"not null;default:0" json:"position"`
	MachineID        uuid.UUID            `gorm:"type:uuid;not null;index" json:"machine_id"`
	MachineCode      string               `gorm:"size:64;not null" json:"machine_code"`
	MachineName      string               `gorm:"size:255;not null" json:"machine_name"`
	MachineCategory  enum.MachineCategory `gorm:"size:32" json:"machine_category"`
	Quantity         int                  `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	VATPercentage    decimal.Decimal      `gorm:"type:numeric(5,2);not null;column:vat_percentage" json:"vat_percentage"`
	WarrantyMonths   int                  `gorm:"not null;default:0" json:"warranty_months"`
	BasePrice        decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"base_price"`
	VATAmount        decimal.Decimal      `gorm:"type:numeric(14,2);not null;column:vat_amount" json:"vat_amount"`
	Subtotal         decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TotalWithVAT     decimal.Decimal      `gorm:"type:numeric(14,2);not null;column:total_with_vat" json:"total_with_vat"`
	ReturnedQuantity int                  `gorm:"not null;default:0" json:"returned_quantity"`
	Returned         bool                 `gorm:"not null;default:false" json:"returned"`
	ReturnedAt       *time.Time           `json:"returned_at,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order item
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// RemainingQuantity is the quantity still eligible for return
func (i *OrderItem) RemainingQuantity() int {
	return i.Quantity - i.ReturnedQuantity
}

// OrderExtra is an additional charge (delivery, installation) on an order
type OrderExtra struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
}

// BeforeCreate generates a UUID before creating a new extra
func (e *OrderExtra) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderExtra model
func (OrderExtra) TableName() string {
	return "order_extras"
}
