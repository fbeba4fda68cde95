package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer represents a buyer. Phone is stored normalized; NationalID upper-cased.
type Customer struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Phone         string          `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	NationalID    *string         `gorm:"size:16;uniqueIndex;column:national_id" json:"national_id,omitempty"`
	Email         *string         `gorm:"size:255" json:"email,omitempty"`
	Address       *string         `gorm:"type:text" json:"address,omitempty"`
	TotalOrders   int             `gorm:"not null;default:0" json:"total_orders"`
	TotalSpent    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_spent"`
	LastOrderDate *time.Time      `json:"last_order_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
