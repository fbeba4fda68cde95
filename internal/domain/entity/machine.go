package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Machine is an inventory record. Price is tax-inclusive.
type Machine struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	Code        string               `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name        string               `gorm:"size:255;not null" json:"name"`
	Category    enum.MachineCategory `gorm:"size:32;not null;index" json:"category"`
	Description *string              `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Quantity    int                  `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// BeforeCreate generates a UUID and canonicalises the code
func (m *Machine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Code = NormalizeMachineCode(m.Code)
	return nil
}

// TableName returns the table name for the Machine model
func (Machine) TableName() string {
	return "machines"
}

// IsLowStock reports whether on-hand quantity is at or below threshold
func (m *Machine) IsLowStock(threshold int) bool {
	return m.Quantity <= threshold
}

// NormalizeMachineCode trims and upper-cases a machine code
func NormalizeMachineCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
