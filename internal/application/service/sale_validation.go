package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/pricing"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ItemValidation is the per-line outcome of a dry run
type ItemValidation struct {
	Index         int             `json:"index"`
	MachineID     uuid.UUID       `json:"machine_id"`
	MachineCode   string          `json:"machine_code,omitempty"`
	MachineName   string          `json:"machine_name,omitempty"`
	Requested     int             `json:"requested"`
	Available     int             `json:"available"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VATPercentage decimal.Decimal `json:"vat_percentage"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Valid         bool            `json:"valid"`
	Message       string          `json:"message,omitempty"`
}

// SalePreview holds the totals the sale would produce
type SalePreview struct {
	ItemCount           int             `json:"item_count"`
	TotalQuantity       int             `json:"total_quantity"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	ExtrasTotal         decimal.Decimal `json:"extras_total"`
	FinalTotal          decimal.Decimal `json:"final_total"`
}

// SaleValidation is the dry-run report for a sale request
type SaleValidation struct {
	IsValid  bool                  `json:"is_valid"`
	Errors   []apperror.FieldError `json:"errors"`
	Warnings []string              `json:"warnings"`
	Summary  SalePreview           `json:"summary"`
	Items    []ItemValidation      `json:"items"`
}

// ValidateSale checks a sale request against current stock without
// writing anything. Only storage failures are returned as errors.
func (s *SaleService) ValidateSale(ctx context.Context, input *ProcessSaleInput) (*SaleValidation, error) {
	result := &SaleValidation{
		Errors:   s.checkInput(input),
		Warnings: []string{},
		Items:    make([]ItemValidation, 0, len(input.Items)),
	}
	if result.Errors == nil {
		result.Errors = []apperror.FieldError{}
	}

	defaultVAT := s.settings.DefaultVATPercentage
	if input.DefaultVATPercentage != nil && pricing.ValidPercentage(*input.DefaultVATPercentage) {
		defaultVAT = *input.DefaultVATPercentage
	}

	machines := make(map[uuid.UUID]*entity.Machine)
	requested := make(map[uuid.UUID]int)
	preview := make([]entity.OrderItem, 0, len(input.Items))

	for i, line := range input.Items {
		iv := ItemValidation{Index: i, MachineID: line.MachineID, Requested: line.Quantity}
		if line.MachineID == uuid.Nil || line.Quantity < 1 {
			iv.Message = "invalid line"
			result.Items = append(result.Items, iv)
			continue
		}

		machine, ok := machines[line.MachineID]
		if !ok {
			m, err := s.machineRepo.GetByID(ctx, line.MachineID)
			if err != nil {
				return nil, err
			}
			machine = m
			machines[line.MachineID] = m
		}
		if machine == nil {
			iv.Message = fmt.Sprintf("machine not found: %s", line.MachineID)
			result.Errors = append(result.Errors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].machine_id", i),
				Message: iv.Message,
			})
			result.Items = append(result.Items, iv)
			continue
		}

		// several lines may draw on the same machine; the processor
		// decrements them in order, so compare the running total
		requested[machine.ID] += line.Quantity
		iv.MachineCode = machine.Code
		iv.MachineName = machine.Name
		iv.Available = machine.Quantity
		iv.UnitPrice = machine.Price

		vat := s.lineVAT(line, defaultVAT)
		if !pricing.ValidPercentage(vat) {
			vat = defaultVAT
		}
		iv.VATPercentage = vat
		iv.LineTotal = pricing.ComputeLine(machine.Price, vat, line.Quantity).TotalWithVAT

		remaining := machine.Quantity - requested[machine.ID]
		switch {
		case remaining < 0:
			iv.Message = fmt.Sprintf("insufficient stock: available %d, requested %d", machine.Quantity, requested[machine.ID])
			result.Errors = append(result.Errors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: iv.Message,
			})
		case remaining <= s.settings.LowStockThreshold:
			iv.Valid = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s (%s) will be low on stock after this sale: %d left", machine.Name, machine.Code, remaining))
		default:
			iv.Valid = true
		}

		preview = append(preview, entity.OrderItem{
			Quantity:      line.Quantity,
			UnitPrice:     machine.Price,
			VATPercentage: vat,
		})
		result.Items = append(result.Items, iv)
	}

	extras := make([]entity.OrderExtra, 0, len(input.Extras))
	for _, e := range input.Extras {
		if !e.Amount.IsNegative() {
			extras = append(extras, entity.OrderExtra{Amount: pricing.Round2(e.Amount)})
		}
	}
	discount := decimal.Zero
	if input.DiscountPercentage != nil && pricing.ValidPercentage(*input.DiscountPercentage) {
		discount = *input.DiscountPercentage
	}

	totals := pricing.ComputeTotals(preview, extras, discount)
	quantity := 0
	for _, item := range preview {
		quantity += item.Quantity
	}
	result.Summary = SalePreview{
		ItemCount:           len(preview),
		TotalQuantity:       quantity,
		Subtotal:            totals.Subtotal,
		VATAmount:           totals.VATAmount,
		TotalBeforeDiscount: totals.TotalBeforeDiscount,
		DiscountAmount:      totals.DiscountAmount,
		ExtrasTotal:         totals.ExtrasTotal,
		FinalTotal:          totals.FinalTotal,
	}
	result.IsValid = len(result.Errors) == 0
	return result, nil
}
