package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/pricing"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/utils"
	"github.com/machinetrade/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

// SaleSettings are the defaults applied when a sale request leaves them out
type SaleSettings struct {
	DefaultVATPercentage  decimal.Decimal
	DefaultWarrantyMonths int
	LowStockThreshold     int
}

// DefaultSaleSettings returns 18% VAT, 12 months warranty, low stock at 5
func DefaultSaleSettings() SaleSettings {
	return SaleSettings{
		DefaultVATPercentage:  decimal.NewFromInt(18),
		DefaultWarrantyMonths: 12,
		LowStockThreshold:     5,
	}
}

// ReportInvalidator drops cached reports after data changes
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// SaleService processes and validates sales
type SaleService struct {
	tx           repository.Transactor
	machineRepo  repository.MachineRepository
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	reports      ReportInvalidator
	settings     SaleSettings
	now          func() time.Time
}

// NewSaleService creates a new sale service. reports may be nil.
func NewSaleService(
	tx repository.Transactor,
	machineRepo repository.MachineRepository,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	reports ReportInvalidator,
	settings SaleSettings,
) *SaleService {
	return &SaleService{
		tx:           tx,
		machineRepo:  machineRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		reports:      reports,
		settings:     settings,
		now:          time.Now,
	}
}

// SaleCustomerInput describes the buyer
type SaleCustomerInput struct {
	Name       string
	Phone      string
	Email      *string
	NationalID *string
	Address    *string
}

// SaleItemInput is one requested line
type SaleItemInput struct {
	MachineID      uuid.UUID
	Quantity       int
	VATPercentage  *decimal.Decimal
	WarrantyMonths *int
}

// SaleExtraInput is an additional charge
type SaleExtraInput struct {
	Description string
	Amount      decimal.Decimal
}

// ProcessSaleInput represents a sale request
type ProcessSaleInput struct {
	Customer             SaleCustomerInput
	Items                []SaleItemInput
	Extras               []SaleExtraInput
	DiscountPercentage   *decimal.Decimal
	DefaultVATPercentage *decimal.Decimal
	PaymentStatus        *enum.PaymentStatus
	Notes                *string
	ProcessedBy          string
}

// OrderSummary is the receipt-level view of a processed sale
type OrderSummary struct {
	OrderCode           string          `json:"order_code"`
	ItemCount           int             `json:"item_count"`
	TotalQuantity       int             `json:"total_quantity"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	ExtrasTotal         decimal.Decimal `json:"extras_total"`
	FinalTotal          decimal.Decimal `json:"final_total"`
	CustomerID          uuid.UUID       `json:"customer_id"`
	IsNewCustomer       bool            `json:"is_new_customer"`
}

// SaleResult is returned by ProcessSale
type SaleResult struct {
	Order   *entity.Order `json:"order"`
	Summary OrderSummary  `json:"summary"`
}

// ProcessSale validates the request, then decrements stock, resolves the
// customer and stores the order as one unit of work. Customer statistics
// are updated after commit and never fail the sale.
func (s *SaleService) ProcessSale(ctx context.Context, input *ProcessSaleInput) (*SaleResult, error) {
	if fieldErrs := s.checkInput(input); len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}

	defaultVAT := s.settings.DefaultVATPercentage
	if input.DefaultVATPercentage != nil {
		defaultVAT = *input.DefaultVATPercentage
	}
	discount := decimal.Zero
	if input.DiscountPercentage != nil {
		discount = *input.DiscountPercentage
	}
	paymentStatus := enum.PaymentStatusPaid
	if input.PaymentStatus != nil {
		paymentStatus = *input.PaymentStatus
	}

	now := s.now()
	var order *entity.Order
	var isNewCustomer bool

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		items := make([]entity.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			item, err := s.takeStock(ctx, line, defaultVAT)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}

		customer, created, err := s.resolveCustomer(ctx, input.Customer)
		if err != nil {
			return err
		}

		extras := make([]entity.OrderExtra, 0, len(input.Extras))
		for _, e := range input.Extras {
			extras = append(extras, entity.OrderExtra{
				Description: strings.TrimSpace(e.Description),
				Amount:      pricing.Round2(e.Amount),
			})
		}

		order = &entity.Order{
			OrderCode:          utils.GenerateOrderCode(now),
			CustomerID:         customer.ID,
			CustomerName:       customer.Name,
			CustomerPhone:      customer.Phone,
			CustomerEmail:      customer.Email,
			CustomerNationalID: customer.NationalID,
			CustomerAddress:    customer.Address,
			Items:              items,
			Extras:             extras,
			DiscountPercentage: discount,
			PaymentStatus:      paymentStatus,
			OrderStatus:        enum.OrderStatusCompleted,
			Notes:              trimmed(input.Notes),
			ProcessedBy:        strings.TrimSpace(input.ProcessedBy),
		}
		pricing.RecomputeTotals(order)

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		isNewCustomer = created
		return nil
	})
	if err != nil {
		return nil, abortUnlessTyped(err)
	}

	if err := s.customerRepo.RecordPurchase(ctx, order.CustomerID, order.FinalTotal, now); err != nil {
		log.Printf("[sale] WARN: order %s committed but customer stats update failed: %v", order.OrderCode, err)
	}
	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}

	return &SaleResult{Order: order, Summary: summarize(order, isNewCustomer)}, nil
}

// takeStock checks and decrements stock for one line and returns the priced item
func (s *SaleService) takeStock(ctx context.Context, line SaleItemInput, defaultVAT decimal.Decimal) (*entity.OrderItem, error) {
	machine, err := s.machineRepo.GetByID(ctx, line.MachineID)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		return nil, apperror.NewNotFoundByIDError("machine", line.MachineID.String())
	}
	if machine.Quantity < line.Quantity {
		return nil, apperror.NewInsufficientStockError(machine.ID.String(), machine.Name, machine.Quantity, line.Quantity)
	}

	ok, err := s.machineRepo.DecrementStock(ctx, machine.ID, line.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost a race with a concurrent sale; report what is left now
		available := 0
		if current, err := s.machineRepo.GetByID(ctx, machine.ID); err == nil && current != nil {
			available = current.Quantity
		}
		return nil, apperror.NewInsufficientStockError(machine.ID.String(), machine.Name, available, line.Quantity)
	}

	item := &entity.OrderItem{
		MachineID:       machine.ID,
		MachineCode:     machine.Code,
		MachineName:     machine.Name,
		MachineCategory: machine.Category,
		Quantity:        line.Quantity,
		UnitPrice:       machine.Price,
		VATPercentage:   s.lineVAT(line, defaultVAT),
		WarrantyMonths:  s.lineWarranty(line),
	}
	pricing.ApplyLine(item)
	return item, nil
}

func (s *SaleService) lineVAT(line SaleItemInput, defaultVAT decimal.Decimal) decimal.Decimal {
	if line.VATPercentage != nil {
		return *line.VATPercentage
	}
	return defaultVAT
}

func (s *SaleService) lineWarranty(line SaleItemInput) int {
	if line.WarrantyMonths != nil {
		return *line.WarrantyMonths
	}
	return s.settings.DefaultWarrantyMonths
}

// resolveCustomer finds the buyer by phone, then national ID, and refreshes
// changed details; otherwise it creates a new customer.
func (s *SaleService) resolveCustomer(ctx context.Context, in SaleCustomerInput) (*entity.Customer, bool, error) {
	phone := validation.NormalizePhone(in.Phone)
	nationalID := normalizedNationalID(in.NationalID)

	customer, err := s.customerRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if customer == nil && nationalID != nil {
		customer, err = s.customerRepo.GetByNationalID(ctx, *nationalID)
		if err != nil {
			return nil, false, err
		}
	}

	if customer == nil {
		customer = &entity.Customer{
			Name:       strings.TrimSpace(in.Name),
			Phone:      phone,
			NationalID: nationalID,
			Email:      trimmed(in.Email),
			Address:    trimmed(in.Address),
			TotalSpent: decimal.Zero,
		}
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			return nil, false, err
		}
		return customer, true, nil
	}

	if nationalID != nil && !equalPtr(customer.NationalID, nationalID) {
		other, err := s.customerRepo.GetByNationalID(ctx, *nationalID)
		if err != nil {
			return nil, false, err
		}
		if other != nil && other.ID != customer.ID {
			return nil, false, apperror.NewConflictError("customer.national_id", "national ID is already registered to another customer")
		}
	}

	changed := false
	if name := strings.TrimSpace(in.Name); name != "" && name != customer.Name {
		customer.Name = name
		changed = true
	}
	if customer.Phone != phone {
		customer.Phone = phone
		changed = true
	}
	if nationalID != nil && !equalPtr(customer.NationalID, nationalID) {
		customer.NationalID = nationalID
		changed = true
	}
	if email := trimmed(in.Email); email != nil && !equalPtr(customer.Email, email) {
		customer.Email = email
		changed = true
	}
	if address := trimmed(in.Address); address != nil && !equalPtr(customer.Address, address) {
		customer.Address = address
		changed = true
	}
	if changed {
		if err := s.customerRepo.Update(ctx, customer); err != nil {
			return nil, false, err
		}
	}
	return customer, false, nil
}

// checkInput runs every request-shape rule before any storage is touched
func (s *SaleService) checkInput(input *ProcessSaleInput) []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Message: msg})
	}

	errs = append(errs, checkCustomer("customer.", input.Customer.Name, input.Customer.Phone,
		input.Customer.Email, input.Customer.NationalID)...)

	if len(input.Items) == 0 {
		add("items", "at least one item is required")
	}
	for i, line := range input.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if line.MachineID == uuid.Nil {
			add(prefix+"machine_id", "is required")
		}
		if line.Quantity < 1 {
			add(prefix+"quantity", "must be at least 1")
		}
		if line.VATPercentage != nil && !pricing.ValidPercentage(*line.VATPercentage) {
			add(prefix+"vat_percentage", "must be between 0 and 100")
		}
		if line.WarrantyMonths != nil && *line.WarrantyMonths < 0 {
			add(prefix+"warranty_months", "must not be negative")
		}
	}

	errs = append(errs, checkExtras(input.Extras)...)

	if input.DiscountPercentage != nil && !pricing.ValidPercentage(*input.DiscountPercentage) {
		add("discount_percentage", "must be between 0 and 100")
	}
	if input.DefaultVATPercentage != nil && !pricing.ValidPercentage(*input.DefaultVATPercentage) {
		add("default_vat_percentage", "must be between 0 and 100")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.Valid() {
		add("payment_status", "is invalid")
	}
	return errs
}

func checkCustomer(prefix, name, phone string, email, nationalID *string) []apperror.FieldError {
	var errs []apperror.FieldError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, apperror.FieldError{Field: prefix + "name", Message: "is required"})
	}
	switch {
	case strings.TrimSpace(phone) == "":
		errs = append(errs, apperror.FieldError{Field: prefix + "phone", Message: "is required"})
	case !validation.IsValidPhone(phone):
		errs = append(errs, apperror.FieldError{Field: prefix + "phone", Message: "must be a valid phone number"})
	}
	if e := trimmed(email); e != nil && !validation.IsValidEmail(*e) {
		errs = append(errs, apperror.FieldError{Field: prefix + "email", Message: "must be a valid email address"})
	}
	if n := trimmed(nationalID); n != nil && !validation.IsValidNationalID(*n) {
		errs = append(errs, apperror.FieldError{Field: prefix + "national_id", Message: "must be a valid national ID (9 digits + V/X or 12 digits)"})
	}
	return errs
}

func checkExtras(extras []SaleExtraInput) []apperror.FieldError {
	var errs []apperror.FieldError
	for i, e := range extras {
		prefix := fmt.Sprintf("extras[%d].", i)
		if strings.TrimSpace(e.Description) == "" {
			errs = append(errs, apperror.FieldError{Field: prefix + "description", Message: "is required"})
		}
		if e.Amount.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: prefix + "amount", Message: "must not be negative"})
		}
	}
	return errs
}

func summarize(order *entity.Order, isNewCustomer bool) OrderSummary {
	return OrderSummary{
		OrderCode:           order.OrderCode,
		ItemCount:           len(order.Items),
		TotalQuantity:       order.TotalQuantity(),
		Subtotal:            order.Subtotal,
		VATAmount:           order.VATAmount,
		TotalBeforeDiscount: order.TotalBeforeDiscount,
		DiscountAmount:      order.DiscountAmount,
		ExtrasTotal:         order.ExtrasTotal,
		FinalTotal:          order.FinalTotal,
		CustomerID:          order.CustomerID,
		IsNewCustomer:       isNewCustomer,
	}
}
