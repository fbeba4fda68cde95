package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/pricing"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/machinetrade/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// MachineService handles inventory records
type MachineService struct {
	machineRepo       repository.MachineRepository
	orderRepo         repository.OrderRepository
	reports           ReportInvalidator
	lowStockThreshold int
}

// NewMachineService creates a new machine service. reports may be nil.
func NewMachineService(
	machineRepo repository.MachineRepository,
	orderRepo repository.OrderRepository,
	reports ReportInvalidator,
	lowStockThreshold int,
) *MachineService {
	return &MachineService{
		machineRepo:       machineRepo,
		orderRepo:         orderRepo,
		reports:           reports,
		lowStockThreshold: lowStockThreshold,
	}
}

// CreateMachineInput represents the create machine input
type CreateMachineInput struct {
	Code        string
	Name        string
	Category    enum.MachineCategory
	Description *string
	Price       decimal.Decimal
	Quantity    int
}

// CreateMachine adds a machine to inventory. A blank code is generated.
func (s *MachineService) CreateMachine(ctx context.Context, input *CreateMachineInput) (*entity.Machine, error) {
	var errs []apperror.FieldError
	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "is required"})
	}
	if !input.Category.Valid() {
		errs = append(errs, apperror.FieldError{Field: "category", Message: "is invalid"})
	}
	errs = append(errs, checkStockFields(&input.Price, &input.Quantity)...)
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	code := entity.NormalizeMachineCode(input.Code)
	if code == "" {
		code = utils.GenerateMachineCode()
	}
	existing, err := s.machineRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("code", "machine code already exists")
	}

	machine := &entity.Machine{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		Category:    input.Category,
		Description: trimmed(input.Description),
		Price:       pricing.Round2(input.Price),
		Quantity:    input.Quantity,
	}
	if err := s.machineRepo.Create(ctx, machine); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return machine, nil
}

// GetMachine retrieves a machine by ID
func (s *MachineService) GetMachine(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	machine, err := s.machineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		return nil, apperror.NewNotFoundError("Machine")
	}
	return machine, nil
}

// ListMachines lists machines with filtering
func (s *MachineService) ListMachines(ctx context.Context, params *repository.MachineFilterParams) (*pagination.PaginatedResult[entity.Machine], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	machines, total, err := s.machineRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(machines, pag), nil
}

// UpdateMachineInput represents the update machine input. The code cannot change.
type UpdateMachineInput struct {
	Name        *string
	Category    *enum.MachineCategory
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
}

// UpdateMachine updates a machine
func (s *MachineService) UpdateMachine(ctx context.Context, id uuid.UUID, input *UpdateMachineInput) (*entity.Machine, error) {
	var errs []apperror.FieldError
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "must not be empty"})
	}
	if input.Category != nil && !input.Category.Valid() {
		errs = append(errs, apperror.FieldError{Field: "category", Message: "is invalid"})
	}
	errs = append(errs, checkStockFields(input.Price, input.Quantity)...)
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	machine, err := s.machineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		return nil, apperror.NewNotFoundError("Machine")
	}

	if input.Name != nil {
		machine.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		machine.Category = *input.Category
	}
	if input.Description != nil {
		machine.Description = trimmed(input.Description)
	}
	if input.Price != nil {
		machine.Price = pricing.Round2(*input.Price)
	}
	if input.Quantity != nil {
		machine.Quantity = *input.Quantity
	}

	if err := s.machineRepo.Update(ctx, machine); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return machine, nil
}

// DeleteMachine removes a machine that no order refers to
func (s *MachineService) DeleteMachine(ctx context.Context, id uuid.UUID) error {
	machine, err := s.machineRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if machine == nil {
		return apperror.NewNotFoundError("Machine")
	}

	used, err := s.orderRepo.ExistsForMachine(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return apperror.NewConflictError("", "machine appears on existing orders and cannot be deleted")
	}
	if err := s.machineRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// invalidate drops cached dashboards so low-stock counts follow stock edits
func (s *MachineService) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
}

// LowStock lists machines at or below the configured threshold
func (s *MachineService) LowStock(ctx context.Context) ([]entity.Machine, error) {
	machines, err := s.machineRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	if machines == nil {
		machines = []entity.Machine{}
	}
	return machines, nil
}

func checkStockFields(price *decimal.Decimal, quantity *int) []apperror.FieldError {
	var errs []apperror.FieldError
	if price != nil && price.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "must not be negative"})
	}
	if quantity != nil && *quantity < 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity", Message: "must not be negative"})
	}
	return errs
}
