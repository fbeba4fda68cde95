package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/machinetrade/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository, orderRepo repository.OrderRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, orderRepo: orderRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name       string
	Phone      string
	Email      *string
	NationalID *string
	Address    *string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	if errs := checkCustomer("", input.Name, input.Phone, input.Email, input.NationalID); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	customer := &entity.Customer{
		Name:       strings.TrimSpace(input.Name),
		Phone:      validation.NormalizePhone(input.Phone),
		Email:      trimmed(input.Email),
		NationalID: normalizedNationalID(input.NationalID),
		Address:    trimmed(input.Address),
		TotalSpent: decimal.Zero,
	}
	if err := s.checkUnique(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers with search and sorting
func (s *CustomerService) ListCustomers(ctx context.Context, params *repository.CustomerFilterParams) (*pagination.PaginatedResult[entity.Customer], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	customers, total, err := s.customerRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	Name       *string
	Phone      *string
	Email      *string
	NationalID *string
	Address    *string
}

// UpdateCustomer updates a customer's contact details. Purchase statistics
// are only changed by sales.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	name, phone := customer.Name, customer.Phone
	if input.Name != nil {
		name = *input.Name
	}
	if input.Phone != nil {
		phone = *input.Phone
	}
	if errs := checkCustomer("", name, phone, input.Email, input.NationalID); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	customer.Name = strings.TrimSpace(name)
	customer.Phone = validation.NormalizePhone(phone)
	if input.Email != nil {
		customer.Email = trimmed(input.Email)
	}
	if input.NationalID != nil {
		customer.NationalID = normalizedNationalID(input.NationalID)
	}
	if input.Address != nil {
		customer.Address = trimmed(input.Address)
	}
	if err := s.checkUnique(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes a customer that has no orders
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}

	count, err := s.orderRepo.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.NewConflictError("", "customer has orders and cannot be deleted")
	}
	return s.customerRepo.Delete(ctx, id)
}

// GetCustomerOrders lists the orders placed by a customer
func (s *CustomerService) GetCustomerOrders(ctx context.Context, id uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Order], error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}

	filter := &repository.OrderFilterParams{
		OrderFilter: repository.OrderFilter{CustomerID: &id},
		Pagination:  params,
	}
	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(orders, pag), nil
}

// checkUnique reports phone or national ID collisions with another customer
func (s *CustomerService) checkUnique(ctx context.Context, customer *entity.Customer) error {
	other, err := s.customerRepo.GetByPhone(ctx, customer.Phone)
	if err != nil {
		return err
	}
	if other != nil && other.ID != customer.ID {
		return apperror.NewConflictError("phone", "phone is already registered to another customer")
	}

	if customer.NationalID == nil {
		return nil
	}
	other, err = s.customerRepo.GetByNationalID(ctx, *customer.NationalID)
	if err != nil {
		return err
	}
	if other != nil && other.ID != customer.ID {
		return apperror.NewConflictError("national_id", "national ID is already registered to another customer")
	}
	return nil
}
