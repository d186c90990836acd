package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// UpsertEmployeeRequest creates or rewrites a directory entry. Manager slots
// are positional: slot N counts only when both id and name are supplied.
type UpsertEmployeeRequest struct {
	UserID       string `json:"user_id" binding:"required,uuid"`
	EmployeeName string `json:"employee_name" binding:"required"`
	CompanyEmail string `json:"company_email" binding:"required,email"`
	Department   string `json:"department"`

	Manager1ID   string `json:"manager1_id" binding:"omitempty,uuid"`
	Manager1Name string `json:"manager1_name"`
	Manager2ID   string `json:"manager2_id" binding:"omitempty,uuid"`
	Manager2Name string `json:"manager2_name"`
	Manager3ID   string `json:"manager3_id" binding:"omitempty,uuid"`
	Manager3Name string `json:"manager3_name"`
}

// EmployeeService manages the organizational directory feeding slot
// resolution.
type EmployeeService interface {
	Upsert(ctx context.Context, req UpsertEmployeeRequest) (*model.EmployeeMaster, error)
	MyEntry(ctx context.Context, userID uuid.UUID) (*model.EmployeeMaster, error)
	List(ctx context.Context, page, limit int) ([]model.EmployeeMaster, int64, error)
}

type employeeService struct {
	employees repository.EmployeeRepository
	txm       repository.TransactionManager
}

func NewEmployeeService(employees repository.EmployeeRepository, txm repository.TransactionManager) EmployeeService {
	return &employeeService{employees: employees, txm: txm}
}

func parseManagerRef(id, name string) (*uuid.UUID, string, error) {
	if id == "" {
		return nil, "", nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, "", fmt.Errorf("invalid manager id %q: %w", id, err)
	}
	if name == "" {
		return nil, "", errors.New("manager name is required when a manager id is set")
	}
	return &parsed, name, nil
}

// Upsert writes the directory entry for a user, creating it on first call and
// rewriting manager assignments afterwards. Already-submitted requests keep
// the slots they were created with; only new submissions see the change.
func (s *employeeService) Upsert(ctx context.Context, req UpsertEmployeeRequest) (*model.EmployeeMaster, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	m1ID, m1Name, err := parseManagerRef(req.Manager1ID, req.Manager1Name)
	if err != nil {
		return nil, err
	}
	m2ID, m2Name, err := parseManagerRef(req.Manager2ID, req.Manager2Name)
	if err != nil {
		return nil, err
	}
	m3ID, m3Name, err := parseManagerRef(req.Manager3ID, req.Manager3Name)
	if err != nil {
		return nil, err
	}

	var entry *model.EmployeeMaster
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.employees.GetByUserID(txCtx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing == nil {
			existing = &model.EmployeeMaster{UserID: userID, Status: model.EmployeeActive}
		}

		// Company email must stay unique across the directory
		if other, err := s.employees.GetByEmail(txCtx, req.CompanyEmail); err == nil && other.UserID != userID {
			return fmt.Errorf("company email %s already belongs to another entry", req.CompanyEmail)
		}

		existing.EmployeeName = req.EmployeeName
		existing.CompanyEmail = req.CompanyEmail
		existing.Department = req.Department
		existing.Manager1ID, existing.Manager1Name = m1ID, m1Name
		existing.Manager2ID, existing.Manager2Name = m2ID, m2Name
		existing.Manager3ID, existing.Manager3Name = m3ID, m3Name

		entry = existing
		if existing.ID == uuid.Nil {
			return s.employees.Create(txCtx, existing)
		}
		return s.employees.Update(txCtx, existing)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *employeeService) MyEntry(ctx context.Context, userID uuid.UUID) (*model.EmployeeMaster, error) {
	return s.employees.GetByUserID(ctx, userID)
}

func (s *employeeService) List(ctx context.Context, page, limit int) ([]model.EmployeeMaster, int64, error) {
	return s.employees.List(ctx, page, limit)
}
