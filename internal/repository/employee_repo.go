package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmployeeRepository is the organizational directory: it answers who an
// employee is and which managers are assigned to them.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.EmployeeMaster) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.EmployeeMaster, error)
	GetByEmail(ctx context.Context, email string) (*model.EmployeeMaster, error)
	List(ctx context.Context, page, limit int) ([]model.EmployeeMaster, int64, error)
	Update(ctx context.Context, emp *model.EmployeeMaster) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, emp *model.EmployeeMaster) error {
	return GetDB(ctx, r.db).Create(emp).Error
}

func (r *employeeRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.EmployeeMaster, error) {
	var emp model.EmployeeMaster
	if err := GetDB(ctx, r.db).First(&emp, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*model.EmployeeMaster, error) {
	var emp model.EmployeeMaster
	if err := GetDB(ctx, r.db).First(&emp, "company_email = ?", email).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) List(ctx context.Context, page, limit int) ([]model.EmployeeMaster, int64, error) {
	var employees []model.EmployeeMaster
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.EmployeeMaster{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("employee_name").Offset(offset).Limit(limit).Find(&employees).Error; err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

func (r *employeeRepository) Update(ctx context.Context, emp *model.EmployeeMaster) error {
	return GetDB(ctx, r.db).Save(emp).Error
}
