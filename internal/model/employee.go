package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee status enum constants
const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

// EmployeeMaster is the organizational directory row for an employee: who
// they are and which managers (up to three, ordered) review their requests.
// The manager columns feed slot resolution; a manager assignment counts only
// when both id and name are set.
type EmployeeMaster struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EmployeeName string    `gorm:"type:varchar(255);not null" json:"employee_name"`
	CompanyEmail string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"company_email"`
	Department   string    `gorm:"type:varchar(100)" json:"department"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	Manager1ID   *uuid.UUID `gorm:"type:uuid" json:"manager1_id"`
	Manager1Name string     `gorm:"type:varchar(255)" json:"manager1_name"`
	Manager2ID   *uuid.UUID `gorm:"type:uuid" json:"manager2_id"`
	Manager2Name string     `gorm:"type:varchar(255)" json:"manager2_name"`
	Manager3ID   *uuid.UUID `gorm:"type:uuid" json:"manager3_id"`
	Manager3Name string     `gorm:"type:varchar(255)" json:"manager3_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *EmployeeMaster) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName keeps the directory table name the HR tooling expects.
func (EmployeeMaster) TableName() string {
	return "employee_master"
}
