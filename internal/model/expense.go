package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense category enum constants
const (
	ExpenseCategoryTravel        = "Travel"
	ExpenseCategoryAccommodation = "Accommodation"
	ExpenseCategoryMeals         = "Meals"
	ExpenseCategoryEquipment     = "Equipment"
	ExpenseCategoryOther         = "Other"
)

// ExpenseRequest is a reimbursement claim moving through the same
// multi-manager approval workflow as leave requests. There is no balance
// ledger behind expenses; final HR approval produces a Reimbursement record
// for payout processing.
type ExpenseRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Series       string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"series"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	EmployeeName string    `gorm:"type:varchar(255);not null" json:"employee_name"`

	Category       string          `gorm:"type:varchar(50);not null" json:"category"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	ExpenseDate    time.Time       `gorm:"type:date;not null" json:"expense_date"`
	Description    string          `gorm:"type:text" json:"description"`
	AttachmentURL  string          `gorm:"type:text" json:"attachment_url"` // storage itself is external; reference only
	AttachmentName string          `gorm:"type:varchar(255)" json:"attachment_name"`

	WorkflowFields `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *ExpenseRequest) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (ExpenseRequest) TableName() string {
	return "expense_requests"
}

func (e *ExpenseRequest) PrimaryID() uuid.UUID      { return e.ID }
func (e *ExpenseRequest) RequesterID() uuid.UUID    { return e.EmployeeID }
func (e *ExpenseRequest) RequesterName() string     { return e.EmployeeName }
func (e *ExpenseRequest) SeriesCode() string        { return e.Series }
func (e *ExpenseRequest) Workflow() *WorkflowFields { return &e.WorkflowFields }

// Reimbursement marks an HR-approved expense as ready for payout. Payment
// execution happens outside this system.
type Reimbursement struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"expense_id"`
	Expense    *ExpenseRequest `gorm:"foreignKey:ExpenseID" json:"expense,omitempty"`
	Series     string          `gorm:"type:varchar(30);not null" json:"series"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency   string          `gorm:"type:varchar(3);not null" json:"currency"`
	ApprovedBy *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r *Reimbursement) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
