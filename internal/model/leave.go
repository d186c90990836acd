package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaveType enum constants. Any type other than Unpaid/Comp Off draws from
// the annual allocation.
const (
	LeaveTypePaid      = "Paid Leave"
	LeaveTypeSick      = "Sick Leave"
	LeaveTypeCasual    = "Casual Leave"
	LeaveTypePrivilege = "Privilege Leave"
	LeaveTypeUnpaid    = "Unpaid Leave"
	LeaveTypeCompOff   = "Comp Off"
)

// LeaveRequest is a leave application moving through the multi-manager
// approval workflow. The embedded WorkflowFields carry the approver slots,
// aggregate status, approval token and HR decision.
type LeaveRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Series       string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"series"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	EmployeeName string    `gorm:"type:varchar(255);not null" json:"employee_name"`

	LeaveType          string          `gorm:"type:varchar(50);not null" json:"leave_type"`
	LeaveBalanceBefore decimal.Decimal `gorm:"type:decimal(6,1);not null" json:"leave_balance_before"`
	FromDate           time.Time       `gorm:"type:date;not null" json:"from_date"`
	ToDate             *time.Time      `gorm:"type:date" json:"to_date"` // nil for single-day leave
	HalfDay            bool            `gorm:"default:false" json:"half_day"`
	TotalLeaveDays     decimal.Decimal `gorm:"type:decimal(6,1);not null" json:"total_leave_days"`
	Reason             string          `gorm:"type:text;not null" json:"reason"`

	WorkflowFields `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *LeaveRequest) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// PrimaryID, RequesterID, RequesterName and SeriesCode satisfy the workflow
// engine's record contract.
func (l *LeaveRequest) PrimaryID() uuid.UUID      { return l.ID }
func (l *LeaveRequest) RequesterID() uuid.UUID    { return l.EmployeeID }
func (l *LeaveRequest) RequesterName() string     { return l.EmployeeName }
func (l *LeaveRequest) SeriesCode() string        { return l.Series }
func (l *LeaveRequest) Workflow() *WorkflowFields { return &l.WorkflowFields }
