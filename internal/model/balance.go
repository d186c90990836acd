package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultAnnualAllocation is the yearly leave allocation provisioned for an
// employee whose balance row does not exist yet.
var DefaultAnnualAllocation = decimal.NewFromInt(27)

// LeaveBalance is the annual-leave ledger, one row per (employee, year).
// Only the settlement engine mutates taken/remaining.
type LeaveBalance struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balance_employee_year" json:"employee_id"`
	Year            int             `gorm:"not null;uniqueIndex:idx_leave_balance_employee_year" json:"year"`
	TotalAllocated  decimal.Decimal `gorm:"type:decimal(6,1);not null" json:"total_allocated"`
	LeavesTaken     decimal.Decimal `gorm:"type:decimal(6,1);not null;default:0" json:"leaves_taken"`
	LeavesRemaining decimal.Decimal `gorm:"type:decimal(6,1);not null" json:"leaves_remaining"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *LeaveBalance) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CompOffBalance is the compensatory-off ledger, separate from annual leave.
type CompOffBalance struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_comp_off_employee_year" json:"employee_id"`
	Year             int             `gorm:"not null;uniqueIndex:idx_comp_off_employee_year" json:"year"`
	TotalEarned      decimal.Decimal `gorm:"type:decimal(6,1);not null;default:0" json:"total_earned"`
	CompOffTaken     decimal.Decimal `gorm:"type:decimal(6,1);not null;default:0" json:"comp_off_taken"`
	CompOffRemaining decimal.Decimal `gorm:"type:decimal(6,1);not null;default:0" json:"comp_off_remaining"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (b *CompOffBalance) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Attendance status enum constants
const (
	AttendancePresent = "Present"
	AttendanceLeave   = "Leave"
	AttendanceWFH     = "Work From Home"
)

// Attendance is one calendar-day record per employee. Settlement
// materializes Leave rows for approved leave; the unique (employee, date)
// index is what makes that materialization idempotent.
type Attendance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_employee_date" json:"employee_id"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_employee_date" json:"date"`
	Status     string    `gorm:"type:varchar(30);not null" json:"status"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Attendance) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
