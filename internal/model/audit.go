package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionSubmitLeaveRequest   = "SUBMIT_LEAVE_REQUEST"
	ActionSubmitExpenseRequest = "SUBMIT_EXPENSE_REQUEST"

	// Approval workflow actions
	ActionManagerDecision     = "MANAGER_DECISION"
	ActionTokenDecision       = "TOKEN_DECISION"
	ActionHrDecision          = "HR_DECISION"
	ActionSettleLeave         = "SETTLE_LEAVE"
	ActionCreateReimbursement = "CREATE_REIMBURSEMENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for unauthenticated token decisions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/series code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
