package model

import (
	"fmt"
	"time"

	"backend/internal/approval"

	"github.com/google/uuid"
)

// WorkflowFields is the approval state shared by every request type. It is
// embedded in LeaveRequest and ExpenseRequest so the two flows run on one
// engine instead of two copies of it.
//
// Slot decisions are append-only: once a managerN_status leaves 'Pending' it
// is never written again (the engine guards every write with a conditional
// update on the current value).
type WorkflowFields struct {
	Status        string `gorm:"type:varchar(30);not null;default:'awaiting_managers';index" json:"status"`
	ApprovalToken string `gorm:"type:varchar(64);not null" json:"-"`

	Manager1ID        *uuid.UUID `gorm:"type:uuid" json:"manager1_id"`
	Manager1Name      string     `gorm:"type:varchar(255)" json:"manager1_name"`
	Manager1Status    string     `gorm:"type:varchar(20)" json:"manager1_status"`
	Manager1DecidedAt *time.Time `json:"manager1_decided_at"`
	Manager1Notes     string     `gorm:"type:text" json:"manager1_notes"`

	Manager2ID        *uuid.UUID `gorm:"type:uuid" json:"manager2_id"`
	Manager2Name      string     `gorm:"type:varchar(255)" json:"manager2_name"`
	Manager2Status    string     `gorm:"type:varchar(20)" json:"manager2_status"`
	Manager2DecidedAt *time.Time `json:"manager2_decided_at"`
	Manager2Notes     string     `gorm:"type:text" json:"manager2_notes"`

	Manager3ID        *uuid.UUID `gorm:"type:uuid" json:"manager3_id"`
	Manager3Name      string     `gorm:"type:varchar(255)" json:"manager3_name"`
	Manager3Status    string     `gorm:"type:varchar(20)" json:"manager3_status"`
	Manager3DecidedAt *time.Time `json:"manager3_decided_at"`
	Manager3Notes     string     `gorm:"type:text" json:"manager3_notes"`

	ManagerApprovedAt *time.Time `json:"manager_approved_at"`

	HrID        *uuid.UUID `gorm:"type:uuid" json:"hr_id"`
	HrName      string     `gorm:"type:varchar(255)" json:"hr_name"`
	HrDecidedAt *time.Time `json:"hr_decided_at"`
	HrNotes     string     `gorm:"type:text" json:"hr_notes"`
}

// StatusKind returns the stored aggregate status as the typed kind.
func (w *WorkflowFields) StatusKind() approval.StatusKind {
	return approval.StatusKind(w.Status)
}

// AssignSlots stamps resolved approver slots onto the record at creation.
// Present slots start Pending; absent slots stay zero-valued.
func (w *WorkflowFields) AssignSlots(slots []approval.Slot) {
	for _, s := range slots {
		if !s.Present() || s.Index < 0 || s.Index >= approval.MaxSlots {
			continue
		}
		switch s.Index {
		case 0:
			w.Manager1ID, w.Manager1Name, w.Manager1Status = s.ApproverID, s.ApproverName, approval.DecisionPending
		case 1:
			w.Manager2ID, w.Manager2Name, w.Manager2Status = s.ApproverID, s.ApproverName, approval.DecisionPending
		case 2:
			w.Manager3ID, w.Manager3Name, w.Manager3Status = s.ApproverID, s.ApproverName, approval.DecisionPending
		}
	}
}

// Slots returns the three approver slots in order, absent ones included.
func (w *WorkflowFields) Slots() []approval.Slot {
	return []approval.Slot{
		{Index: 0, ApproverID: w.Manager1ID, ApproverName: w.Manager1Name, Decision: w.Manager1Status, DecidedAt: w.Manager1DecidedAt, Notes: w.Manager1Notes},
		{Index: 1, ApproverID: w.Manager2ID, ApproverName: w.Manager2Name, Decision: w.Manager2Status, DecidedAt: w.Manager2DecidedAt, Notes: w.Manager2Notes},
		{Index: 2, ApproverID: w.Manager3ID, ApproverName: w.Manager3Name, Decision: w.Manager3Status, DecidedAt: w.Manager3DecidedAt, Notes: w.Manager3Notes},
	}
}

// SlotStatusColumn names the status column of slot i, used for the
// conditional (compare-and-swap) decision write.
func (w *WorkflowFields) SlotStatusColumn(i int) string {
	return fmt.Sprintf("manager%d_status", i+1)
}

// SlotDecisionUpdates builds the column map writing a decision into slot i.
func (w *WorkflowFields) SlotDecisionUpdates(i int, decision string, at time.Time, notes string) map[string]interface{} {
	n := i + 1
	return map[string]interface{}{
		fmt.Sprintf("manager%d_status", n):     decision,
		fmt.Sprintf("manager%d_decided_at", n): at,
		fmt.Sprintf("manager%d_notes", n):      notes,
		"updated_at":                           at,
	}
}
