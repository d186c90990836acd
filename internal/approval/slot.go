package approval

import (
	"time"

	"github.com/google/uuid"
)

// Decision enum constants — per-slot decision state
const (
	DecisionPending  = "Pending"
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"
)

// MaxSlots is the number of approver slots a request carries. An employee has
// at most a primary, secondary and tertiary manager.
const MaxSlots = 3

// Slot is one approver assignment on a request. A slot is absent (not
// defaulted) when the employee has no Nth manager.
type Slot struct {
	Index        int        `json:"index"`
	ApproverID   *uuid.UUID `json:"approver_id"`
	ApproverName string     `json:"approver_name"`
	Decision     string     `json:"decision"`
	DecidedAt    *time.Time `json:"decided_at"`
	Notes        string     `json:"notes"`
}

// Present reports whether the slot carries a real approver assignment. Both
// the identifier and the display name must be set.
func (s Slot) Present() bool {
	return s.ApproverID != nil && s.ApproverName != ""
}

// Pending reports whether the slot is still awaiting a decision.
func (s Slot) Pending() bool {
	return s.Present() && s.Decision == DecisionPending
}

// Decided reports whether the slot decision is final. A decided slot is
// append-only: its decision never changes.
func (s Slot) Decided() bool {
	return s.Present() && (s.Decision == DecisionApproved || s.Decision == DecisionRejected)
}
