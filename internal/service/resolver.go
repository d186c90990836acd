package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotResolver determines which approvers (0..3, ordered) review a
// requester's submissions, from the organizational directory. It is
// independent of the state machine; request creation is its only consumer.
type SlotResolver struct {
	employees repository.EmployeeRepository
}

func NewSlotResolver(employees repository.EmployeeRepository) *SlotResolver {
	return &SlotResolver{employees: employees}
}

// Resolve returns the approver slots for a requester. A slot is included
// only when the directory carries both the manager id and display name;
// anything else means the slot is absent, never defaulted. An employee with
// no directory row resolves to zero slots (the request then goes straight to
// HR review).
func (r *SlotResolver) Resolve(ctx context.Context, requesterID uuid.UUID) ([]approval.Slot, error) {
	emp, err := r.employees.GetByUserID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load employee directory entry: %w", err)
	}

	assignments := []struct {
		id   *uuid.UUID
		name string
	}{
		{emp.Manager1ID, emp.Manager1Name},
		{emp.Manager2ID, emp.Manager2Name},
		{emp.Manager3ID, emp.Manager3Name},
	}

	var slots []approval.Slot
	for i, a := range assignments {
		if a.id == nil || a.name == "" {
			continue
		}
		slots = append(slots, approval.Slot{
			Index:        i,
			ApproverID:   a.id,
			ApproverName: a.name,
			Decision:     approval.DecisionPending,
		})
	}
	return slots, nil
}

// ResolveEntry exposes the raw directory row (used by handlers listing an
// employee's reporting line).
func (r *SlotResolver) ResolveEntry(ctx context.Context, requesterID uuid.UUID) (*model.EmployeeMaster, error) {
	return r.employees.GetByUserID(ctx, requesterID)
}
