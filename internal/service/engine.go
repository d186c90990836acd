package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/approval"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowRecord is the contract a request type must satisfy to run on the
// approval engine. Both *model.LeaveRequest and *model.ExpenseRequest
// implement it; the engine itself has no idea which ledgers (if any) sit
// behind the request.
type WorkflowRecord interface {
	TableName() string
	PrimaryID() uuid.UUID
	RequesterID() uuid.UUID
	RequesterName() string
	SeriesCode() string
	Workflow() *model.WorkflowFields
}

// SettlementStrategy posts the ledger side effects of a final HR approval.
// It runs inside the same transaction as the HR status write: either both
// commit or neither does.
type SettlementStrategy interface {
	Settle(tx *gorm.DB, rec WorkflowRecord, hrID uuid.UUID, now time.Time) error
}

// Actor identifies who is issuing a decision.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Engine is the approval gateway: the only mutator of workflow state. Every
// decision is a single transaction around a conditional slot write, so two
// near-simultaneous decisions against the same slot can never both succeed.
type Engine struct {
	db         *gorm.DB
	dispatcher Dispatcher
	now        func() time.Time
}

func NewEngine(db *gorm.DB, dispatcher Dispatcher) *Engine {
	return &Engine{db: db, dispatcher: dispatcher, now: time.Now}
}

func decisionFromAction(action string) (string, error) {
	switch action {
	case "approve":
		return approval.DecisionApproved, nil
	case "reject":
		return approval.DecisionRejected, nil
	default:
		return "", fmt.Errorf("invalid action %q: must be approve or reject", action)
	}
}

// Decide records an authenticated approver's decision on the slot assigned
// to them. Fails with approval.ErrNotAssigned when the actor holds no slot,
// approval.ErrAlreadyDecided when their slot is no longer Pending and
// approval.ErrAlreadyProcessed when the request has left manager review.
func (e *Engine) Decide(ctx context.Context, rec WorkflowRecord, actor Actor, action, notes string) (approval.Status, error) {
	decision, err := decisionFromAction(action)
	if err != nil {
		return approval.Status{}, err
	}

	var out approval.Status
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(rec, "id = ?", rec.PrimaryID()).Error; err != nil {
			return err
		}
		wf := rec.Workflow()
		if !wf.StatusKind().AwaitingManagers() {
			return approval.ErrAlreadyProcessed
		}

		idx := -1
		for _, s := range wf.Slots() {
			if !s.Present() {
				continue
			}
			if *s.ApproverID == actor.ID || s.ApproverName == actor.Name {
				idx = s.Index
				break
			}
		}
		if idx < 0 {
			return approval.ErrNotAssigned
		}
		if wf.Slots()[idx].Decision != approval.DecisionPending {
			return approval.ErrAlreadyDecided
		}

		status, err := e.writeSlot(tx, rec, idx, decision, notes)
		if err != nil {
			return err
		}
		out = status

		return e.audit(tx, &actor.ID, model.ActionManagerDecision, rec, map[string]interface{}{
			"slot":     idx + 1,
			"decision": decision,
			"status":   status.Kind,
		})
	})
	if err != nil {
		return approval.Status{}, err
	}

	e.notifyAfterDecision(ctx, rec, out)
	return out, nil
}

// DecideByToken records a decision arriving through the unauthenticated
// email-link channel. The token is compared byte for byte against the stored
// value; the decision lands on the first slot still Pending (the token does
// not carry slot identity). A replayed link fails with
// approval.ErrAlreadyProcessed, never a silent no-op.
func (e *Engine) DecideByToken(ctx context.Context, rec WorkflowRecord, token, action string) (approval.Status, error) {
	decision, err := decisionFromAction(action)
	if err != nil {
		return approval.Status{}, err
	}

	var out approval.Status
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(rec, "id = ?", rec.PrimaryID()).Error; err != nil {
			return err
		}
		wf := rec.Workflow()
		if !approval.TokenMatches(wf.ApprovalToken, token) {
			return approval.ErrInvalidToken
		}
		if !wf.StatusKind().AwaitingManagers() {
			return approval.ErrAlreadyProcessed
		}

		idx := -1
		var actorID *uuid.UUID
		for _, s := range wf.Slots() {
			if s.Pending() {
				idx = s.Index
				actorID = s.ApproverID
				break
			}
		}
		if idx < 0 {
			return approval.ErrAlreadyProcessed
		}

		status, err := e.writeSlot(tx, rec, idx, decision, "")
		if err != nil {
			if errors.Is(err, approval.ErrAlreadyDecided) {
				return approval.ErrAlreadyProcessed
			}
			return err
		}
		out = status

		return e.audit(tx, actorID, model.ActionTokenDecision, rec, map[string]interface{}{
			"slot":     idx + 1,
			"decision": decision,
			"status":   status.Kind,
		})
	})
	if err != nil {
		return approval.Status{}, err
	}

	e.notifyAfterDecision(ctx, rec, out)
	return out, nil
}

// writeSlot performs the guarded slot mutation shared by both entry points:
// a conditional update keyed on the slot still being Pending, followed by an
// aggregate recompute. RowsAffected == 0 means another decision won the race.
func (e *Engine) writeSlot(tx *gorm.DB, rec WorkflowRecord, idx int, decision, notes string) (approval.Status, error) {
	wf := rec.Workflow()
	now := e.now()

	res := tx.Table(rec.TableName()).
		Where("id = ? AND "+wf.SlotStatusColumn(idx)+" = ?", rec.PrimaryID(), approval.DecisionPending).
		Updates(wf.SlotDecisionUpdates(idx, decision, now, notes))
	if res.Error != nil {
		return approval.Status{}, res.Error
	}
	if res.RowsAffected == 0 {
		return approval.Status{}, approval.ErrAlreadyDecided
	}

	if err := tx.First(rec, "id = ?", rec.PrimaryID()).Error; err != nil {
		return approval.Status{}, err
	}

	status := approval.Aggregate(wf.Slots())
	updates := map[string]interface{}{
		"status":     string(status.Kind),
		"updated_at": now,
	}
	if status.Kind == approval.StatusManagerApproved && wf.ManagerApprovedAt == nil {
		updates["manager_approved_at"] = now
	}
	if err := tx.Table(rec.TableName()).Where("id = ?", rec.PrimaryID()).Updates(updates).Error; err != nil {
		return approval.Status{}, err
	}
	wf.Status = string(status.Kind)

	return status, nil
}

// Finalize records the HR decision. It requires the aggregate status to be
// ManagerApproved (approval.ErrNotReady otherwise) and, on approval, runs the
// settlement strategy inside the same transaction: the request can never end
// up HrApproved with missing ledger effects.
func (e *Engine) Finalize(ctx context.Context, rec WorkflowRecord, hr Actor, action, notes string, settle SettlementStrategy) error {
	decision, err := decisionFromAction(action)
	if err != nil {
		return err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(rec, "id = ?", rec.PrimaryID()).Error; err != nil {
			return err
		}
		wf := rec.Workflow()
		if wf.StatusKind() != approval.StatusManagerApproved {
			return approval.ErrNotReady
		}

		now := e.now()
		kind := approval.StatusHrApproved
		if decision == approval.DecisionRejected {
			kind = approval.StatusHrRejected
		}

		// Conditional on the status still being manager_approved: a
		// concurrent settlement attempt loses the race cleanly.
		res := tx.Table(rec.TableName()).
			Where("id = ? AND status = ?", rec.PrimaryID(), string(approval.StatusManagerApproved)).
			Updates(map[string]interface{}{
				"status":        string(kind),
				"hr_id":         hr.ID,
				"hr_name":       hr.Name,
				"hr_decided_at": now,
				"hr_notes":      notes,
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return approval.ErrNotReady
		}
		wf.Status = string(kind)
		wf.HrID = &hr.ID
		wf.HrName = hr.Name
		wf.HrDecidedAt = &now
		wf.HrNotes = notes

		if kind == approval.StatusHrApproved && settle != nil {
			if err := settle.Settle(tx, rec, hr.ID, now); err != nil {
				return fmt.Errorf("%w: %v", approval.ErrSettlementFailure, err)
			}
		}

		return e.audit(tx, &hr.ID, model.ActionHrDecision, rec, map[string]interface{}{
			"decision": decision,
			"status":   kind,
		})
	})
	if err != nil {
		return err
	}

	wf := rec.Workflow()
	e.dispatch(Notification{
		Event:     EventFinalDecision,
		Recipient: rec.RequesterName(),
		Payload: map[string]interface{}{
			"series": rec.SeriesCode(),
			"status": wf.Status,
			"hr":     hr.Name,
			"notes":  notes,
		},
	})
	return nil
}

// notifyAfterDecision fires the transition notifications once the decision
// transaction has committed. A rejection is final for the requester; full
// manager approval hands the request to HR.
func (e *Engine) notifyAfterDecision(_ context.Context, rec WorkflowRecord, status approval.Status) {
	switch status.Kind {
	case approval.StatusRejected:
		e.dispatch(Notification{
			Event:     EventFinalDecision,
			Recipient: rec.RequesterName(),
			Payload: map[string]interface{}{
				"series": rec.SeriesCode(),
				"status": status.Kind,
			},
		})
	case approval.StatusManagerApproved:
		e.dispatch(Notification{
			Event:     EventAllManagersApproved,
			Recipient: "hr",
			Payload: map[string]interface{}{
				"series":    rec.SeriesCode(),
				"requester": rec.RequesterName(),
			},
		})
	}
}

// dispatch hands a notification to the dispatcher on a separate goroutine.
// Failures are logged and never reach the caller: notification delivery must
// not delay or reverse a state transition.
func (e *Engine) dispatch(n Notification) {
	if e.dispatcher == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("notification dispatch panicked: %v", r)
			}
		}()
		if err := e.dispatcher.Notify(n); err != nil {
			log.Printf("notification dispatch failed event=%s: %v", n.Event, err)
		}
	}()
}

// Dispatch exposes fire-and-forget notification for the submission flow.
func (e *Engine) Dispatch(n Notification) {
	e.dispatch(n)
}

func (e *Engine) audit(tx *gorm.DB, userID *uuid.UUID, action string, rec WorkflowRecord, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   rec.PrimaryID().String(),
		EntityName: rec.SeriesCode(),
		Details:    string(payload),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
