package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required"`
	FromDate  string `json:"from_date" binding:"required"` // YYYY-MM-DD
	ToDate    string `json:"to_date"`                      // optional; empty means single-day
	HalfDay   bool   `json:"half_day"`
	Reason    string `json:"reason" binding:"required"`
}

type DecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes"`
}

// BalanceSummary bundles both ledgers for the balance endpoint.
type BalanceSummary struct {
	Year             int             `json:"year"`
	TotalAllocated   decimal.Decimal `json:"total_allocated"`
	LeavesTaken      decimal.Decimal `json:"leaves_taken"`
	LeavesRemaining  decimal.Decimal `json:"leaves_remaining"`
	CompOffEarned    decimal.Decimal `json:"comp_off_earned"`
	CompOffTaken     decimal.Decimal `json:"comp_off_taken"`
	CompOffRemaining decimal.Decimal `json:"comp_off_remaining"`
}

// LeaveRequestResponse renders a leave request for the API, with the
// aggregate status in both structured and display form.
type LeaveRequestResponse struct {
	*model.LeaveRequest
	StatusDisplay string          `json:"status_display"`
	StatusCounts  approval.Status `json:"status_counts"`
}

func toLeaveResponse(l *model.LeaveRequest) LeaveRequestResponse {
	status := approval.Aggregate(l.Slots())
	status.Kind = l.StatusKind() // HR/terminal kinds are not derivable from slots
	return LeaveRequestResponse{LeaveRequest: l, StatusDisplay: status.Display(), StatusCounts: status}
}

// --- Interface ---

type LeaveService interface {
	Submit(ctx context.Context, employeeID uuid.UUID, req SubmitLeaveRequest) (*LeaveRequestResponse, error)
	MyRequests(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]LeaveRequestResponse, int64, error)
	AllRequests(ctx context.Context, page, limit int) ([]LeaveRequestResponse, int64, error)
	PendingForManager(ctx context.Context, managerID uuid.UUID, page, limit int) ([]LeaveRequestResponse, int64, error)
	PendingForHR(ctx context.Context, page, limit int) ([]LeaveRequestResponse, int64, error)
	Decide(ctx context.Context, id string, managerID uuid.UUID, action, notes string) (approval.Status, error)
	DecideByToken(ctx context.Context, id, token, action string) (approval.Status, error)
	HRDecide(ctx context.Context, id string, hrID uuid.UUID, action, notes string) (*LeaveRequestResponse, error)
	Balance(ctx context.Context, employeeID uuid.UUID) (*BalanceSummary, error)
}

type leaveService struct {
	db       *gorm.DB
	engine   *Engine
	resolver *SlotResolver
	users    repository.UserRepository
}

func NewLeaveService(db *gorm.DB, engine *Engine, resolver *SlotResolver, users repository.UserRepository) LeaveService {
	return &leaveService{db: db, engine: engine, resolver: resolver, users: users}
}

// --- Implementation ---

// calculateLeaveDays computes the requested day count: inclusive calendar
// range, half a day shaved off for the half-day flag, single day when no end
// date was given.
func calculateLeaveDays(from time.Time, to *time.Time, halfDay bool) decimal.Decimal {
	if to == nil {
		if halfDay {
			return decimal.NewFromFloat(0.5)
		}
		return decimal.NewFromInt(1)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	total := decimal.NewFromInt(int64(days))
	if halfDay {
		total = total.Sub(decimal.NewFromFloat(0.5))
	}
	return total
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", value)
	}
	return t, nil
}

func (s *leaveService) Submit(ctx context.Context, employeeID uuid.UUID, req SubmitLeaveRequest) (*LeaveRequestResponse, error) {
	fromDate, err := parseDate(req.FromDate)
	if err != nil {
		return nil, err
	}
	var toDate *time.Time
	if req.ToDate != "" {
		parsed, err := parseDate(req.ToDate)
		if err != nil {
			return nil, err
		}
		if parsed.Before(fromDate) {
			return nil, errors.New("to_date must not be before from_date")
		}
		toDate = &parsed
	}

	employee, err := s.users.GetByID(ctx, employeeID.String())
	if err != nil {
		return nil, fmt.Errorf("employee not found: %w", err)
	}

	slots, err := s.resolver.Resolve(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	totalDays := calculateLeaveDays(fromDate, toDate, req.HalfDay)
	year := fromDate.Year()

	token, err := approval.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate approval token: %w", err)
	}

	leave := model.LeaveRequest{
		Series:         newSeries("LR"),
		EmployeeID:     employeeID,
		EmployeeName:   employee.FullName(),
		LeaveType:      req.LeaveType,
		FromDate:       fromDate,
		ToDate:         toDate,
		HalfDay:        req.HalfDay,
		TotalLeaveDays: totalDays,
		Reason:         req.Reason,
	}
	leave.ApprovalToken = token
	leave.AssignSlots(slots)
	leave.Status = string(approval.Aggregate(leave.Slots()).Kind)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		remaining, err := snapshotBalance(tx, employeeID, year)
		if err != nil {
			return err
		}
		leave.LeaveBalanceBefore = remaining

		// Balance gate applies only to categories that draw from the annual
		// allocation; unpaid leave and comp-off have their own rules.
		if req.LeaveType != model.LeaveTypeUnpaid && req.LeaveType != model.LeaveTypeCompOff && totalDays.GreaterThan(remaining) {
			return fmt.Errorf("insufficient leave balance: %s days remaining, %s requested",
				remaining.String(), totalDays.String())
		}

		if err := tx.Create(&leave).Error; err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"leave_type": req.LeaveType,
			"days":       totalDays,
			"from":       req.FromDate,
			"to":         req.ToDate,
		})
		audit := model.AuditLog{
			UserID:     &employeeID,
			Action:     model.ActionSubmitLeaveRequest,
			EntityID:   leave.ID.String(),
			EntityName: leave.Series,
			Details:    string(details),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifySubmission(&leave)

	resp := toLeaveResponse(&leave)
	return &resp, nil
}

// notifySubmission asks the primary manager for a decision — or HR directly
// when no managers are assigned.
func (s *leaveService) notifySubmission(leave *model.LeaveRequest) {
	recipient := "hr"
	if leave.Manager1Name != "" {
		recipient = leave.Manager1Name
	}
	s.engine.Dispatch(Notification{
		Event:     EventManagerDecisionRequested,
		Recipient: recipient,
		Payload: map[string]interface{}{
			"series":     leave.Series,
			"requester":  leave.EmployeeName,
			"leave_type": leave.LeaveType,
			"days":       leave.TotalLeaveDays.String(),
		},
	})
}

func (s *leaveService) MyRequests(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]LeaveRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "employee_id = ?", employeeID)
}

// AllRequests is the HR-wide listing across every employee.
func (s *leaveService) AllRequests(ctx context.Context, page, limit int) ([]LeaveRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "1 = 1")
}

// PendingForManager lists requests still waiting on a decision from this
// manager: any of their slots is still Pending and the request has not left
// manager review.
func (s *leaveService) PendingForManager(ctx context.Context, managerID uuid.UUID, page, limit int) ([]LeaveRequestResponse, int64, error) {
	cond := `status IN ? AND (
		(manager1_id = ? AND manager1_status = ?) OR
		(manager2_id = ? AND manager2_status = ?) OR
		(manager3_id = ? AND manager3_status = ?))`
	kinds := []string{string(approval.StatusAwaitingManagers), string(approval.StatusPartiallyApproved)}
	return s.list(ctx, page, limit, cond,
		kinds,
		managerID, approval.DecisionPending,
		managerID, approval.DecisionPending,
		managerID, approval.DecisionPending)
}

func (s *leaveService) PendingForHR(ctx context.Context, page, limit int) ([]LeaveRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "status = ?", string(approval.StatusManagerApproved))
}

func (s *leaveService) list(ctx context.Context, page, limit int, cond string, args ...interface{}) ([]LeaveRequestResponse, int64, error) {
	var total int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.LeaveRequest{}).Where(cond, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var requests []model.LeaveRequest
	if err := db.Where(cond, args...).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leave requests: %w", err)
	}

	result := make([]LeaveRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toLeaveResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *leaveService) load(ctx context.Context, id string) (*model.LeaveRequest, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid leave request id: %w", err)
	}
	var leave model.LeaveRequest
	if err := s.db.WithContext(ctx).First(&leave, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("leave request not found: %w", err)
	}
	return &leave, nil
}

func (s *leaveService) Decide(ctx context.Context, id string, managerID uuid.UUID, action, notes string) (approval.Status, error) {
	leave, err := s.load(ctx, id)
	if err != nil {
		return approval.Status{}, err
	}
	manager, err := s.users.GetByID(ctx, managerID.String())
	if err != nil {
		return approval.Status{}, fmt.Errorf("manager not found: %w", err)
	}
	return s.engine.Decide(ctx, leave, Actor{ID: manager.ID, Name: manager.FullName()}, action, notes)
}

func (s *leaveService) DecideByToken(ctx context.Context, id, token, action string) (approval.Status, error) {
	leave, err := s.load(ctx, id)
	if err != nil {
		return approval.Status{}, err
	}
	return s.engine.DecideByToken(ctx, leave, token, action)
}

func (s *leaveService) HRDecide(ctx context.Context, id string, hrID uuid.UUID, action, notes string) (*LeaveRequestResponse, error) {
	leave, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	hr, err := s.users.GetByID(ctx, hrID.String())
	if err != nil {
		return nil, fmt.Errorf("hr user not found: %w", err)
	}
	if err := s.engine.Finalize(ctx, leave, Actor{ID: hr.ID, Name: hr.FullName()}, action, notes, LeaveSettlement{}); err != nil {
		return nil, err
	}
	resp := toLeaveResponse(leave)
	return &resp, nil
}

// Balance returns both ledgers for the current year, provisioning the
// annual-leave row with the default allocation on first access.
func (s *leaveService) Balance(ctx context.Context, employeeID uuid.UUID) (*BalanceSummary, error) {
	year := time.Now().Year()
	summary := BalanceSummary{Year: year}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureLeaveBalance(tx, employeeID, year); err != nil {
			return err
		}
		var bal model.LeaveBalance
		if err := tx.Where("employee_id = ? AND year = ?", employeeID, year).First(&bal).Error; err != nil {
			return err
		}
		summary.TotalAllocated = bal.TotalAllocated
		summary.LeavesTaken = bal.LeavesTaken
		summary.LeavesRemaining = bal.LeavesRemaining

		var comp model.CompOffBalance
		err := tx.Where("employee_id = ? AND year = ?", employeeID, year).First(&comp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		summary.CompOffEarned = comp.TotalEarned
		summary.CompOffTaken = comp.CompOffTaken
		summary.CompOffRemaining = comp.CompOffRemaining
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	return &summary, nil
}

// snapshotBalance reads (provisioning if needed) the annual-leave remaining
// figure recorded on the request at submission time.
func snapshotBalance(tx *gorm.DB, employeeID uuid.UUID, year int) (decimal.Decimal, error) {
	if err := ensureLeaveBalance(tx, employeeID, year); err != nil {
		return decimal.Zero, err
	}
	var bal model.LeaveBalance
	if err := tx.Where("employee_id = ? AND year = ?", employeeID, year).First(&bal).Error; err != nil {
		return decimal.Zero, err
	}
	return bal.LeavesRemaining, nil
}
