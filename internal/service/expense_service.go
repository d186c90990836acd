package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitExpenseRequest struct {
	Category       string `json:"category" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	ExpenseDate    string `json:"expense_date" binding:"required"` // YYYY-MM-DD
	Description    string `json:"description"`
	AttachmentURL  string `json:"attachment_url" binding:"required"`
	AttachmentName string `json:"attachment_name"`
}

type ExpenseRequestResponse struct {
	*model.ExpenseRequest
	StatusDisplay string          `json:"status_display"`
	StatusCounts  approval.Status `json:"status_counts"`
}

func toExpenseResponse(e *model.ExpenseRequest) ExpenseRequestResponse {
	status := approval.Aggregate(e.Slots())
	status.Kind = e.StatusKind()
	return ExpenseRequestResponse{ExpenseRequest: e, StatusDisplay: status.Display(), StatusCounts: status}
}

// CategoryStat is one row of the expense analytics aggregate.
type CategoryStat struct {
	Category    string          `json:"category"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgAmount   decimal.Decimal `json:"avg_amount"`
}

// --- Interface ---

type ExpenseService interface {
	Submit(ctx context.Context, employeeID uuid.UUID, req SubmitExpenseRequest) (*ExpenseRequestResponse, error)
	MyRequests(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]ExpenseRequestResponse, int64, error)
	AllRequests(ctx context.Context, page, limit int) ([]ExpenseRequestResponse, int64, error)
	PendingForManager(ctx context.Context, managerID uuid.UUID, page, limit int) ([]ExpenseRequestResponse, int64, error)
	PendingForHR(ctx context.Context, page, limit int) ([]ExpenseRequestResponse, int64, error)
	Decide(ctx context.Context, id string, managerID uuid.UUID, action, notes string) (approval.Status, error)
	DecideByToken(ctx context.Context, id, token, action string) (approval.Status, error)
	HRDecide(ctx context.Context, id string, hrID uuid.UUID, action, notes string) (*ExpenseRequestResponse, error)
	Analytics(ctx context.Context) ([]CategoryStat, error)
}

type expenseService struct {
	db       *gorm.DB
	engine   *Engine
	resolver *SlotResolver
	users    repository.UserRepository
}

func NewExpenseService(db *gorm.DB, engine *Engine, resolver *SlotResolver, users repository.UserRepository) ExpenseService {
	return &expenseService{db: db, engine: engine, resolver: resolver, users: users}
}

// --- Implementation ---

func (s *expenseService) Submit(ctx context.Context, employeeID uuid.UUID, req SubmitExpenseRequest) (*ExpenseRequestResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	employee, err := s.users.GetByID(ctx, employeeID.String())
	if err != nil {
		return nil, fmt.Errorf("employee not found: %w", err)
	}

	slots, err := s.resolver.Resolve(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	token, err := approval.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate approval token: %w", err)
	}

	expense := model.ExpenseRequest{
		Series:         newSeries("EXP"),
		EmployeeID:     employeeID,
		EmployeeName:   employee.FullName(),
		Category:       req.Category,
		Amount:         amount,
		Currency:       currency,
		ExpenseDate:    expenseDate,
		Description:    req.Description,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	}
	expense.ApprovalToken = token
	expense.AssignSlots(slots)
	expense.Status = string(approval.Aggregate(expense.Slots()).Kind)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("failed to create expense request: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"category": req.Category,
			"amount":   amount.StringFixed(2),
			"currency": currency,
		})
		audit := model.AuditLog{
			UserID:     &employeeID,
			Action:     model.ActionSubmitExpenseRequest,
			EntityID:   expense.ID.String(),
			EntityName: expense.Series,
			Details:    string(details),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	recipient := "hr"
	if expense.Manager1Name != "" {
		recipient = expense.Manager1Name
	}
	s.engine.Dispatch(Notification{
		Event:     EventManagerDecisionRequested,
		Recipient: recipient,
		Payload: map[string]interface{}{
			"series":    expense.Series,
			"requester": expense.EmployeeName,
			"category":  expense.Category,
			"amount":    amount.StringFixed(2) + " " + currency,
		},
	})

	resp := toExpenseResponse(&expense)
	return &resp, nil
}

func (s *expenseService) MyRequests(ctx context.Context, employeeID uuid.UUID, page, limit int) ([]ExpenseRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "employee_id = ?", employeeID)
}

// AllRequests is the HR-wide listing across every employee.
func (s *expenseService) AllRequests(ctx context.Context, page, limit int) ([]ExpenseRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "1 = 1")
}

func (s *expenseService) PendingForManager(ctx context.Context, managerID uuid.UUID, page, limit int) ([]ExpenseRequestResponse, int64, error) {
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

func (s *expenseService) PendingForHR(ctx context.Context, page, limit int) ([]ExpenseRequestResponse, int64, error) {
	return s.list(ctx, page, limit, "status = ?", string(approval.StatusManagerApproved))
}

func (s *expenseService) list(ctx context.Context, page, limit int, cond string, args ...interface{}) ([]ExpenseRequestResponse, int64, error) {
	var total int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.ExpenseRequest{}).Where(cond, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expense requests: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var requests []model.ExpenseRequest
	if err := db.Where(cond, args...).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch expense requests: %w", err)
	}

	result := make([]ExpenseRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toExpenseResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *expenseService) load(ctx context.Context, id string) (*model.ExpenseRequest, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid expense request id: %w", err)
	}
	var expense model.ExpenseRequest
	if err := s.db.WithContext(ctx).First(&expense, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("expense request not found: %w", err)
	}
	return &expense, nil
}

func (s *expenseService) Decide(ctx context.Context, id string, managerID uuid.UUID, action, notes string) (approval.Status, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return approval.Status{}, err
	}
	manager, err := s.users.GetByID(ctx, managerID.String())
	if err != nil {
		return approval.Status{}, fmt.Errorf("manager not found: %w", err)
	}
	return s.engine.Decide(ctx, expense, Actor{ID: manager.ID, Name: manager.FullName()}, action, notes)
}

func (s *expenseService) DecideByToken(ctx context.Context, id, token, action string) (approval.Status, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return approval.Status{}, err
	}
	return s.engine.DecideByToken(ctx, expense, token, action)
}

func (s *expenseService) HRDecide(ctx context.Context, id string, hrID uuid.UUID, action, notes string) (*ExpenseRequestResponse, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	hr, err := s.users.GetByID(ctx, hrID.String())
	if err != nil {
		return nil, fmt.Errorf("hr user not found: %w", err)
	}
	if err := s.engine.Finalize(ctx, expense, Actor{ID: hr.ID, Name: hr.FullName()}, action, notes, ExpenseSettlement{}); err != nil {
		return nil, err
	}
	resp := toExpenseResponse(expense)
	return &resp, nil
}

// Analytics aggregates expenses per category for the HR dashboard.
func (s *expenseService) Analytics(ctx context.Context) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := s.db.WithContext(ctx).
		Model(&model.ExpenseRequest{}).
		Select("category, COUNT(*) as count, SUM(amount) as total_amount, AVG(amount) as avg_amount").
		Group("category").
		Order("total_amount DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expense analytics: %w", err)
	}
	return stats, nil
}
