package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitLeave(t *testing.T, f *workflowFixture, req SubmitLeaveRequest) *LeaveRequestResponse {
	t.Helper()
	resp, err := f.leaves.Submit(context.Background(), f.employee.ID, req)
	require.NoError(t, err)
	return resp
}

func TestLeaveSubmitAssignsSlotsAndToken(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-03-06",
		Reason:    "family trip",
	})

	assert.True(t, len(resp.Series) > 3 && resp.Series[:3] == "LR-")
	assert.Equal(t, string(approval.StatusAwaitingManagers), resp.Status)
	assert.Equal(t, "Pending Manager Approval", resp.StatusDisplay)
	assert.Len(t, resp.ApprovalToken, 64)

	require.NotNil(t, resp.Manager1ID)
	assert.Equal(t, f.m1.ID, *resp.Manager1ID)
	assert.Equal(t, approval.DecisionPending, resp.Manager1Status)
	require.NotNil(t, resp.Manager2ID)
	assert.Equal(t, f.m2.ID, *resp.Manager2ID)

	assert.True(t, resp.TotalLeaveDays.Equal(decimal.NewFromInt(5)))
	assert.True(t, resp.LeaveBalanceBefore.Equal(model.DefaultAnnualAllocation))
}

func TestLeaveSubmitHalfDaySingleDate(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypeSick,
		FromDate:  "2026-03-03",
		HalfDay:   true,
		Reason:    "doctor visit",
	})

	assert.True(t, resp.TotalLeaveDays.Equal(decimal.NewFromFloat(0.5)))
	assert.Nil(t, resp.ToDate)
}

func TestLeaveSubmitInsufficientBalance(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.leaves.Submit(context.Background(), f.employee.ID, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-04-15", // 45 days against a 27-day allocation
		Reason:    "sabbatical",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient leave balance")
}

func TestLeaveSubmitUnpaidSkipsBalanceGate(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypeUnpaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-04-15",
		Reason:    "extended unpaid leave",
	})
	assert.Equal(t, string(approval.StatusAwaitingManagers), resp.Status)
}

func TestLeaveRejectionIsUnconditionalVeto(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "one day off",
	})

	status, err := f.leaves.Decide(ctx, resp.ID.String(), f.m1.ID, "approve", "")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPartiallyApproved, status.Kind)
	assert.Equal(t, "Partially Approved (1/2)", status.Display())

	status, err = f.leaves.Decide(ctx, resp.ID.String(), f.m2.ID, "reject", "coverage conflict")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, status.Kind)

	// HR cannot act on a rejected request
	_, err = f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "")
	assert.ErrorIs(t, err, approval.ErrNotReady)

	var stored model.LeaveRequest
	require.NoError(t, f.db.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, string(approval.StatusRejected), stored.Status)
	assert.Equal(t, "coverage conflict", stored.Manager2Notes)
	require.NotNil(t, stored.Manager2DecidedAt)
}

func TestLeaveManagerCannotDecideTwice(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	_, err := f.leaves.Decide(ctx, resp.ID.String(), f.m1.ID, "approve", "")
	require.NoError(t, err)

	_, err = f.leaves.Decide(ctx, resp.ID.String(), f.m1.ID, "reject", "changed my mind")
	assert.ErrorIs(t, err, approval.ErrAlreadyDecided)

	// The recorded decision is untouched
	var stored model.LeaveRequest
	require.NoError(t, f.db.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, approval.DecisionApproved, stored.Manager1Status)
}

func TestLeaveDecideNotAssigned(t *testing.T) {
	f := newWorkflowFixture(t)
	outsider := seedUser(t, f.db, "Karan", "Joshi", model.RoleManager)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	_, err := f.leaves.Decide(context.Background(), resp.ID.String(), outsider.ID, "approve", "")
	assert.ErrorIs(t, err, approval.ErrNotAssigned)
}

func TestLeaveDecideAfterTerminal(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	_, err := f.leaves.Decide(ctx, resp.ID.String(), f.m1.ID, "reject", "")
	require.NoError(t, err)

	// The other manager's decision arrives after the veto already landed
	_, err = f.leaves.Decide(ctx, resp.ID.String(), f.m2.ID, "approve", "")
	assert.ErrorIs(t, err, approval.ErrAlreadyProcessed)
}

func TestLeaveInvalidAction(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	_, err := f.leaves.Decide(context.Background(), resp.ID.String(), f.m1.ID, "escalate", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action")
}

func TestLeaveTokenDecisionLandsOnFirstPendingSlot(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})
	token := resp.ApprovalToken

	status, err := f.leaves.DecideByToken(ctx, resp.ID.String(), token, "approve")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPartiallyApproved, status.Kind)

	var stored model.LeaveRequest
	require.NoError(t, f.db.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, approval.DecisionApproved, stored.Manager1Status)
	assert.Equal(t, approval.DecisionPending, stored.Manager2Status)

	// Second use decides the next pending slot
	status, err = f.leaves.DecideByToken(ctx, resp.ID.String(), token, "approve")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusManagerApproved, status.Kind)

	// With no pending slots left a replay fails loudly
	_, err = f.leaves.DecideByToken(ctx, resp.ID.String(), token, "approve")
	assert.ErrorIs(t, err, approval.ErrAlreadyProcessed)
}

func TestLeaveTokenRejected(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	status, err := f.leaves.DecideByToken(ctx, resp.ID.String(), resp.ApprovalToken, "reject")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, status.Kind)

	// Replaying the link after the terminal transition is an explicit error
	_, err = f.leaves.DecideByToken(ctx, resp.ID.String(), resp.ApprovalToken, "reject")
	assert.ErrorIs(t, err, approval.ErrAlreadyProcessed)
}

func TestLeaveTokenInvalid(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	wrong, err := approval.NewToken()
	require.NoError(t, err)
	_, err = f.leaves.DecideByToken(context.Background(), resp.ID.String(), wrong, "approve")
	assert.ErrorIs(t, err, approval.ErrInvalidToken)
}

func approveByBothManagers(t *testing.T, f *workflowFixture, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.leaves.Decide(ctx, id, f.m1.ID, "approve", "")
	require.NoError(t, err)
	status, err := f.leaves.Decide(ctx, id, f.m2.ID, "approve", "")
	require.NoError(t, err)
	require.Equal(t, approval.StatusManagerApproved, status.Kind)
}

func TestLeaveHRApprovalSettlesBalanceAndAttendance(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	// Monday through Friday, five working days
	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-03-06",
		Reason:    "family trip",
	})
	approveByBothManagers(t, f, resp.ID.String())

	final, err := f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "enjoy")
	require.NoError(t, err)
	assert.Equal(t, string(approval.StatusHrApproved), final.Status)
	assert.Equal(t, "Approved", final.StatusDisplay)
	require.NotNil(t, final.HrID)
	assert.Equal(t, f.hr.ID, *final.HrID)
	assert.Equal(t, "enjoy", final.HrNotes)

	var bal model.LeaveBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&bal).Error)
	assert.True(t, bal.LeavesTaken.Equal(decimal.NewFromInt(5)), "taken = %s", bal.LeavesTaken)
	assert.True(t, bal.LeavesRemaining.Equal(decimal.NewFromInt(22)), "remaining = %s", bal.LeavesRemaining)

	var attendance []model.Attendance
	require.NoError(t, f.db.Where("employee_id = ?", f.employee.ID).Order("date").Find(&attendance).Error)
	require.Len(t, attendance, 5)
	for _, a := range attendance {
		assert.Equal(t, model.AttendanceLeave, a.Status)
		assert.NotEqual(t, time.Saturday, a.Date.Weekday())
		assert.NotEqual(t, time.Sunday, a.Date.Weekday())
	}
}

func TestLeaveAttendanceSkipsWeekend(t *testing.T) {
	f := newWorkflowFixture(t)

	// Friday through Monday spans a weekend: only Friday and Monday count
	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypeUnpaid,
		FromDate:  "2026-03-06",
		ToDate:    "2026-03-09",
		Reason:    "long weekend",
	})
	approveByBothManagers(t, f, resp.ID.String())

	_, err := f.leaves.HRDecide(context.Background(), resp.ID.String(), f.hr.ID, "approve", "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Attendance{}).Where("employee_id = ?", f.employee.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// Unpaid leave moves no balance
	var bal model.LeaveBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&bal).Error)
	assert.True(t, bal.LeavesTaken.IsZero())
}

func TestLeaveCompOffSettlement(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.CompOffBalance{
		EmployeeID:       f.employee.ID,
		Year:             2026,
		TotalEarned:      decimal.NewFromInt(2),
		CompOffTaken:     decimal.Zero,
		CompOffRemaining: decimal.NewFromInt(2),
	}).Error)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypeCompOff,
		FromDate:  "2026-03-04",
		Reason:    "weekend release work",
	})
	approveByBothManagers(t, f, resp.ID.String())

	_, err := f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "")
	require.NoError(t, err)

	var comp model.CompOffBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&comp).Error)
	assert.True(t, comp.CompOffTaken.Equal(decimal.NewFromInt(1)))
	assert.True(t, comp.CompOffRemaining.Equal(decimal.NewFromInt(1)))

	// Annual allocation stays untouched
	var bal model.LeaveBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&bal).Error)
	assert.True(t, bal.LeavesTaken.IsZero())
}

func TestLeaveHRRejectLeavesLedgersAlone(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-03-06",
		Reason:    "family trip",
	})
	approveByBothManagers(t, f, resp.ID.String())

	final, err := f.leaves.HRDecide(context.Background(), resp.ID.String(), f.hr.ID, "reject", "blackout period")
	require.NoError(t, err)
	assert.Equal(t, string(approval.StatusHrRejected), final.Status)

	var bal model.LeaveBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&bal).Error)
	assert.True(t, bal.LeavesTaken.IsZero())

	var count int64
	require.NoError(t, f.db.Model(&model.Attendance{}).Where("employee_id = ?", f.employee.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLeaveHRDecideBeforeManagersIsNotReady(t *testing.T) {
	f := newWorkflowFixture(t)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})

	_, err := f.leaves.HRDecide(context.Background(), resp.ID.String(), f.hr.ID, "approve", "")
	assert.ErrorIs(t, err, approval.ErrNotReady)
}

func TestLeaveHRDecideIsNotRepeatable(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})
	approveByBothManagers(t, f, resp.ID.String())

	_, err := f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "")
	require.NoError(t, err)

	_, err = f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "")
	assert.ErrorIs(t, err, approval.ErrNotReady)

	// One settlement: the single-day leave debits exactly one day
	var bal model.LeaveBalance
	require.NoError(t, f.db.Where("employee_id = ? AND year = ?", f.employee.ID, 2026).First(&bal).Error)
	assert.True(t, bal.LeavesTaken.Equal(decimal.NewFromInt(1)))
}

func TestLeaveAttendanceMaterializationIsIdempotent(t *testing.T) {
	f := newWorkflowFixture(t)

	// A day in the range already has an attendance row
	existing := model.Attendance{
		EmployeeID: f.employee.ID,
		Date:       time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		Status:     model.AttendanceWFH,
		Reason:     "pre-existing",
	}
	require.NoError(t, f.db.Create(&existing).Error)

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		ToDate:    "2026-03-04",
		Reason:    "trip",
	})
	approveByBothManagers(t, f, resp.ID.String())

	_, err := f.leaves.HRDecide(context.Background(), resp.ID.String(), f.hr.ID, "approve", "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Attendance{}).Where("employee_id = ?", f.employee.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	// The pre-existing row was left untouched, not overwritten
	var day model.Attendance
	require.NoError(t, f.db.First(&day, "id = ?", existing.ID).Error)
	assert.Equal(t, model.AttendanceWFH, day.Status)
}

func TestLeaveZeroManagersGoesStraightToHR(t *testing.T) {
	db := newTestDB(t)
	employee := seedUser(t, db, "Sana", "Iyer", model.RoleEmployee)
	hr := seedUser(t, db, "Priya", "Nair", model.RoleHR)
	// No directory row at all: no manager gate

	userRepo := repository.NewUserRepository(db)
	resolver := NewSlotResolver(repository.NewEmployeeRepository(db))
	engine := NewEngine(db, nil)
	leaves := NewLeaveService(db, engine, resolver, userRepo)

	resp, err := leaves.Submit(context.Background(), employee.ID, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})
	require.NoError(t, err)
	assert.Equal(t, string(approval.StatusManagerApproved), resp.Status)

	final, err := leaves.HRDecide(context.Background(), resp.ID.String(), hr.ID, "approve", "")
	require.NoError(t, err)
	assert.Equal(t, string(approval.StatusHrApproved), final.Status)
}

func TestLeaveListings(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	first := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})
	second := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypeSick,
		FromDate:  "2026-03-10",
		Reason:    "flu",
	})

	mine, total, err := f.leaves.MyRequests(ctx, f.employee.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	pending, total, err := f.leaves.PendingForManager(ctx, f.m1.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, pending, 2)

	// m1 decides the first request; it drops off their queue
	_, err = f.leaves.Decide(ctx, first.ID.String(), f.m1.ID, "approve", "")
	require.NoError(t, err)
	pending, total, err = f.leaves.PendingForManager(ctx, f.m1.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	// Nothing reaches the HR queue until all managers approve
	_, total, err = f.leaves.PendingForHR(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.leaves.Decide(ctx, first.ID.String(), f.m2.ID, "approve", "")
	require.NoError(t, err)
	hrQueue, total, err := f.leaves.PendingForHR(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hrQueue, 1)
	assert.Equal(t, first.ID, hrQueue[0].ID)
}

func TestLeaveBalanceSummaryProvisionsDefaults(t *testing.T) {
	f := newWorkflowFixture(t)

	summary, err := f.leaves.Balance(context.Background(), f.employee.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalAllocated.Equal(model.DefaultAnnualAllocation))
	assert.True(t, summary.LeavesTaken.IsZero())
	assert.True(t, summary.LeavesRemaining.Equal(model.DefaultAnnualAllocation))
	assert.True(t, summary.CompOffEarned.IsZero())
}

func TestLeaveAuditTrail(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	resp := submitLeave(t, f, SubmitLeaveRequest{
		LeaveType: model.LeaveTypePaid,
		FromDate:  "2026-03-02",
		Reason:    "errand",
	})
	approveByBothManagers(t, f, resp.ID.String())
	_, err := f.leaves.HRDecide(ctx, resp.ID.String(), f.hr.ID, "approve", "")
	require.NoError(t, err)

	var actions []string
	require.NoError(t, f.db.Model(&model.AuditLog{}).
		Where("entity_name = ?", resp.Series).
		Pluck("action", &actions).Error)
	assert.ElementsMatch(t, []string{
		model.ActionSubmitLeaveRequest,
		model.ActionManagerDecision,
		model.ActionManagerDecision,
		model.ActionSettleLeave,
		model.ActionHrDecision,
	}, actions)
}

func TestCalculateLeaveDays(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	assert.True(t, calculateLeaveDays(from, &to, false).Equal(decimal.NewFromInt(5)))
	assert.True(t, calculateLeaveDays(from, &to, true).Equal(decimal.NewFromFloat(4.5)))
	assert.True(t, calculateLeaveDays(from, nil, false).Equal(decimal.NewFromInt(1)))
	assert.True(t, calculateLeaveDays(from, nil, true).Equal(decimal.NewFromFloat(0.5)))
}
