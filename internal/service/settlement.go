package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaveSettlement posts the ledger effects of a final leave approval:
// balance movement by leave category plus attendance materialization for the
// leave range. Both happen in the caller's transaction, so a failure in
// either rolls back the HR decision itself.
type LeaveSettlement struct{}

func (LeaveSettlement) Settle(tx *gorm.DB, rec WorkflowRecord, hrID uuid.UUID, now time.Time) error {
	leave, ok := rec.(*model.LeaveRequest)
	if !ok {
		return fmt.Errorf("leave settlement applied to %T", rec)
	}

	year := leave.FromDate.Year()
	days := leave.TotalLeaveDays

	switch leave.LeaveType {
	case model.LeaveTypeUnpaid:
		// no balance movement for unpaid leave
	case model.LeaveTypeCompOff:
		if err := postCompOff(tx, leave.EmployeeID, year, days, now); err != nil {
			return err
		}
	default:
		if err := postAnnualLeave(tx, leave.EmployeeID, year, days, now); err != nil {
			return err
		}
	}

	if err := materializeAttendance(tx, leave); err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]interface{}{
		"leave_type": leave.LeaveType,
		"days":       days,
		"year":       year,
	})
	audit := model.AuditLog{
		UserID:     &hrID,
		Action:     model.ActionSettleLeave,
		EntityID:   leave.ID.String(),
		EntityName: leave.Series,
		Details:    string(details),
	}
	return tx.Create(&audit).Error
}

// postAnnualLeave moves the approved days through the annual-leave ledger.
// The balance row is provisioned with the default allocation if the employee
// has none for the year.
func postAnnualLeave(tx *gorm.DB, employeeID uuid.UUID, year int, days decimal.Decimal, now time.Time) error {
	if err := ensureLeaveBalance(tx, employeeID, year); err != nil {
		return err
	}
	return tx.Model(&model.LeaveBalance{}).
		Where("employee_id = ? AND year = ?", employeeID, year).
		Updates(map[string]interface{}{
			"leaves_taken":     gorm.Expr("leaves_taken + ?", days),
			"leaves_remaining": gorm.Expr("leaves_remaining - ?", days),
			"updated_at":       now,
		}).Error
}

// postCompOff moves the approved days through the comp-off ledger. A missing
// row is created at zero, mirroring how the balances are provisioned
// elsewhere: comp-off is earned, never defaulted.
func postCompOff(tx *gorm.DB, employeeID uuid.UUID, year int, days decimal.Decimal, now time.Time) error {
	if err := ensureCompOffBalance(tx, employeeID, year); err != nil {
		return err
	}
	return tx.Model(&model.CompOffBalance{}).
		Where("employee_id = ? AND year = ?", employeeID, year).
		Updates(map[string]interface{}{
			"comp_off_taken":     gorm.Expr("comp_off_taken + ?", days),
			"comp_off_remaining": gorm.Expr("comp_off_remaining - ?", days),
			"updated_at":         now,
		}).Error
}

// materializeAttendance writes one Leave attendance row per weekday in the
// leave range, Saturdays and Sundays excluded. The insert is idempotent:
// a pre-existing row for (employee, date) is left untouched, so re-running
// settlement for an already-processed range neither errors nor duplicates.
func materializeAttendance(tx *gorm.DB, leave *model.LeaveRequest) error {
	from := leave.FromDate
	to := from
	if leave.ToDate != nil {
		to = *leave.ToDate
	}

	var rows []model.Attendance
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		rows = append(rows, model.Attendance{
			EmployeeID: leave.EmployeeID,
			Date:       d,
			Status:     model.AttendanceLeave,
			Reason:     "Approved leave: " + leave.Reason,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&rows).Error
}

func ensureLeaveBalance(tx *gorm.DB, employeeID uuid.UUID, year int) error {
	var bal model.LeaveBalance
	err := tx.Where("employee_id = ? AND year = ?", employeeID, year).First(&bal).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	bal = model.LeaveBalance{
		EmployeeID:      employeeID,
		Year:            year,
		TotalAllocated:  model.DefaultAnnualAllocation,
		LeavesTaken:     decimal.Zero,
		LeavesRemaining: model.DefaultAnnualAllocation,
	}
	return tx.Create(&bal).Error
}

func ensureCompOffBalance(tx *gorm.DB, employeeID uuid.UUID, year int) error {
	var bal model.CompOffBalance
	err := tx.Where("employee_id = ? AND year = ?", employeeID, year).First(&bal).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	bal = model.CompOffBalance{
		EmployeeID:       employeeID,
		Year:             year,
		TotalEarned:      decimal.Zero,
		CompOffTaken:     decimal.Zero,
		CompOffRemaining: decimal.Zero,
	}
	return tx.Create(&bal).Error
}

// ExpenseSettlement is the expense-side strategy: there is no balance ledger
// behind expenses. Final approval creates the Reimbursement record that
// marks the claim ready for payout processing.
type ExpenseSettlement struct{}

func (ExpenseSettlement) Settle(tx *gorm.DB, rec WorkflowRecord, hrID uuid.UUID, now time.Time) error {
	expense, ok := rec.(*model.ExpenseRequest)
	if !ok {
		return fmt.Errorf("expense settlement applied to %T", rec)
	}

	reimbursement := model.Reimbursement{
		ExpenseID:  expense.ID,
		Series:     expense.Series,
		EmployeeID: expense.EmployeeID,
		Amount:     expense.Amount,
		Currency:   expense.Currency,
		ApprovedBy: &hrID,
	}
	if err := tx.Create(&reimbursement).Error; err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]interface{}{
		"amount":   expense.Amount.StringFixed(2),
		"currency": expense.Currency,
	})
	audit := model.AuditLog{
		UserID:     &hrID,
		Action:     model.ActionCreateReimbursement,
		EntityID:   reimbursement.ID.String(),
		EntityName: expense.Series,
		Details:    string(details),
	}
	return tx.Create(&audit).Error
}

// compile-time checks that both strategies satisfy the engine contract
var (
	_ SettlementStrategy = LeaveSettlement{}
	_ SettlementStrategy = ExpenseSettlement{}
	_ WorkflowRecord     = (*model.LeaveRequest)(nil)
	_ WorkflowRecord     = (*model.ExpenseRequest)(nil)
)
