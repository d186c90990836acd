package service

import (
	"fmt"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database scoped to the test. The shared
// cache keeps the database alive across the pooled connections gorm opens.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.EmployeeMaster{},
		&model.LeaveRequest{},
		&model.ExpenseRequest{},
		&model.Reimbursement{},
		&model.LeaveBalance{},
		&model.CompOffBalance{},
		&model.Attendance{},
		&model.AuditLog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, first, last, role string) *model.User {
	t.Helper()
	user := &model.User{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first + "." + last + "@" + uuid.NewString()[:8] + ".test"),
		Password:  "not-a-real-hash",
		Role:      role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedDirectory writes the directory row mapping an employee to their
// managers, in slot order.
func seedDirectory(t *testing.T, db *gorm.DB, employee *model.User, managers ...*model.User) {
	t.Helper()
	entry := &model.EmployeeMaster{
		UserID:       employee.ID,
		EmployeeName: employee.FullName(),
		CompanyEmail: employee.Email,
		Department:   "Engineering",
		Status:       model.EmployeeActive,
	}
	for i, m := range managers {
		switch i {
		case 0:
			entry.Manager1ID, entry.Manager1Name = &m.ID, m.FullName()
		case 1:
			entry.Manager2ID, entry.Manager2Name = &m.ID, m.FullName()
		case 2:
			entry.Manager3ID, entry.Manager3Name = &m.ID, m.FullName()
		}
	}
	require.NoError(t, db.Create(entry).Error)
}

// workflowFixture wires the full service stack over a test database: two
// managers in the employee's reporting line plus an HR user.
type workflowFixture struct {
	db       *gorm.DB
	leaves   LeaveService
	expenses ExpenseService
	employee *model.User
	m1, m2   *model.User
	hr       *model.User
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db := newTestDB(t)

	employee := seedUser(t, db, "Ravi", "Kumar", model.RoleEmployee)
	m1 := seedUser(t, db, "Anita", "Sharma", model.RoleManager)
	m2 := seedUser(t, db, "Vikram", "Mehta", model.RoleManager)
	hr := seedUser(t, db, "Priya", "Nair", model.RoleHR)
	seedDirectory(t, db, employee, m1, m2)

	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	resolver := NewSlotResolver(employeeRepo)
	engine := NewEngine(db, nil)

	return &workflowFixture{
		db:       db,
		leaves:   NewLeaveService(db, engine, resolver, userRepo),
		expenses: NewExpenseService(db, engine, resolver, userRepo),
		employee: employee,
		m1:       m1,
		m2:       m2,
		hr:       hr,
	}
}
