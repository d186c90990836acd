package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverOrdersSlotsByReportingLine(t *testing.T) {
	db := newTestDB(t)
	employee := seedUser(t, db, "Ravi", "Kumar", model.RoleEmployee)
	m1 := seedUser(t, db, "Anita", "Sharma", model.RoleManager)
	m2 := seedUser(t, db, "Vikram", "Mehta", model.RoleManager)
	m3 := seedUser(t, db, "Deepa", "Rao", model.RoleManager)
	seedDirectory(t, db, employee, m1, m2, m3)

	resolver := NewSlotResolver(repository.NewEmployeeRepository(db))
	slots, err := resolver.Resolve(context.Background(), employee.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, 0, slots[0].Index)
	assert.Equal(t, m1.ID, *slots[0].ApproverID)
	assert.Equal(t, m1.FullName(), slots[0].ApproverName)
	assert.Equal(t, 1, slots[1].Index)
	assert.Equal(t, m2.ID, *slots[1].ApproverID)
	assert.Equal(t, 2, slots[2].Index)
	assert.Equal(t, m3.ID, *slots[2].ApproverID)
}

func TestResolverNoDirectoryRowMeansNoSlots(t *testing.T) {
	db := newTestDB(t)
	employee := seedUser(t, db, "Sana", "Iyer", model.RoleEmployee)

	resolver := NewSlotResolver(repository.NewEmployeeRepository(db))
	slots, err := resolver.Resolve(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolverSkipsIncompleteAssignments(t *testing.T) {
	db := newTestDB(t)
	employee := seedUser(t, db, "Ravi", "Kumar", model.RoleEmployee)
	m1 := seedUser(t, db, "Anita", "Sharma", model.RoleManager)
	m3 := seedUser(t, db, "Deepa", "Rao", model.RoleManager)

	// Manager 2 has an id but no name: the assignment does not count
	entry := &model.EmployeeMaster{
		UserID:       employee.ID,
		EmployeeName: employee.FullName(),
		CompanyEmail: employee.Email,
		Status:       model.EmployeeActive,
		Manager1ID:   &m1.ID,
		Manager1Name: m1.FullName(),
		Manager2ID:   &m3.ID,
		Manager3ID:   &m3.ID,
		Manager3Name: m3.FullName(),
	}
	require.NoError(t, db.Create(entry).Error)

	resolver := NewSlotResolver(repository.NewEmployeeRepository(db))
	slots, err := resolver.Resolve(context.Background(), employee.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// The kept slots retain their original positions
	assert.Equal(t, 0, slots[0].Index)
	assert.Equal(t, 2, slots[1].Index)
}
