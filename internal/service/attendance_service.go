package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceService reads the attendance calendar. Writes happen only
// through settlement (approved leave materialization); ad hoc day records
// are out of this service's hands.
type AttendanceService interface {
	Calendar(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.Attendance, error)
}

type attendanceService struct {
	db *gorm.DB
}

func NewAttendanceService(db *gorm.DB) AttendanceService {
	return &attendanceService{db: db}
}

func (s *attendanceService) Calendar(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date <= ?", employeeID, from, to).
		Order("date").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance: %w", err)
	}
	return records, nil
}
