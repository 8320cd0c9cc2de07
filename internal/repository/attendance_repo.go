package repository

import (
	"tukio/internal/models"

	"gorm.io/gorm"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) WithTx(tx *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: tx}
}

func (r *AttendanceRepository) Create(a *models.Attendance) error {
	return r.db.Create(a).Error
}

func (r *AttendanceRepository) ListByEventID(eventID string) ([]models.Attendance, error) {
	var list []models.Attendance
	err := r.db.Where("event_id = ?", eventID).Order("created_at ASC").Find(&list).Error
	return list, err
}
