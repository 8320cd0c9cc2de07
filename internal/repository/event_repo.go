package repository

import (
	"tukio/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

func (r *EventRepository) GetByID(id string) (*models.Event, error) {
	var e models.Event
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// IncrementAttendees bumps the attendee counter atomically in SQL.
// It returns gorm.ErrRecordNotFound when the event does not exist.
func (r *EventRepository) IncrementAttendees(id string) error {
	res := r.db.Model(&models.Event{}).Where("id = ?", id).
		UpdateColumn("attendees", gorm.Expr("attendees + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
