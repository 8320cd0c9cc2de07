package models

import "time"

// Event is owned by the event CRUD layer; this service only reads it and bumps Attendees.
type Event struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Status    string    `gorm:"size:20" json:"status"`
	Price     int64     `json:"price"` // minor units
	IsPaid    bool      `json:"is_paid"`
	Attendees int       `gorm:"not null;default:0" json:"attendees"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}
