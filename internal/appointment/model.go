package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

const (
	MaxNameRunes   = 200
	MaxReasonRunes = 1024
)

var (
	ErrInvalidInput     = errors.New("invalid appointment")
	ErrNotFound         = errors.New("appointment not found")
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
)

type Appointment struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Reason      string    `json:"reason"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookRequest struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Reason      string    `json:"reason"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
