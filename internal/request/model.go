package request

import (
	"time"

	"github.com/gofrs/uuid"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

func (rs RequestStatus) Valid() bool {
	switch rs {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MeasurementRequest — заявка на замер.
type MeasurementRequest struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Address   string        `json:"address,omitempty"`
	Comment   string        `json:"comment,omitempty"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CallbackRequest — заявка на обратный звонок.
type CallbackRequest struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Comment   string        `json:"comment,omitempty"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
