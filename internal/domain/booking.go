package domain

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	TourID    int64     `json:"tour" validate:"required"`
	UserID    int64     `json:"user" validate:"required"`
	Price     float64   `json:"price" validate:"required,gt=0"`
	Paid      bool      `json:"paid"`
	SessionID string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
