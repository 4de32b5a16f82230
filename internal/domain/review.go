package domain

import "time"

type Review struct {
	ID        int64     `json:"id"`
	Review    string    `json:"review" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	TourID    int64     `json:"tour" validate:"required"`
	UserID    int64     `json:"user" validate:"required"`
	UserName  string    `json:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
