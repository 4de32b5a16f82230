package domain

import "time"

type Tour struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name" validate:"required,min=10,max=40"`
	Slug            string    `json:"slug"`
	Duration        int       `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int       `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string    `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price           float64   `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64  `json:"priceDiscount,omitempty" validate:"omitempty,gt=0,ltfield=Price"`
	Summary         string    `json:"summary" validate:"required"`
	Description     string    `json:"description,omitempty"`
	ImageCover      string    `json:"imageCover,omitempty"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Populated on demand by GetOne.
	Reviews []Review `json:"reviews,omitempty"`
}

// TourStats is one row of the per-difficulty aggregate.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}
