package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/response"
)

type TourStore interface {
	Store[domain.Tour]
	FindByIDWithReviews(ctx context.Context, id int64) (*domain.Tour, error)
	Stats(ctx context.Context) ([]domain.TourStats, error)
}

type TourHandler struct {
	Tours    TourStore
	resource *Resource[domain.Tour]
}

func NewTourHandler(tours TourStore, validate *validator.Validate) *TourHandler {
	return &TourHandler{
		Tours: tours,
		resource: &Resource[domain.Tour]{
			Name:     "tour",
			Store:    tours,
			Validate: validate,
			FindOne:  tours.FindByIDWithReviews,
			PatchAllow: []string{
				"name", "duration", "maxGroupSize", "difficulty", "price",
				"priceDiscount", "summary", "description", "imageCover",
			},
		},
	}
}

func (h *TourHandler) Resource() *Resource[domain.Tour] { return h.resource }

// TopTours is the "/top-5-cheap" alias: a canned query preset applied
// before the generic listing runs.
func (h *TourHandler) TopTours(w http.ResponseWriter, r *http.Request) error {
	r.URL.RawQuery = url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	}.Encode()
	return h.resource.GetAll(w, r)
}

func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.Tours.Stats(r.Context())
	if err != nil {
		return response.Internal(err)
	}
	response.Data(w, http.StatusOK, stats)
	return nil
}
