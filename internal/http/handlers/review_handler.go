package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/query"
)

type ReviewHandler struct {
	resource *Resource[domain.Review]
}

func NewReviewHandler(reviews Store[domain.Review], validate *validator.Validate) *ReviewHandler {
	return &ReviewHandler{
		resource: &Resource[domain.Review]{
			Name:     "review",
			Store:    reviews,
			Validate: validate,
			// nested listing: /tours/{tourID}/reviews only shows that tour
			AmbientFilter: func(r *http.Request) []query.Condition {
				if tourID := chi.URLParam(r, "tourID"); tourID != "" {
					return []query.Condition{{Field: "tour", Op: query.OpEq, Value: tourID}}
				}
				return nil
			},
			// tour comes from the route, the author from the session
			Prepare: func(r *http.Request, in *domain.Review) error {
				if in.TourID == 0 {
					if tourID, err := strconv.ParseInt(chi.URLParam(r, "tourID"), 10, 64); err == nil {
						in.TourID = tourID
					}
				}
				if user := middleware.UserFrom(r.Context()); user != nil {
					in.UserID = user.ID
				}
				return nil
			},
			PatchAllow: []string{"review", "rating"},
		},
	}
}

func (h *ReviewHandler) Resource() *Resource[domain.Review] { return h.resource }
