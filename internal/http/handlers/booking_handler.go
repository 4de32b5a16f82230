package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/platform/payments"
	"github.com/trailpost/tours-api/pkg/events"
	"github.com/trailpost/tours-api/pkg/logger"
)

type BookingStore interface {
	Store[domain.Booking]
	CreateFromSession(ctx context.Context, sessionID string, tourID, userID int64, price float64) (*domain.Booking, bool, error)
}

type BookingHandler struct {
	Bookings BookingStore
	Tours    TourStore
	Users    UserStore
	Payments payments.Provider
	Bus      events.Publisher
	BaseURL  string

	resource *Resource[domain.Booking]
}

func NewBookingHandler(bookings BookingStore, tours TourStore, users UserStore,
	provider payments.Provider, bus events.Publisher, baseURL string,
	validate *validator.Validate) *BookingHandler {
	return &BookingHandler{
		Bookings: bookings,
		Tours:    tours,
		Users:    users,
		Payments: provider,
		Bus:      bus,
		BaseURL:  baseURL,
		resource: &Resource[domain.Booking]{
			Name:       "booking",
			Store:      bookings,
			Validate:   validate,
			PatchAllow: []string{"price", "paid"},
		},
	}
}

func (h *BookingHandler) Resource() *Resource[domain.Booking] { return h.resource }

// CheckoutSession returns a payment-session handle for the tour. The
// booking itself is only created when the provider confirms payment
// through the webhook.
func (h *BookingHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) error {
	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourID"), 10, 64)
	if err != nil {
		return response.BadRequest("invalid tour id")
	}

	tour, err := h.Tours.FindByID(r.Context(), tourID)
	if err != nil {
		return response.Internal(err)
	}
	if tour == nil {
		return response.NotFound("no tour found with that ID")
	}

	user := middleware.UserFrom(r.Context())
	sess, err := h.Payments.CreateCheckoutSession(r.Context(), payments.CheckoutInput{
		TourID:        tour.ID,
		TourName:      tour.Name,
		TourSummary:   tour.Summary,
		Price:         tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    h.BaseURL + "/my-tours?alert=booking",
		CancelURL:     h.BaseURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		return response.Internal(err)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"session": sess,
	})
	return nil
}

// Webhook handles the provider callback. It is mounted ahead of the
// generic body plumbing because the signature covers the raw bytes.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) error {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return response.BadRequest("could not read webhook body")
	}

	checkout, err := h.Payments.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		return response.BadRequest("webhook signature verification failed")
	}
	if checkout == nil {
		// verified, but not an event we act on
		response.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return nil
	}

	user, err := h.Users.FindByEmail(r.Context(), checkout.CustomerEmail)
	if err != nil {
		return response.Internal(err)
	}
	if user == nil {
		logger.WarnContext(r.Context(), "checkout completed for unknown customer",
			"email", checkout.CustomerEmail, "session_id", checkout.SessionID)
		response.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return nil
	}

	booking, created, err := h.Bookings.CreateFromSession(r.Context(),
		checkout.SessionID, checkout.TourID, user.ID, checkout.AmountTotal)
	if err != nil {
		return response.Internal(err)
	}
	if created {
		if err := h.Bus.Publish(r.Context(), events.SubjectBookingCreated, booking); err != nil {
			logger.WarnContext(r.Context(), "event publish failed", "error", err)
		}
	}

	response.JSON(w, http.StatusOK, map[string]bool{"received": true})
	return nil
}
