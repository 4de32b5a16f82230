// Package router composes the request pipeline. Middleware order is
// load-bearing: the webhook route must see the raw body before any
// size ceiling applies, the rate limiter only covers /api, and every
// route funnels errors through the same terminal renderer.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/handlers"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/pkg/config"
)

// Fields where repeated query keys are legitimate filter input.
var pollutionWhitelist = []string{
	"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price",
}

type Deps struct {
	Cfg      *config.Config
	Renderer *response.Renderer
	Auth     *middleware.Auth
	Limiter  *middleware.RateLimiter
	AuthH    *handlers.AuthHandler
	UserH    *handlers.UserHandler
	TourH    *handlers.TourHandler
	ReviewH  *handlers.ReviewHandler
	BookingH *handlers.BookingHandler
}

func New(d Deps) http.Handler {
	h := d.Renderer.Handle

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestID)
	recovery := &middleware.Recovery{Renderer: d.Renderer}
	r.Use(recovery.Middleware)
	if !d.Cfg.IsProduction() {
		r.Use(middleware.Logging)
	}
	r.Use(chimw.Compress(5))

	// raw-body provider callback; mounted outside /api so neither the
	// rate limiter nor the body ceiling interferes with it
	r.Post("/webhook-checkout", h(d.BookingH.Webhook))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(d.Limiter.Middleware)
		api.Use(middleware.BodyLimit(d.Cfg.Server.BodyLimit))
		api.Use(middleware.Sanitize)
		api.Use(middleware.ParamPollution(pollutionWhitelist...))

		api.Route("/users", func(u chi.Router) {
			u.Post("/signup", h(d.AuthH.Signup))
			u.Post("/login", h(d.AuthH.Login))
			u.Get("/logout", h(d.AuthH.Logout))
			u.Post("/forgotPassword", h(d.AuthH.ForgotPassword))
			u.Patch("/resetPassword/{token}", h(d.AuthH.ResetPassword))

			u.Group(func(p chi.Router) {
				p.Use(d.Auth.Protect)
				p.Patch("/updateMyPassword", h(d.AuthH.UpdateMyPassword))
				p.Get("/me", h(d.UserH.GetMe))
				p.Patch("/me", h(d.UserH.UpdateMe))
				p.Delete("/me", h(d.UserH.DeleteMe))

				p.Group(func(a chi.Router) {
					a.Use(d.Auth.RequireRoles(domain.RoleAdmin))
					ur := d.UserH.AdminResource()
					a.Get("/", h(ur.GetAll))
					a.Post("/", h(d.UserH.CreateUser))
					a.Get("/{id}", h(ur.GetOne))
					a.Patch("/{id}", h(ur.UpdateOne))
					a.Delete("/{id}", h(ur.DeleteOne))
				})
			})
		})

		api.Route("/tours", func(t chi.Router) {
			tr := d.TourH.Resource()
			t.Get("/top-5-cheap", h(d.TourH.TopTours))
			t.Get("/stats", h(d.TourH.Stats))

			// soft gate: public reads still see the user when a valid
			// token rides along
			t.With(d.Auth.WithUser).Get("/", h(tr.GetAll))
			t.With(d.Auth.WithUser).Get("/{id}", h(tr.GetOne))

			t.Group(func(w chi.Router) {
				w.Use(d.Auth.Protect)
				w.Use(d.Auth.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide))
				w.Post("/", h(tr.CreateOne))
				w.Patch("/{id}", h(tr.UpdateOne))
				w.Delete("/{id}", h(tr.DeleteOne))
			})

			t.Route("/{tourID}/reviews", func(n chi.Router) {
				mountReviews(n, d, h)
			})
		})

		api.Route("/reviews", func(v chi.Router) {
			mountReviews(v, d, h)
		})

		api.Route("/bookings", func(b chi.Router) {
			b.Use(d.Auth.Protect)
			b.Get("/checkout-session/{tourID}", h(d.BookingH.CheckoutSession))

			b.Group(func(a chi.Router) {
				a.Use(d.Auth.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide))
				br := d.BookingH.Resource()
				a.Get("/", h(br.GetAll))
				a.Post("/", h(br.CreateOne))
				a.Get("/{id}", h(br.GetOne))
				a.Patch("/{id}", h(br.UpdateOne))
				a.Delete("/{id}", h(br.DeleteOne))
			})
		})
	})

	r.NotFound(d.Renderer.NotFoundHandler())

	return r
}

func mountReviews(r chi.Router, d Deps, h func(response.HandlerFunc) http.HandlerFunc) {
	rr := d.ReviewH.Resource()
	r.Get("/", h(rr.GetAll))
	r.Get("/{id}", h(rr.GetOne))
	r.With(d.Auth.Protect, d.Auth.RequireRoles(domain.RoleUser)).Post("/", h(rr.CreateOne))

	r.Group(func(p chi.Router) {
		p.Use(d.Auth.Protect)
		p.Use(d.Auth.RequireRoles(domain.RoleUser, domain.RoleAdmin))
		p.Patch("/{id}", h(rr.UpdateOne))
		p.Delete("/{id}", h(rr.DeleteOne))
	})
}
