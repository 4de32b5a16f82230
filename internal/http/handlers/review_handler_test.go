package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/handlers"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/query"
)

type fakeReviewStore struct {
	created  []*domain.Review
	lastSpec query.Spec
}

func (s *fakeReviewStore) FindByID(context.Context, int64) (*domain.Review, error) {
	return nil, nil
}

func (s *fakeReviewStore) FindMany(_ context.Context, spec query.Spec) ([]domain.Review, error) {
	s.lastSpec = spec
	return nil, nil
}

func (s *fakeReviewStore) Create(_ context.Context, in *domain.Review) (*domain.Review, error) {
	in.ID = int64(len(s.created) + 1)
	s.created = append(s.created, in)
	return in, nil
}

func (s *fakeReviewStore) Update(context.Context, int64, map[string]any) (*domain.Review, error) {
	return nil, nil
}

func (s *fakeReviewStore) Delete(context.Context, int64) (bool, error) { return false, nil }

func reviewServer(store *fakeReviewStore, self *domain.User) *chi.Mux {
	rs := handlers.NewReviewHandler(store, validator.New()).Resource()
	render := (&response.Renderer{}).Handle

	r := chi.NewRouter()
	r.Route("/tours/{tourID}/reviews", func(n chi.Router) {
		if self != nil {
			n.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(middleware.WithTestUser(req.Context(), self)))
				})
			})
		}
		n.Get("/", render(rs.GetAll))
		n.Post("/", render(rs.CreateOne))
	})
	return r
}

func TestNestedListingScopesToTour(t *testing.T) {
	store := &fakeReviewStore{}
	srv := reviewServer(store, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tours/7/reviews", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(store.lastSpec.Conditions) != 1 {
		t.Fatalf("conditions = %+v, want the tour scope", store.lastSpec.Conditions)
	}
	c := store.lastSpec.Conditions[0]
	if c.Field != "tour" || c.Value != "7" {
		t.Errorf("condition = %+v, want tour = 7", c)
	}
}

func TestCreateReviewFillsTourAndAuthor(t *testing.T) {
	store := &fakeReviewStore{}
	self := &domain.User{ID: 9, Role: domain.RoleUser, Active: true}
	srv := reviewServer(store, self)

	rec := postJSON(t, srv, "/tours/7/reviews", `{"review":"Lovely trail, would hike again","rating":5}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if len(store.created) != 1 {
		t.Fatal("review not stored")
	}
	got := store.created[0]
	if got.TourID != 7 || got.UserID != 9 {
		t.Errorf("review = %+v, want tour 7 authored by user 9", got)
	}
}

func TestCreateReviewSanitizesText(t *testing.T) {
	store := &fakeReviewStore{}
	self := &domain.User{ID: 9, Role: domain.RoleUser, Active: true}
	srv := reviewServer(store, self)

	rec := postJSON(t, srv, "/tours/7/reviews", `{"review":"nice <script>alert(1)</script>","rating":4}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if got := store.created[0].Review; got != "nice &gt;alert(1)&gt;" {
		t.Errorf("stored review = %q, want script payload removed", got)
	}
}

func TestCreateReviewValidatesRating(t *testing.T) {
	store := &fakeReviewStore{}
	self := &domain.User{ID: 9, Role: domain.RoleUser, Active: true}
	srv := reviewServer(store, self)

	rec := postJSON(t, srv, "/tours/7/reviews", `{"review":"meh","rating":11}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
	if len(store.created) != 0 {
		t.Error("invalid review was stored")
	}
}
