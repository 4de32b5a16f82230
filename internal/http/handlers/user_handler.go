package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/query"
)

// UserListStore adds the admin-facing operations to UserStore.
type UserListStore interface {
	UserStore
	FindMany(ctx context.Context, spec query.Spec) ([]domain.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type UserHandler struct {
	Users UserListStore
}

// AdminResource adapts the user store to the generic factory for the
// admin CRUD routes. Creation stays off the factory: accounts only come
// from /signup, and password updates only from the password routes.
func (h *UserHandler) AdminResource() *Resource[domain.User] {
	return &Resource[domain.User]{
		Name:       "user",
		Store:      adminUserStore{h.Users},
		PatchAllow: []string{"name", "email", "photo", "role"},
	}
}

type adminUserStore struct{ UserListStore }

func (adminUserStore) Create(context.Context, *domain.User) (*domain.User, error) {
	return nil, errors.New("user creation goes through /signup")
}

// CreateUser answers the factory-shaped route that must not exist.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) error {
	return response.ServerError("this route is not defined, please use /signup instead", nil)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) error {
	response.Data(w, http.StatusOK, middleware.UserFrom(r.Context()))
	return nil
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())

	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		return err
	}
	if _, ok := raw["password"]; ok {
		return response.BadRequest("this route is not for password updates, please use /updateMyPassword")
	}
	if _, ok := raw["passwordConfirm"]; ok {
		return response.BadRequest("this route is not for password updates, please use /updateMyPassword")
	}

	patch := make(map[string]any, 2)
	for _, field := range []string{"name", "email"} {
		if v, ok := raw[field]; ok {
			if s, isStr := v.(string); isStr {
				v = middleware.CleanString(s)
			}
			patch[field] = v
		}
	}

	updated, err := h.Users.Update(r.Context(), user.ID, patch)
	if err != nil {
		if isUniqueViolation(err) {
			return response.BadRequest("email address already in use")
		}
		return response.Internal(err)
	}

	response.Data(w, http.StatusOK, updated)
	return nil
}

// DeleteMe soft-deletes: the record stays, login stops working.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if err := h.Users.Deactivate(r.Context(), user.ID); err != nil {
		return response.Internal(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
