package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/query"
)

// Store is the contract a resource adapter provides; one generic
// handler set serves every routed resource through it.
type Store[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)
	FindMany(ctx context.Context, spec query.Spec) ([]T, error)
	Create(ctx context.Context, in *T) (*T, error)
	Update(ctx context.Context, id int64, patch map[string]any) (*T, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Resource builds the five CRUD handlers for one resource type.
type Resource[T any] struct {
	Name     string
	Store    Store[T]
	Validate *validator.Validate

	// AmbientFilter derives extra filter conditions from the route,
	// e.g. the parent tour id on nested review listings.
	AmbientFilter func(r *http.Request) []query.Condition

	// Prepare fills in request-derived fields before create.
	Prepare func(r *http.Request, in *T) error

	// PatchAllow lists the body fields a partial update may touch.
	PatchAllow []string

	// FindOne, when set, replaces FindByID for reads that populate
	// relationships.
	FindOne func(ctx context.Context, id int64) (*T, error)
}

func (rs *Resource[T]) GetAll(w http.ResponseWriter, r *http.Request) error {
	spec := query.FromValues(r.URL.Query())
	if rs.AmbientFilter != nil {
		spec.Conditions = append(rs.AmbientFilter(r), spec.Conditions...)
	}

	docs, err := rs.Store.FindMany(r.Context(), spec)
	if err != nil {
		return response.Internal(err)
	}

	response.List(w, len(docs), response.Project(docs, spec.Fields))
	return nil
}

func (rs *Resource[T]) GetOne(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}

	find := rs.Store.FindByID
	if rs.FindOne != nil {
		find = rs.FindOne
	}

	doc, err := find(r.Context(), id)
	if err != nil {
		return response.Internal(err)
	}
	if doc == nil {
		return response.NotFound("no " + rs.Name + " found with that ID")
	}

	response.Data(w, http.StatusOK, doc)
	return nil
}

func (rs *Resource[T]) CreateOne(w http.ResponseWriter, r *http.Request) error {
	var in T
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	sanitizeStrings(&in)
	if rs.Prepare != nil {
		if err := rs.Prepare(r, &in); err != nil {
			return err
		}
	}
	if err := rs.Validate.Struct(&in); err != nil {
		return validationError(err)
	}

	doc, err := rs.Store.Create(r.Context(), &in)
	if err != nil {
		return response.Internal(err)
	}

	response.Data(w, http.StatusCreated, doc)
	return nil
}

func (rs *Resource[T]) UpdateOne(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}

	patch, err := decodePatch(r, rs.PatchAllow)
	if err != nil {
		return err
	}

	doc, err := rs.Store.Update(r.Context(), id, patch)
	if err != nil {
		return response.Internal(err)
	}
	if doc == nil {
		return response.NotFound("no " + rs.Name + " found with that ID")
	}

	response.Data(w, http.StatusOK, doc)
	return nil
}

func (rs *Resource[T]) DeleteOne(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}

	deleted, err := rs.Store.Delete(r.Context(), id)
	if err != nil {
		return response.Internal(err)
	}
	if !deleted {
		return response.NotFound("no " + rs.Name + " found with that ID")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, response.BadRequest("invalid id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return response.BadRequest("request body too large")
		}
		return response.BadRequest("invalid request body")
	}
	return nil
}

// decodePatch reads a partial update, keeping only allowlisted fields
// and cleaning string values.
func decodePatch(r *http.Request, allow []string) (map[string]any, error) {
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(allow))
	for _, f := range allow {
		allowed[f] = struct{}{}
	}

	patch := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, ok := allowed[k]; !ok {
			continue
		}
		if s, isStr := v.(string); isStr {
			v = middleware.CleanString(s)
		}
		patch[k] = v
	}
	return patch, nil
}

// sanitizeStrings walks a decoded document and cleans every settable
// string field, so created documents get the same treatment decodePatch
// gives partial updates.
func sanitizeStrings(v any) {
	cleanValue(reflect.ValueOf(v).Elem())
}

func cleanValue(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(middleware.CleanString(rv.String()))
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			cleanValue(rv.Elem())
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			cleanValue(rv.Field(i))
		}
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			cleanValue(rv.Index(i))
		}
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return response.BadRequest("invalid input")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "eqfield":
			msgs = append(msgs, fe.Field()+" does not match "+fe.Param())
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return response.BadRequest("invalid input: " + strings.Join(msgs, "; "))
}
