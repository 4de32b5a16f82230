package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/platform/mailer"
	"github.com/trailpost/tours-api/internal/platform/token"
	"github.com/trailpost/tours-api/pkg/events"
	"github.com/trailpost/tours-api/pkg/logger"
)

// UserStore is everything the auth and self-service handlers need from
// the credential store.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id int64, patch map[string]any) (*domain.User, error)
	Deactivate(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetResetTicket(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ClearResetTicket(ctx context.Context, id int64) error
	FindByResetHash(ctx context.Context, tokenHash string) (*domain.User, error)
}

type AuthHandler struct {
	Users    UserStore
	Tokens   *token.Service
	Mail     mailer.Service
	Bus      events.Publisher
	Validate *validator.Validate

	CookieTTL    time.Duration
	ResetTTL     time.Duration
	BaseURL      string
	SecureCookie bool
}

// sendToken delivers a fresh session token both in the body and as the
// HTTP-only cookie. The user's json tags keep the hash out of the body.
func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, user *domain.User) error {
	tok, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return response.Internal(err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().Add(h.CookieTTL),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, status, map[string]any{
		"status": "success",
		"token":  tok,
		"data":   map[string]any{"user": user},
	})
	return nil
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	var in domain.SignupRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	// mismatched passwordConfirm fails here, before any record exists
	if err := h.Validate.Struct(&in); err != nil {
		return validationError(err)
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return response.Internal(err)
	}

	name := middleware.CleanString(strings.TrimSpace(in.Name))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := h.Users.Create(r.Context(), name, email, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return response.BadRequest("email address already in use")
		}
		return response.Internal(err)
	}

	if err := h.Mail.SendWelcome(user.Email, user.Name, h.BaseURL+"/me"); err != nil {
		logger.WarnContext(r.Context(), "welcome email failed", "error", err, "user_id", user.ID)
	}
	if err := h.Bus.Publish(r.Context(), events.SubjectUserSignedUp, map[string]any{"id": user.ID, "email": user.Email}); err != nil {
		logger.WarnContext(r.Context(), "event publish failed", "error", err)
	}

	return h.sendToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var in domain.LoginRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if in.Email == "" || in.Password == "" {
		return response.BadRequest("please provide email and password")
	}

	user, err := h.Users.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return response.Internal(err)
	}
	// one message for every failure mode, nothing to enumerate accounts with
	if user == nil || !user.Active {
		return response.Unauthorized("incorrect email or password")
	}
	ok, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil {
		return response.Internal(err)
	}
	if !ok {
		return response.Unauthorized("incorrect email or password")
	}

	return h.sendToken(w, http.StatusOK, user)
}

// Logout overwrites the client cookie with a short-lived placeholder;
// tokens are stateless so there is nothing to revoke server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, map[string]string{"status": "success"})
	return nil
}

// isUniqueViolation reports a Postgres unique-constraint error; on the
// users table that can only be the email column.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func hashResetToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var in domain.ForgotPasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if err := h.Validate.Struct(&in); err != nil {
		return validationError(err)
	}

	user, err := h.Users.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return response.Internal(err)
	}
	if user == nil {
		return response.NotFound("there is no user with that email address")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return response.Internal(err)
	}
	plain := hex.EncodeToString(buf)

	// only the hash is stored; a repeat request overwrites the ticket
	if err := h.Users.SetResetTicket(r.Context(), user.ID, hashResetToken(plain), time.Now().Add(h.ResetTTL)); err != nil {
		return response.Internal(err)
	}

	resetURL := h.BaseURL + "/api/v1/users/resetPassword/" + plain
	if err := h.Mail.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		// don't leave the user with a ticket they never received
		if clearErr := h.Users.ClearResetTicket(r.Context(), user.ID); clearErr != nil {
			logger.ErrorContext(r.Context(), "failed to clear reset ticket", "error", clearErr, "user_id", user.ID)
		}
		return response.ServerError("there was an error sending the email, try again later", err)
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "token sent to email",
	})
	return nil
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	user, err := h.Users.FindByResetHash(r.Context(), hashResetToken(chi.URLParam(r, "token")))
	if err != nil {
		return response.Internal(err)
	}
	if user == nil {
		return response.InvalidToken("token is invalid or has expired")
	}

	var in domain.ResetPasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if err := h.Validate.Struct(&in); err != nil {
		return validationError(err)
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return response.Internal(err)
	}
	// clears the ticket and bumps password_changed_at in one statement
	if err := h.Users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		return response.Internal(err)
	}

	return h.sendToken(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())

	var in domain.UpdatePasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if err := h.Validate.Struct(&in); err != nil {
		return validationError(err)
	}

	ok, err := argon2id.ComparePasswordAndHash(in.PasswordCurrent, user.PasswordHash)
	if err != nil {
		return response.Internal(err)
	}
	if !ok {
		return response.Unauthorized("your current password is wrong")
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return response.Internal(err)
	}
	if err := h.Users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		return response.Internal(err)
	}

	return h.sendToken(w, http.StatusOK, user)
}
