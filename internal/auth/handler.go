package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-todo/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// AuthService is the behaviour the handler needs from Service.
type AuthService interface {
	Signup(ctx context.Context, in Credentials) (Session, error)
	Signin(ctx context.Context, in Credentials) (Session, error)
	Signout(ctx context.Context) error
}

// EventRecorder counts auth outcomes.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service AuthService
	events  EventRecorder
}

// NewHandler constructs a Handler instance. events may be nil.
func NewHandler(logger *slog.Logger, service AuthService, events EventRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, events: events}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/signin", h.handleSignin)
	r.Post("/signout", h.handleSignout)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.record("signup", err)
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.service.Signup(r.Context(), Credentials{Email: req.Email, Password: req.Password})
	h.record("signup", err)
	if err != nil {
		h.fail(w, r, "signup", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.record("signin", err)
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.service.Signin(r.Context(), Credentials{Email: req.Email, Password: req.Password})
	h.record("signin", err)
	if err != nil {
		h.fail(w, r, "signin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleSignout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Signout(r.Context()); err != nil {
		h.fail(w, r, "signout", err)
		return
	}
	h.record("signout", nil)
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isInternal(err) {
		h.logger.Error(op+" failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) record(event string, err error) {
	if h.events == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrValidation), errors.Is(err, httpx.ErrEmptyBody):
		outcome = "invalid"
	case errors.Is(err, shared.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, shared.ErrInvalidCredentials):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	h.events.RecordAuthEvent(event, outcome)
}

func isInternal(err error) bool {
	for _, kind := range []error{shared.ErrValidation, shared.ErrConflict, shared.ErrInvalidCredentials, shared.ErrUnauthenticated, shared.ErrNotFound, httpx.ErrEmptyBody} {
		if errors.Is(err, kind) {
			return false
		}
	}
	return true
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		User:  userResponse{ID: s.User.ID.String(), Email: s.User.Email},
		Token: s.Token,
	}
}
