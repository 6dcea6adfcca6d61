package todos

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-todo/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// TodoService is the behaviour the handler needs from Service.
type TodoService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (Todo, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Todo, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (Todo, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Todo, error)
	SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (Completion, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// Handler exposes todo endpoints. Routes must sit behind auth.Guard.
type Handler struct {
	logger  *slog.Logger
	service TodoService
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service TodoService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers todo routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Patch("/complete", h.complete)
	})
}

type createRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

type updateRequest struct {
	Title       *string        `json:"title"`
	Description optionalString `json:"description"`
	Completed   *bool          `json:"completed"`
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	todo, err := h.service.Create(r.Context(), owner, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, todo)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	todo, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, todo)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	todo, err := h.service.Update(r.Context(), owner, id, UpdateInput{
		Title:          req.Title,
		Description:    req.Description.Value,
		DescriptionSet: req.Description.Set,
		Completed:      req.Completed,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, todo)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	completed, err := completionValue(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.SetCompletion(r.Context(), owner, id, completed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// completionValue reads {"completed": bool} from the body, falling back to
// the ?completed= query parameter. The body wins when both are present.
func completionValue(r *http.Request) (bool, error) {
	var req completeRequest
	err := httpx.DecodeJSON(r, &req)
	switch {
	case err == nil && req.Completed != nil:
		return *req.Completed, nil
	case err != nil && !errors.Is(err, httpx.ErrEmptyBody):
		return false, err
	}
	raw := r.URL.Query().Get("completed")
	if raw == "" {
		return false, shared.Errorf(shared.ErrValidation, "completed is required")
	}
	v, perr := strconv.ParseBool(raw)
	if perr != nil {
		return false, shared.Errorf(shared.ErrValidation, "completed must be a boolean")
	}
	return v, nil
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, shared.ErrUnauthenticated.Error())
		return uuid.Nil, false
	}
	return id.UserID, true
}

// target resolves the caller and the {id} path parameter. A malformed id
// cannot name any row, so it answers 404 like an absent one.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("todo request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err)
}
