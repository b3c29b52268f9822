package news

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/httpx"
	"github.com/festahub/festahub/internal/reqctx"
)

// Handler manages announcement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers announcement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	items, err := h.service.List(r.Context(), rc)
	if err != nil {
		h.respondErr(w, r, "list news", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"news": toResponses(items)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	rc := reqctx.FromContext(r.Context())
	n, err := h.service.Create(r.Context(), rc, in)
	if err != nil {
		h.respondErr(w, r, "create news", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*n))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	n, err := h.service.Get(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "get news", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*n))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	rc := reqctx.FromContext(r.Context())
	n, err := h.service.Update(r.Context(), rc, chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondErr(w, r, "update news", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*n))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), rc, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, r, "delete news", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req NewsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return Input{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Input{}, false
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Input{}, false
	}
	return in, true
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, reqctx.ErrUserNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
