package formanswers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/platform/httpx"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// Handler manages form submission endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers submission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Get("/form/{formID}", h.listByForm)
	r.Get("/form/{formID}/me", h.mine)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnswerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rc := reqctx.FromContext(r.Context())
	a, err := h.service.Create(r.Context(), rc, req.FormID, req.Items)
	if err != nil {
		h.respondErr(w, r, "create form answer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*a))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	a, err := h.service.Get(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "get form answer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*a))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAnswerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rc := reqctx.FromContext(r.Context())
	a, err := h.service.Update(r.Context(), rc, chi.URLParam(r, "id"), req.Items)
	if err != nil {
		h.respondErr(w, r, "update form answer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*a))
}

func (h *Handler) listByForm(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	answers, err := h.service.ListByForm(r.Context(), rc, chi.URLParam(r, "formID"))
	if err != nil {
		h.respondErr(w, r, "list form answers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"answers": toResponses(answers)})
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	a, err := h.service.Mine(r.Context(), rc, chi.URLParam(r, "formID"))
	if err != nil {
		h.respondErr(w, r, "get own form answer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*a))
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, forms.ErrNotFound), errors.Is(err, reqctx.ErrUserNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrNotTargeted):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, ErrAlreadyAnswered):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidAnswers):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrOutsideWindow):
		httpx.Problem(w, http.StatusForbidden, "Outside Answer Period", "")
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
