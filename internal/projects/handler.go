package projects

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/httpx"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// Handler manages project endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/me", h.mine)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	result, withRemarks, err := h.service.List(r.Context(), rc)
	if err != nil {
		h.respondErr(w, r, "list projects", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": toResponses(result, withRemarks)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	category, attrs, err := parseAudience(req.Category, req.Attributes)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rc := reqctx.FromContext(r.Context())
	p, err := h.service.Create(r.Context(), rc, CreateInput{
		Title:         req.Title,
		KanaTitle:     req.KanaTitle,
		GroupName:     req.GroupName,
		KanaGroupName: req.KanaGroupName,
		Category:      category,
		Attributes:    attrs,
	})
	if err != nil {
		h.respondErr(w, r, "create project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*p, false))
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	p, withRemarks, err := h.service.Mine(r.Context(), rc)
	if err != nil {
		h.respondErr(w, r, "get own project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*p, withRemarks))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	p, withRemarks, err := h.service.Get(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "get project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*p, withRemarks))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	category, attrs, err := parseAudience(req.Category, req.Attributes)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rc := reqctx.FromContext(r.Context())
	p, err := h.service.Update(r.Context(), rc, chi.URLParam(r, "id"), UpdateInput{
		Title:         req.Title,
		KanaTitle:     req.KanaTitle,
		GroupName:     req.GroupName,
		KanaGroupName: req.KanaGroupName,
		Category:      category,
		Attributes:    attrs,
		Remarks:       req.Remarks,
	})
	if err != nil {
		h.respondErr(w, r, "update project", err)
		return
	}
	viewer, err := rc.Viewer(r.Context())
	if err != nil {
		h.respondErr(w, r, "update project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*p, p.RemarksVisibleTo(viewer)))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), rc, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, r, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, reqctx.ErrUserNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyOwner), errors.Is(err, ErrSubOwnerTaken):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrOutsideWindow):
		httpx.Problem(w, http.StatusForbidden, "Outside Application Period", "")
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
