package invitations

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

// Handler manages invitation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invitation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/receive", h.receive)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	items, err := h.service.List(r.Context(), rc)
	if err != nil {
		h.respondErr(w, r, "list invitations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invitations": toResponses(items)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	position, err := ParsePosition(req.Position)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rc := reqctx.FromContext(r.Context())
	inv, err := h.service.Create(r.Context(), rc, CreateInput{
		Position:  position,
		ProjectID: req.ProjectID,
		Email:     req.Email,
	})
	if err != nil {
		h.respondErr(w, r, "create invitation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*inv))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	inv, err := h.service.Get(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "get invitation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*inv))
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	inv, err := h.service.Receive(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "receive invitation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*inv))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), rc, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, r, "delete invitation", err)
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
	case errors.Is(err, ErrAlreadyUsed), errors.Is(err, ErrPositionTaken):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotProjectOwner):
		httpx.Problem(w, http.StatusBadRequest, "No Project", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
