package files

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/httpx"
	"github.com/festahub/festahub/internal/reqctx"
)

// maxUploadBytes caps one upload at 32 MiB.
const maxUploadBytes = 32 << 20

// Handler manages file endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/public", h.listPublic)
	r.Get("/project/{projectID}", h.listByProject)
	r.Get("/project/{projectID}/export", h.export)
	r.Get("/{id}", h.get)
	r.Get("/{id}/download", h.download)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "missing file field")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	rc := reqctx.FromContext(r.Context())
	f, err := h.service.Register(r.Context(), rc, header.Filename, mimeType, header.Size, file)
	if err != nil {
		h.respondErr(w, r, "upload file", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*f))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	f, err := h.service.Get(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "get file", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*f))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	f, body, err := h.service.Download(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "download file", err)
		return
	}
	defer body.Close()
	httpx.Attachment(w, f.Name, f.MimeType, body)
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	items, err := h.service.ListPublic(r.Context(), rc)
	if err != nil {
		h.respondErr(w, r, "list public files", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": toResponses(items)})
}

func (h *Handler) listByProject(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	items, err := h.service.ListByProject(r.Context(), rc, chi.URLParam(r, "projectID"))
	if err != nil {
		h.respondErr(w, r, "list project files", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": toResponses(items)})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	body, name, err := h.service.ExportProjectFiles(r.Context(), rc, chi.URLParam(r, "projectID"))
	if err != nil {
		h.respondErr(w, r, "export project files", err)
		return
	}
	defer body.Close()
	httpx.Attachment(w, name, "application/zip", body)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), rc, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, r, "delete file", err)
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
	case errors.Is(err, ErrNoProject):
		httpx.Problem(w, http.StatusBadRequest, "No Project", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
