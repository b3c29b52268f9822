package audit

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/httpx"
	"github.com/festahub/festahub/internal/reqctx"
)

// Handler serves the audit timeline endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
	r.Get("/export", h.export)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rc := reqctx.FromContext(r.Context())
	result, err := h.service.Timeline(r.Context(), rc, filters)
	if err != nil {
		h.respondErr(w, r, "audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": toResponses(result.Rows),
		"paging":  toPaging(result.Paging),
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rc := reqctx.FromContext(r.Context())
	data, err := h.service.ExportCSV(r.Context(), rc, filters)
	if err != nil {
		h.respondErr(w, r, "audit export", err)
		return
	}
	name := fmt.Sprintf("audit-%s.csv", time.Now().Format("20060102"))
	httpx.Attachment(w, name, "text/csv", bytes.NewReader(data))
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	filters := TimelineFilters{
		ActorID: q.Get("actor"),
		Entity:  q.Get("entity"),
		Action:  q.Get("action"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return TimelineFilters{}, fmt.Errorf("invalid from timestamp")
		}
		filters.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return TimelineFilters{}, fmt.Errorf("invalid to timestamp")
		}
		filters.To = t
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return TimelineFilters{}, fmt.Errorf("invalid page")
		}
		filters.Page = page
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return TimelineFilters{}, fmt.Errorf("invalid page_size")
		}
		filters.PageSize = size
	}
	return filters, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, reqctx.ErrUserNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
