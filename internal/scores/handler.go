package scores

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/handlers"
	"github.com/JaimeStill/merit/pkg/pagination"
	"github.com/JaimeStill/merit/pkg/routes"
)

var (
	errInvalidID     = errors.New("invalid id")
	errInvalidCohort = errors.New("cohort requires period and RFC3339 start")
)

// Handler provides HTTP endpoints for score record operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "scores"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for score endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/scores",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/cohort", Handler: h.Cohort},
			{Method: "GET", Pattern: "/teacher/{teacherId}", Handler: h.History},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/review", Handler: h.Review},
			{Method: "PUT", Pattern: "/{id}/goals", Handler: h.UpdateGoals},
		},
	}
}

// List returns a paginated list of records with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// History returns a teacher's records, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	teacherID, err := uuid.Parse(r.PathValue("teacherId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	filters.TeacherID = &teacherID

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Cohort returns the current records of one period in generation order.
func (h *Handler) Cohort(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	periodType, err := scoring.ParsePeriodType(q.Get("period"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidCohort)
		return
	}

	cohort, err := h.sys.Cohort(r.Context(), periodType, start)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cohort)
}

// Find returns a single record by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Review applies an administrator review to a record.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	var cmd ReviewCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidReview)
		return
	}

	rec, err := h.sys.Review(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// UpdateGoals applies a teacher's goal update to a record.
func (h *Handler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	var cmd GoalsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidGoals)
		return
	}

	rec, err := h.sys.UpdateGoals(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}
