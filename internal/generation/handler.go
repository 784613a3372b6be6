package generation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/handlers"
	"github.com/JaimeStill/merit/pkg/routes"
)

var (
	errInvalidID    = errors.New("invalid id")
	errInvalidStart = errors.New("start must be RFC3339")
	errInvalidDate  = errors.New("start must be YYYY-MM-DD")
)

// Handler provides HTTP endpoints that trigger score generation and ranking.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "generation"),
	}
}

// Routes returns the route group definition for generation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/generation",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.GenerateAll},
			{Method: "POST", Pattern: "/teachers/{teacherId}", Handler: h.GenerateOne},
			{Method: "POST", Pattern: "/rank", Handler: h.Rank},
			{Method: "GET", Pattern: "/reports/{period}/{start}/{runId}", Handler: h.Report},
		},
	}
}

// GenerateOne scores a single teacher. The period query parameter selects the
// period type; custom periods also take RFC3339 start and end parameters.
func (h *Handler) GenerateOne(w http.ResponseWriter, r *http.Request) {
	teacherID, err := uuid.Parse(r.PathValue("teacherId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	q := r.URL.Query()
	periodType, err := scoring.ParsePeriodType(q.Get("period"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if periodType != scoring.PeriodCustom {
		rec, err := h.sys.GenerateOne(r.Context(), teacherID, periodType)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusCreated, rec)
		return
	}

	start, errStart := time.Parse(time.RFC3339, q.Get("start"))
	end, errEnd := time.Parse(time.RFC3339, q.Get("end"))
	if errStart != nil || errEnd != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidStart)
		return
	}

	period, err := scoring.CustomPeriod(start, end)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.GenerateOneFor(r.Context(), teacherID, period)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, rec)
}

// GenerateAll runs a batch and returns its report. A ranking failure after
// the batch still returns the report, with a server error status.
func (h *Handler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	var cmd GenerateAllCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCommand)
		return
	}

	if _, err := scoring.ParsePeriodType(string(cmd.PeriodType)); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	report, err := h.sys.GenerateAll(r.Context(), cmd)
	if err != nil {
		if report == nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		h.logger.Error("batch ranking failed", "run_id", report.RunID, "error", err)
		handlers.RespondJSON(w, MapHTTPStatus(err), report)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// Rank re-ranks the cohort given by the period and RFC3339 start parameters.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	periodType, err := scoring.ParsePeriodType(q.Get("period"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidStart)
		return
	}

	result, err := h.sys.Rank(r.Context(), periodType, start)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Report returns an archived batch report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	periodType, err := scoring.ParsePeriodType(r.PathValue("period"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	start, err := time.Parse(time.DateOnly, r.PathValue("start"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidDate)
		return
	}

	runID, err := uuid.Parse(r.PathValue("runId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return
	}

	report, err := h.sys.Report(r.Context(), periodType, start, runID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}
