package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/progress"
	"habitsAPI/middleware"
	"habitsAPI/services"
)

type LogHandler struct {
	logService *services.LogService
	defaultLoc *time.Location
	now        func() time.Time
}

func NewLogHandler(logService *services.LogService, defaultLoc *time.Location) *LogHandler {
	return &LogHandler{
		logService: logService,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// stepResponse is returned by increment and decrement: the entry that was
// touched, whether anything was written, and the resulting progress.
type stepResponse struct {
	Log      *habit.HabitLog    `json:"log,omitempty"`
	Changed  bool               `json:"changed"`
	Progress *progress.Progress `json:"progress"`
}

func (h *LogHandler) Increment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	uid, habitID := middleware.GetUserID(ctx), mux.Vars(r)["id"]
	loc := requestLocation(r, h.defaultLoc)

	l, err := h.logService.Increment(ctx, uid, habitID, loc)
	if err != nil {
		respondWithServiceError(w, r, "increment habit", err)
		return
	}
	h.respondWithStep(ctx, w, r, uid, habitID, loc, l, true)
}

func (h *LogHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	uid, habitID := middleware.GetUserID(ctx), mux.Vars(r)["id"]
	loc := requestLocation(r, h.defaultLoc)

	l, changed, err := h.logService.Decrement(ctx, uid, habitID, loc)
	if err != nil {
		respondWithServiceError(w, r, "decrement habit", err)
		return
	}
	h.respondWithStep(ctx, w, r, uid, habitID, loc, l, changed)
}

func (h *LogHandler) respondWithStep(ctx context.Context, w http.ResponseWriter, r *http.Request, uid, habitID string, loc *time.Location, l *habit.HabitLog, changed bool) {
	p, err := h.logService.GetProgress(ctx, uid, habitID, loc)
	if err != nil {
		respondWithServiceError(w, r, "load progress", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stepResponse{Log: l, Changed: changed, Progress: p})
}

func (h *LogHandler) LogHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req habit.LogHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.logService.LogHabit(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"], &req, requestLocation(r, h.defaultLoc))
	if err != nil {
		respondWithServiceError(w, r, "log habit", err)
		return
	}

	respondWithJSON(w, http.StatusOK, l)
}

// SetDayValue handles PUT /habits/{id}/logs/{date} with date as YYYY-MM-DD
// in the caller's timezone.
func (h *LogHandler) SetDayValue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	loc := requestLocation(r, h.defaultLoc)
	vars := mux.Vars(r)

	day, err := time.ParseInLocation(time.DateOnly, vars["date"], loc)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Date must be formatted as YYYY-MM-DD")
		return
	}

	var req habit.SetDayValueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.logService.SetDayValue(ctx, middleware.GetUserID(ctx), vars["id"], day, req.Value, loc)
	if err != nil {
		respondWithServiceError(w, r, "set day value", err)
		return
	}

	respondWithJSON(w, http.StatusOK, l)
}

func (h *LogHandler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req habit.UpdateLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.logService.UpdateLog(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"], req.Value)
	if err != nil {
		respondWithServiceError(w, r, "update log", err)
		return
	}

	respondWithJSON(w, http.StatusOK, l)
}

func (h *LogHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.logService.GetProgress(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"], requestLocation(r, h.defaultLoc))
	if err != nil {
		respondWithServiceError(w, r, "load progress", err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *LogHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.logService.ListProgress(ctx, middleware.GetUserID(ctx), requestLocation(r, h.defaultLoc))
	if err != nil {
		respondWithServiceError(w, r, "load progress", err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

// GetHistory serves one calendar month, defaulting to the current one.
func (h *LogHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	loc := requestLocation(r, h.defaultLoc)
	now := h.now().In(loc)
	year, month := now.Year(), now.Month()

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'year' query parameter")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'month' query parameter")
			return
		}
		month = time.Month(m)
	}

	hist, err := h.logService.GetHistory(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"], year, month, loc)
	if err != nil {
		respondWithServiceError(w, r, "load history", err)
		return
	}

	respondWithJSON(w, http.StatusOK, hist)
}
