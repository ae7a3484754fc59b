package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/limbo/habitstreak/internal/service"
	"github.com/limbo/habitstreak/pkg/entity"
	"github.com/limbo/habitstreak/pkg/httputil"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type GetHabitsResponse struct {
	UserID string                `json:"uid"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
	Habits []*entity.HabitStatus `json:"habits"`
}

type CompleteHabitRequest struct {
	Notes string `json:"notes"`
}

type CompleteHabitResponse struct {
	Message string `json:"message"`
	*entity.CompletionResult
}

type CompletionsResponse struct {
	HabitID     string              `json:"habit_id"`
	Completions []entity.Completion `json:"completions"`
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "create habit")
		return
	}
	var req service.CreateHabitRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "create habit", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.CreateHabit(ctx, uid, &req)
	if err != nil {
		writeServiceError(w, logger, "create habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("habit created")
}

func (s *Server) GetHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "get habits")
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habits, err := s.habitsService.GetUserHabits(ctx, uid, service.PaginationOpts{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeServiceError(w, logger, "get habits", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetHabitsResponse{
		UserID: uid.String(),
		Page:   page,
		Limit:  limit,
		Habits: habits,
	})
	logger.Info("habits provided")
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "update habit")
		return
	}
	id, ok := habitIDParam(w, r)
	if !ok {
		return
	}
	var req service.UpdateHabitRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "update habit", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.UpdateHabit(ctx, id, uid, &req)
	if err != nil {
		writeServiceError(w, logger, "update habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("habit updated")
}

func (s *Server) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "habit deletion")
		return
	}
	id, ok := habitIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err = s.habitsService.DeleteHabit(ctx, id, uid); err != nil {
		writeServiceError(w, logger, "habit deletion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, MessageResponse{Message: "Habit deleted successfully"})
	logger.Info("habit deleted")
}

func (s *Server) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "habit completion")
		return
	}
	id, ok := habitIDParam(w, r)
	if !ok {
		return
	}
	// Body is optional
	var req CompleteHabitRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err = httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
			writeInvalidBody(w, logger, "habit completion", err)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	result, err := s.streakService.CompleteHabit(ctx, id, uid, req.Notes)
	if err != nil {
		writeServiceError(w, logger, "habit completion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, CompleteHabitResponse{
		Message:          "Habit completed successfully",
		CompletionResult: result,
	})
	logger.Info("habit completed")
}

// GetHabitCompletions accepts optional from/to query params as dates or RFC 3339 timestamps.
func (s *Server) GetHabitCompletions(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "habit completions")
		return
	}
	id, ok := habitIDParam(w, r)
	if !ok {
		return
	}
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid from parameter", err)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid to parameter", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	completions, err := s.streakService.GetHabitCompletions(ctx, id, uid, from, to)
	if err != nil {
		writeServiceError(w, logger, "habit completions", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, CompletionsResponse{
		HabitID:     id.String(),
		Completions: completions,
	})
}

func habitIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		GetLoggerFromCtx(r.Context()).Info("invalid habit id", slog.String("id", chi.URLParam(r, "id")))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD or RFC 3339 time")
	}
	return t.UTC(), nil
}
