package api

import (
	"errors"
	"log/slog"
	"net/http"

	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/pkg/httputil"
)

// writeServiceError maps service sentinels to HTTP statuses. op prefixes log lines.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrValidation):
		logger.Info(op+" error: validation", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, errorvalues.ErrAlreadyCompleted):
		logger.Info(op + " error: target already met")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Habit already completed for today", nil)
	case errors.Is(err, errorvalues.ErrHabitNotFound), errors.Is(err, errorvalues.ErrWrongOwner):
		logger.Info(op + " error: habit not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "Habit not found", nil)
	case errors.Is(err, errorvalues.ErrUserNotFound):
		logger.Info(op + " error: user not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, errorvalues.ErrUserExists):
		logger.Info(op + " error: existed user")
		httputil.WriteErrorResponse(w, http.StatusConflict, "Username already exists", nil)
	case errors.Is(err, errorvalues.ErrEmailExists):
		logger.Info(op + " error: existed email")
		httputil.WriteErrorResponse(w, http.StatusConflict, "Email already exists", nil)
	case errors.Is(err, errorvalues.ErrWrongCredentials):
		logger.Info(op + " error: wrong credentials")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeInvalidBody(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Info(op+" error: invalid body", slog.String("error", err.Error()))
	httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
}

func writeUnauthorized(w http.ResponseWriter, logger *slog.Logger, op string) {
	logger.Error(op + " error: unauthorized")
	httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
}
