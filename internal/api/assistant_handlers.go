package api

import (
	"context"
	"net/http"
	"time"

	"github.com/limbo/habitstreak/pkg/entity"
	"github.com/limbo/habitstreak/pkg/httputil"
)

// Model calls retry with backoff, so assistant routes get a longer budget.
const assistantTimeout = 30 * time.Second

type QueryRequest struct {
	Query string `json:"query"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

type GeneratedHabitsResponse struct {
	Habits []entity.HabitSuggestion `json:"habits"`
}

type ChatResponse struct {
	Assistant *entity.ChatMessage `json:"assistant"`
}

type InsightResponse struct {
	Insight string `json:"insight"`
}

func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "ai suggestion")
		return
	}
	var req QueryRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "ai suggestion", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()
	text, err := s.assistantService.Suggest(ctx, uid, req.Query)
	if err != nil {
		writeServiceError(w, logger, "ai suggestion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, SuggestionResponse{Suggestion: text})
}

func (s *Server) GenerateHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "ai habit generation")
		return
	}
	var req QueryRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "ai habit generation", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()
	habits, err := s.assistantService.GenerateHabits(ctx, uid, req.Query)
	if err != nil {
		writeServiceError(w, logger, "ai habit generation", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GeneratedHabitsResponse{Habits: habits})
}

func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "ai chat")
		return
	}
	var req ChatRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "ai chat", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()
	reply, err := s.assistantService.Chat(ctx, uid, req.Message)
	if err != nil {
		writeServiceError(w, logger, "ai chat", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, ChatResponse{Assistant: reply})
}

func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "ai chat history")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	history, err := s.assistantService.ChatHistory(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "ai chat history", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, history)
}

func (s *Server) Insights(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "ai insights")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()
	insight, err := s.assistantService.Insights(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "ai insights", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, InsightResponse{Insight: insight})
}
