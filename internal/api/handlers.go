package api

import (
	"context"
	"net/http"
	"time"

	"github.com/limbo/habitstreak/internal/service"
	"github.com/limbo/habitstreak/pkg/entity"
	"github.com/limbo/habitstreak/pkg/httputil"
)

const requestTimeout = 10 * time.Second

type RegisterRequest struct {
	Name     string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Name     string `json:"username"`
	Password string `json:"password"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message     string       `json:"message,omitempty"`
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "registering", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := s.userService.Register(ctx, &service.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, logger, "registering", err)
		return
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		writeServiceError(w, logger, "registering: generating token", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, AuthResponse{
		Message:     "User created successfully",
		AccessToken: token,
		User:        toUserResponse(user),
	})
	logger.Info("successful registration")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "login", err)
		return
	}
	if req.Name == "" || req.Password == "" {
		logger.Info("login error: missing credentials")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Missing username or password", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := s.userService.Login(ctx, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, logger, "login", err)
		return
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		writeServiceError(w, logger, "login: generating token", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, AuthResponse{
		AccessToken: token,
		User:        toUserResponse(user),
	})
	logger.Info("successful login")
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		writeUnauthorized(w, logger, "account deletion")
		return
	}
	var req DeleteAccountRequest
	if err = httputil.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w, logger, "account deletion", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err = s.userService.DeleteAccount(ctx, uid, req.Password); err != nil {
		writeServiceError(w, logger, "account deletion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
	logger.Info("account deleted")
}

func toUserResponse(u *entity.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Username: u.Name, Email: u.Email}
}
