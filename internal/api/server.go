package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/limbo/habitstreak/internal/metrics"
	"github.com/limbo/habitstreak/internal/service"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	mx               *chi.Mux
	userService      service.UserServiceI
	habitsService    service.HabitsServiceI
	streakService    service.StreakServiceI
	statsService     service.StatsServiceI
	assistantService service.AssistantServiceI
	jwtService       JWTServiceI
	aiLimiter        *RateLimiter
	allowedOrigins   []string
}

type ServicesList struct {
	UserService      service.UserServiceI
	HabitsService    service.HabitsServiceI
	StreakService    service.StreakServiceI
	StatsService     service.StatsServiceI
	AssistantService service.AssistantServiceI
	JwtService       JWTServiceI
	// Limits AI routes per user. Nil disables limiting.
	AILimiter *RateLimiter
	// Origins allowed by CORS in addition to the local frontend.
	AllowedOrigins []string
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:               chi.NewMux(),
		userService:      servicesOptions.UserService,
		habitsService:    servicesOptions.HabitsService,
		streakService:    servicesOptions.StreakService,
		statsService:     servicesOptions.StatsService,
		assistantService: servicesOptions.AssistantService,
		jwtService:       servicesOptions.JwtService,
		aiLimiter:        servicesOptions.AILimiter,
		allowedOrigins:   append([]string{defaultFrontendOrigin}, servicesOptions.AllowedOrigins...),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mx.Use(metrics.InstrumentHandler)
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)
	s.mx.Use(s.CORSMiddleware)

	s.mx.Get("/api/health", s.Health)
	s.mx.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.mx.Route("/api", func(r chi.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)
			r.Use(s.LoggerExtensionMiddleware)

			r.Delete("/account", s.DeleteAccount)

			r.Route("/habits", func(r chi.Router) {
				r.Get("/", s.GetHabits)
				r.Post("/", s.CreateHabit)
				r.Put("/{id}", s.UpdateHabit)
				r.Delete("/{id}", s.DeleteHabit)
				r.Post("/{id}/complete", s.CompleteHabit)
				r.Get("/{id}/completions", s.GetHabitCompletions)
			})

			r.Get("/stats", s.GetStats)
			r.Get("/stats/streak", s.GetCurrentStreak)
			r.Get("/streak", s.GetCurrentStreak)

			r.Route("/ai", func(r chi.Router) {
				if s.aiLimiter != nil {
					r.Use(s.aiLimiter.Handler)
				}
				r.Post("/suggestions", s.Suggest)
				r.Post("/generate-habits", s.GenerateHabits)
				r.Get("/insights", s.Insights)
				r.Post("/chat", s.Chat)
				r.Get("/chat/history", s.ChatHistory)
			})
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server started", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New("serving error: " + err.Error())
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("api server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("server shutdown error: " + err.Error())
	}
	return nil
}
