package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/talentline/apiserver/config"
	"github.com/talentline/apiserver/internal/auth"
	"github.com/talentline/apiserver/internal/db"
	"github.com/talentline/apiserver/internal/handlers"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/mq"
	"github.com/talentline/apiserver/internal/ratelimit"
	"github.com/talentline/apiserver/internal/services"
	"github.com/talentline/apiserver/internal/storage"
	"github.com/talentline/apiserver/internal/store"
)

// Server wraps the HTTP server, its router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	redis      *redis.Client
}

// New constructs a Server from cfg. Object storage, the message queue and
// Redis are optional; when one is not configured the features that need
// it degrade instead of failing startup.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	issuer, err := auth.NewIssuer(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	s := &Server{db: dbConn}

	var verifier services.IdentityVerifier = auth.DisabledVerifier{}
	if cfg.Firebase.ProjectID != "" {
		firebase, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("firebase verifier: %w", err)
		}
		verifier = firebase
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set, third-party sign in disabled")
	}

	var objects services.ObjectStore
	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	if objectStore != nil {
		objects = objectStore
		logger.Info("resume storage enabled", "backend", objectStore.Name(), "bucket", objectStore.Bucket())
	} else {
		logger.Warn("STORAGE_BACKEND not set, resume uploads disabled")
	}

	var publisher services.EventPublisher
	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("mq: %w", err)
	}
	if broker != nil {
		s.mq = broker
		publisher = broker
		logger.Info("application events enabled", "backend", broker.Name(), "channel", cfg.MQ.Channel)
	}

	var limiter handlers.RateLimiter
	redisClient, err := ratelimit.Connect(ctx, cfg.Redis)
	if err != nil {
		// Rate limiting is best effort; the API stays up without it.
		logger.Warn("rate limiting disabled", "error", err)
	}
	if redisClient != nil {
		s.redis = redisClient
		l, err := ratelimit.New(redisClient, cfg.RateLimit.Attempts, cfg.RateLimit.Window)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		limiter = l
	}

	userRepo := store.NewUserRepository(dbConn)
	jobRepo := store.NewJobRepository(dbConn)
	appRepo := store.NewApplicationRepository(dbConn)
	favoriteRepo := store.NewFavoriteRepository(dbConn)
	resumeRepo := store.NewResumeRepository(dbConn)
	analyticsRepo := store.NewAnalyticsRepository(dbConn)

	authService := services.NewAuthService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), issuer, verifier)
	jobService := services.NewJobService(jobRepo)
	appService := services.NewApplicationService(appRepo, jobRepo, publisher, cfg.MQ.Channel)
	favoriteService := services.NewFavoriteService(favoriteRepo, jobRepo)
	resumeService := services.NewResumeService(resumeRepo, objects, cfg.Storage.MaxResumeBytes)
	analyticsService := services.NewAnalyticsService(analyticsRepo)

	requireAuth := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Get("/health", handlers.Health)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authService, limiter)
		})
		r.Route("/jobs", func(r chi.Router) {
			handlers.JobRouter(r, jobService, appService, requireAuth)
		})
		r.Route("/applications", func(r chi.Router) {
			handlers.ApplicationRouter(r, appService, requireAuth)
		})
		r.Route("/favorites", func(r chi.Router) {
			handlers.FavoriteRouter(r, favoriteService, requireAuth)
		})
		r.Route("/resumes", func(r chi.Router) {
			handlers.ResumeRouter(r, resumeService, cfg.Storage.MaxResumeBytes, requireAuth)
		})
		r.Route("/analytics", func(r chi.Router) {
			handlers.AnalyticsRouter(r, analyticsService, requireAuth)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the connections
// the server owns.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.mq != nil {
		_ = s.mq.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
