package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitsAPI/handlers"
	"habitsAPI/internal/config"
	"habitsAPI/internal/firebaseapp"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/store"
	"habitsAPI/internal/store/backend"
	"habitsAPI/middleware"
	"habitsAPI/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON}); err != nil {
		logger.Fatal("failed to initialize logger", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var app *firebase.App
	if cfg.NeedsFirebase() {
		app, err = firebaseapp.New(ctx, cfg.FirebaseCredentialsB64, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
		if err != nil {
			logger.Fatal("failed to initialize firebase", "error", err)
		}
	}

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		logger.Fatal("failed to initialize auth", "error", err)
	}

	st, err := backend.Open(ctx, cfg, app)
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer func() {
		logger.Info("closing store")
		if err := st.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	metrics.Register(prometheus.DefaultRegisterer)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go limiter.CleanupVisitors(cleanupCtx)

	r := newRouter(cfg, st, verifier, limiter)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Timezone"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr, "store", cfg.StoreBackend, "auth", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("error starting server", "error", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server shutdown complete")
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (middleware.Verifier, error) {
	switch cfg.AuthProvider {
	case config.AuthLocal:
		logger.Warn("local token auth enabled")
		return middleware.LocalVerifier{Secret: []byte(cfg.LocalAuthSecret)}, nil
	case config.AuthFirebase:
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("firebase auth initialized")
		return middleware.FirebaseVerifier{Client: client}, nil
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	logger.Info("clerk initialized")
	return middleware.ClerkVerifier{}, nil
}

func newRouter(cfg *config.Config, st store.Store, verifier middleware.Verifier, limiter *middleware.RateLimiter) *mux.Router {
	habitService := services.NewHabitService(st)
	logService := services.NewLogService(st)
	progressService := services.NewProgressService(st)
	userService := services.NewUserService(st)

	habitHandler := handlers.NewHabitHandler(habitService)
	logHandler := handlers.NewLogHandler(logService, cfg.DefaultTimezone)
	liveHandler := handlers.NewLiveHandler(progressService, habitService, cfg.DefaultTimezone)
	userHandler := handlers.NewUserHandler()
	webhookHandler := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)

	auth := middleware.AuthMiddleware(verifier)

	r := mux.NewRouter()

	// The websocket route stays outside the monitor middleware, whose
	// response writer cannot be hijacked.
	wsAuth := middleware.WebsocketAuthMiddleware(verifier)
	r.Handle("/api/v1/habits/{id}/live", limiter.Middleware(wsAuth(http.HandlerFunc(liveHandler.Live)))).Methods("GET")

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := st.Ping(ctx); err != nil {
			logger.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "store unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "habits-api"}`))
	}).Methods("GET")

	if cfg.ClerkWebhookSecret != "" {
		standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	} else {
		logger.Warn("CLERK_WEBHOOK_SECRET not set, clerk webhooks disabled")
	}

	protected := standardRouter.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth)

	protected.HandleFunc("/me", userHandler.Me).Methods("GET")

	// Static segments first so "order" and "progress" are not taken as ids.
	protected.HandleFunc("/habits/order", habitHandler.ReorderHabits).Methods("PUT")
	protected.HandleFunc("/habits/progress", logHandler.ListProgress).Methods("GET")

	protected.HandleFunc("/habits", habitHandler.ListHabits).Methods("GET")
	protected.HandleFunc("/habits", habitHandler.AddHabit).Methods("POST")
	protected.HandleFunc("/habits/{id}", habitHandler.GetHabit).Methods("GET")
	protected.HandleFunc("/habits/{id}", habitHandler.UpdateHabit).Methods("PATCH")
	protected.HandleFunc("/habits/{id}", habitHandler.DeleteHabit).Methods("DELETE")

	protected.HandleFunc("/habits/{id}/progress", logHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/habits/{id}/increment", logHandler.Increment).Methods("POST")
	protected.HandleFunc("/habits/{id}/decrement", logHandler.Decrement).Methods("POST")
	protected.HandleFunc("/habits/{id}/logs", logHandler.LogHabit).Methods("POST")
	protected.HandleFunc("/habits/{id}/logs/{date}", logHandler.SetDayValue).Methods("PUT")
	protected.HandleFunc("/habits/{id}/history", logHandler.GetHistory).Methods("GET")

	protected.HandleFunc("/logs/{id}", logHandler.UpdateLog).Methods("PATCH")

	return r
}
