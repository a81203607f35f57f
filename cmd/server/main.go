package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/jusunglee/departures-go/api/handlers"
	"github.com/jusunglee/departures-go/internal/config"
	"github.com/jusunglee/departures-go/internal/metrics"
	"github.com/jusunglee/departures-go/internal/store"
	"github.com/jusunglee/departures-go/internal/transmit"
	"github.com/jusunglee/departures-go/pkg/departures"
)

func main() {
	var (
		configFile   = flag.String("config", "", "YAML config file")
		port         = flag.Int("port", 0, "Server port (overrides config)")
		apiKey       = flag.String("transitland-api-key", "", "Transitland API key (overrides config)")
		transseeUser = flag.String("transsee-user", "", "TransSee user id (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *apiKey != "" {
		cfg.TransitlandAPIKey = *apiKey
	}
	if *transseeUser != "" {
		cfg.TransSeeUserID = *transseeUser
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	collector := metrics.NewCollector()

	var stopCache store.StopCache = store.NewStore()
	if cfg.StorePath != "" {
		db, err := store.OpenSQLite(context.Background(), cfg.StorePath)
		if err != nil {
			logger.Error("Failed to open store", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		stopCache = db
		logger.Info("Using SQLite stop store", "path", cfg.StorePath)
	}

	var transmitter transmit.Transmitter = transmit.NewLog(logger)
	if cfg.NATSURL != "" {
		nc, err := transmit.NewNATS(transmit.NATSConfig{
			URL:           cfg.NATSURL,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Retries:       cfg.Retries,
			Metrics:       collector,
		})
		if err != nil {
			logger.Error("Failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		transmitter = nc
		logger.Info("Publishing records to NATS", "url", cfg.NATSURL, "prefix", cfg.NATSSubjectPrefix)
	}

	client, err := departures.NewLocal(*cfg,
		departures.WithLogger(logger),
		departures.WithStore(stopCache),
		departures.WithTransmitter(transmitter),
		departures.WithMetrics(collector),
	)
	if err != nil {
		logger.Error("Failed to create departures client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// Create HTTP server
	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)
	r.Handle("/metrics", collector.Handler()).Methods("GET")

	r.Use(loggingMiddleware(logger))

	// cors wraps the router so preflight requests never reach route matching
	handler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})(r)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout * time.Duration(cfg.Retries+2),
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("Request", "method", r.Method, "uri", r.RequestURI, "duration", time.Since(start))
		})
	}
}
