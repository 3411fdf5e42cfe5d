// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatherly/gatherly/internal/audit"
	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/internal/metrics"
	"github.com/gatherly/gatherly/internal/service"
	"github.com/gatherly/gatherly/internal/store"
	"github.com/gatherly/gatherly/internal/store/memory"
	"github.com/gatherly/gatherly/internal/store/postgres"
	"github.com/gatherly/gatherly/internal/ticket"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// ── 1. Stores ─────────────────────────────────────────────────────────
	var (
		eventStore store.EventStore
		regStore   store.RegistrationStore
		favStore   store.FavoriteStore
		auditStore audit.Store
	)
	if os.Getenv("GATHERLY_STORE") == "memory" {
		log.Println("using in-memory stores (state is lost on restart)")
		eventStore = memory.NewEventStore()
		regStore = memory.NewRegistrationStore()
		favStore = memory.NewFavoriteStore()
		auditStore = audit.NewInMemoryStore()
	} else {
		pool, err := database.NewPool(ctx)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("connected to PostgreSQL")
		eventStore = postgres.NewEventStore(pool)
		regStore = postgres.NewRegistrationStore(pool)
		favStore = postgres.NewFavoriteStore(pool)
		auditStore = audit.NewPostgresStore(pool)
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	stats := metrics.New()
	recorder := audit.NewRecorder(auditStore)
	issuer := ticket.NewIssuer(getEnv("TICKET_SIGNING_KEY", "dev-ticket-key-change-in-production"), "gatherly")

	catalog := service.NewCatalog(eventStore, regStore, recorder, stats)
	ledger := service.NewLedger(eventStore, regStore, recorder, stats)
	gate := service.NewGate(eventStore, regStore, issuer, recorder, stats)
	tickets := service.NewTickets(eventStore, regStore, issuer)
	history := service.NewHistory(eventStore, regStore, recorder)
	favorites := service.NewFavorites(eventStore, favStore)
	h := handler.New(catalog, ledger, gate, tickets, history, favorites)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger)
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", h.Routes())

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
