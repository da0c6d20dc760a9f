package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehours-backend-go/internal/config"
	"servicehours-backend-go/internal/db"
	httpapi "servicehours-backend-go/internal/http"
	"servicehours-backend-go/internal/identity"
	"servicehours-backend-go/internal/migrations"
	"servicehours-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logs, err := openDailyLog(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, logs))
		defer logs.Close()
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids := services.NewIDAllocator(database)
	if err := ids.Init(ctx); err != nil {
		log.Fatalf("id counters: %v", err)
	}
	store := services.NewStore(database, ids)
	store.HoursRequirement = cfg.HoursRequirement

	if created, err := store.SeedUsers(ctx, cfg.SeedPassword); err != nil {
		log.Fatalf("seed users: %v", err)
	} else if created > 0 {
		log.Printf("created %d demo users", created)
	}
	if added, err := store.SeedAdminCodes(ctx, cfg.AdminCodes); err != nil {
		log.Fatalf("seed admin codes: %v", err)
	} else if added > 0 {
		log.Printf("seeded %d admin codes", added)
	}

	hub := services.NewAuditHub()
	go hub.Run(ctx)
	store.Hub = hub

	var provider identity.Provider
	if cfg.OAuth.Enabled() {
		provider = identity.NewGraphProvider(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURI, cfg.OAuth.Tenant)
	} else {
		log.Printf("federated login disabled: OAUTH_CLIENT_ID or OAUTH_REDIRECT_URI not set")
	}

	server := httpapi.NewServer(store, provider, cfg)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (%s)", addr, database.DriverName())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}
