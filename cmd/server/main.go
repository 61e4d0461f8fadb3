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

	"thus-sync-server/internal/config"
	"thus-sync-server/internal/handler"
	"thus-sync-server/internal/middleware"
	"thus-sync-server/internal/repository"
	"thus-sync-server/internal/service"
	"thus-sync-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	if err := repository.EnsureIndexes(client, cfg.Database.Name); err != nil {
		log.Fatalf("Failed to create database indexes: %v", err)
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	threadRepo := repository.NewThreadRepository(client, cfg.Database.Name)
	commentRepo := repository.NewCommentRepository(client, cfg.Database.Name)
	contentRepo := repository.NewContentRepository(client, cfg.Database.Name)
	spaceRepo := repository.NewSpaceRepository(client, cfg.Database.Name)
	memberRepo := repository.NewMemberRepository(client, cfg.Database.Name)
	sessionKeyRepo := repository.NewSessionKeyRepository(client, cfg.Database.Name)
	codeRepo := repository.NewVerificationCodeRepository(client, cfg.Database.Name)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	spaceService := service.NewSpaceService(spaceRepo, memberRepo)
	authService := service.NewAuthService(userRepo, spaceService, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(userRepo, memberRepo)
	envelopeService := service.NewEnvelopeService(sessionKeyRepo)
	handshakeService := service.NewHandshakeService(
		userRepo,
		sessionKeyRepo,
		codeRepo,
		authService,
		cfg.Handshake.StateTTL,
		cfg.Handshake.ClientKeyTTL,
		cfg.Handshake.CodeTTL,
		func(email, code string) {
			// Mail delivery is out of process; log for development setups.
			log.Printf("verification code for %s: %s", email, code)
		},
	)
	syncService := service.NewSyncService(threadRepo, commentRepo, contentRepo, spaceService, wsManager)
	contentService := service.NewContentService(contentRepo, threadRepo, wsManager)

	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler())

	authHandler := handler.NewAuthHandler(authService, handshakeService)
	userHandler := handler.NewUserHandler(userService)
	syncHandler := handler.NewSyncHandler(syncService, envelopeService)
	contentHandler := handler.NewContentHandler(contentService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	api.HandleFunc("/auth/init", authHandler.Init).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/email/code", authHandler.RequestEmailCode).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/email", authHandler.LoginByEmail).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/contents", contentHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/contents", contentHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/contents/latest/{threadId}", contentHandler.Latest).Methods("GET", "OPTIONS")

	protected.HandleFunc("/sync", syncHandler.HandleSync).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/get", syncHandler.HandleSyncGet).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/set", syncHandler.HandleSyncSet).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Thus Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"thus-sync-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Thus Sync Server API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/auth/init":"POST","/api/v1/sync":"POST (protected)"}}`))
}
