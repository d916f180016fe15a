package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dohyunkim/moneytree/internal/api/handlers"
	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/auth"
	"github.com/dohyunkim/moneytree/internal/blob"
	"github.com/dohyunkim/moneytree/internal/cascade"
	"github.com/dohyunkim/moneytree/internal/config"
	"github.com/dohyunkim/moneytree/internal/logger"
	"github.com/dohyunkim/moneytree/internal/mail"
	"github.com/dohyunkim/moneytree/internal/report"
	"github.com/dohyunkim/moneytree/internal/store/postgres"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT env)")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Store handles are owned here and injected into components.
	branchRepo := postgres.NewBranchRepo(db)
	transactionRepo := postgres.NewTransactionRepo(db)
	userRepo := postgres.NewUserRepo(db)

	var receipts blob.Store
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		receipts = blob.NewGCS(client, cfg.GCSBucket)
	} else {
		log.Warn().Msg("No GCS bucket configured - receipts are kept in memory and lost on restart")
		receipts = blob.NewMemory()
	}

	tokens := auth.NewTokens([]byte(cfg.JWTKey))
	mailer := mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.MailAccount, cfg.MailPassword)
	coordinator := cascade.New(branchRepo, transactionRepo, receipts, log)
	aggregator := report.New(transactionRepo)

	branchesHandler := handlers.NewBranchesHandler(branchRepo, coordinator, log)
	transactionsHandler := handlers.NewTransactionsHandler(transactionRepo, receipts, log)
	reportsHandler := handlers.NewReportsHandler(aggregator, log)
	accountsHandler := handlers.NewAccountsHandler(userRepo, branchRepo, coordinator, tokens, mailer, log)

	authed := middleware.Auth(tokens)

	mux := http.NewServeMux()

	// Account endpoints: verification, signup, and signin are public.
	mux.HandleFunc("/api/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			accountsHandler.SendVerification(w, r)
		case http.MethodGet:
			accountsHandler.CheckVerification(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/api/auth/signup", requireMethod(http.MethodPost, accountsHandler.Signup))
	mux.HandleFunc("/api/auth/signin", requireMethod(http.MethodPost, accountsHandler.Signin))
	mux.HandleFunc("/api/auth/forget-password", requireMethod(http.MethodPost, accountsHandler.ForgetPassword))
	mux.Handle("/api/auth/signout", authed(http.HandlerFunc(requireMethod(http.MethodPost, accountsHandler.Signout))))
	mux.Handle("/api/auth/me", authed(http.HandlerFunc(requireMethod(http.MethodGet, accountsHandler.Me))))
	mux.Handle("/api/auth/userinfo", authed(http.HandlerFunc(requireMethod(http.MethodPut, accountsHandler.UpdateInfo))))
	mux.Handle("/api/auth/password", authed(http.HandlerFunc(requireMethod(http.MethodPut, accountsHandler.ChangePassword))))
	mux.Handle("/api/auth/account", authed(http.HandlerFunc(requireMethod(http.MethodDelete, accountsHandler.DeleteAccount))))

	// Branch endpoints.
	mux.Handle("/api/tree", authed(http.HandlerFunc(requireMethod(http.MethodGet, branchesHandler.Tree))))
	mux.Handle("/api/branches", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			branchesHandler.Create(w, r)
		case http.MethodDelete:
			branchesHandler.Delete(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	// Transaction endpoints.
	mux.Handle("/api/transactions", authed(http.HandlerFunc(requireMethod(http.MethodPost, transactionsHandler.Create))))
	mux.Handle("/api/transactions/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "/api/transactions/")
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.Get(w, r, id)
		case http.MethodPatch:
			transactionsHandler.Update(w, r, id)
		case http.MethodDelete:
			transactionsHandler.Delete(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))
	mux.Handle("/api/receipts", authed(http.HandlerFunc(requireMethod(http.MethodGet, transactionsHandler.GetReceipts))))
	mux.Handle("/api/receipts/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "/api/receipts/")
		if !ok {
			return
		}
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		transactionsHandler.GetReceipt(w, r, id)
	})))

	// Report endpoints.
	mux.Handle("/api/reports/daily", authed(http.HandlerFunc(requireMethod(http.MethodGet, reportsHandler.Daily))))
	mux.Handle("/api/reports/monthly", authed(http.HandlerFunc(requireMethod(http.MethodGet, reportsHandler.Monthly))))

	// Health check endpoint.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// RequestID runs first so the request logger can carry the id;
	// Recovery sits innermost to log panics through that logger.
	handler := middleware.RequestID(
		middleware.Logger(log)(
			middleware.CORS(
				middleware.Recovery(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// requireMethod rejects every method but the given one.
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

// pathID extracts the numeric id trailing the route prefix.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
