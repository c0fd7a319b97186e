package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/wontivero/infotechLibros/internal/assist"
	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/config"
	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/handlers"
	"github.com/wontivero/infotechLibros/internal/media"
	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
	"github.com/wontivero/infotechLibros/migrations"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath, feed.NewBroker())
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.MigrateFS(ctx, migrations.FS); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	sessionStore.Options.MaxAge = 12 * 60 * 60
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	handlers.RegisterFuncs(templates, cfg.Location)
	if err := templates.Load(cfg.TemplateDir); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}
	if cfg.TemplateReload {
		if err := templates.Watch(ctx); err != nil {
			slog.Warn("Template reload disabled", "error", err)
		}
	}

	// 5. Live caches
	books := catalog.NewCache(db)
	if err := books.Start(ctx); err != nil {
		slog.Error("Failed to load catalog", "error", err)
		os.Exit(1)
	}
	defer books.Close()

	board := orders.NewCache(db)
	if err := board.Start(ctx); err != nil {
		slog.Error("Failed to load orders", "error", err)
		os.Exit(1)
	}
	defer board.Close()

	covers, err := media.NewStore(cfg.UploadDir, "/uploads/")
	if err != nil {
		slog.Error("Failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	app := &handlers.App{
		Store:        db,
		Catalog:      books,
		Orders:       board,
		Intake:       orders.NewService(db),
		Media:        covers,
		SessionStore: sessionStore,
		Templates:    templates,
		Limiter:      handlers.NewRateLimiter(ctx, 2*time.Second),
		Location:     cfg.Location,
	}

	if cfg.GeminiAPIKey != "" {
		gen, err := assist.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("Failed to create model client, extraction disabled", "error", err)
		} else {
			app.Extractor = assist.NewExtractor(gen)
			slog.Info("Message extraction enabled", "model", cfg.GeminiModel)
		}
	} else {
		slog.Info("GEMINI_API_KEY not set, message extraction disabled")
	}

	mux := app.Routes()

	// Static Files
	mux.Handle("GET /static/", http.StripPrefix("/static", http.FileServer(http.Dir(cfg.StaticDir))))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads", http.FileServer(http.Dir(cfg.UploadDir))))

	// 6. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// open event streams end when the signal context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "timezone", cfg.Location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to listen and serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server exited gracefully.")
}
