package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"guesser/internal/clock"
	"guesser/internal/config"
	"guesser/internal/controller"
	"guesser/internal/game"
	"guesser/internal/storage"
)

// App holds the server's shared state.
type App struct {
	Controllers      map[string]*controller.Controller
	SessionMutex     sync.RWMutex
	LimiterMap       map[string]*clientLimiter
	LimiterMutex     sync.Mutex
	Store            storage.Backend
	StoreKind        storage.Kind
	Rules            game.Rules
	Draw             game.DrawFunc
	Clock            clock.Clock
	TickInterval     time.Duration
	IsProduction     bool
	SessionTimeout   time.Duration
	CookieMaxAge     time.Duration
	ProfileRetention time.Duration
	StaticCacheAge   time.Duration
	RateLimitRPS     int
	RateLimitBurst   int
	StartTime        time.Time
}

func newApp(cfg config.Config, store storage.Backend, rules game.Rules) *App {
	return &App{
		Controllers:      make(map[string]*controller.Controller),
		LimiterMap:       make(map[string]*clientLimiter),
		Store:            store,
		StoreKind:        cfg.StoreBackend,
		Rules:            rules,
		Clock:            clock.Real{},
		TickInterval:     cfg.TickInterval,
		IsProduction:     cfg.IsProduction(),
		SessionTimeout:   cfg.SessionTimeout,
		CookieMaxAge:     cfg.CookieMaxAge,
		ProfileRetention: cfg.ProfileRetention,
		StaticCacheAge:   cfg.StaticCacheAge,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		StartTime:        time.Now(),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logFatal("Failed to load configuration: %v", err)
	}
	logInfo("Starting Guesser in %s mode", envName(cfg.IsProduction()))

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		logFatal("Failed to load game rules: %v", err)
	}

	store, err := storage.Open(cfg.StoreBackend, cfg.StorageOptions())
	if err != nil {
		logFatal("Failed to open %s storage: %v", cfg.StoreBackend, err)
	}
	logInfo("Using %s storage backend", cfg.StoreBackend)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app := newApp(cfg, store, rules)
	templates, static := assetDirs(app.IsProduction)
	router := app.setupRouter(templates, static)

	ctx, cancel := context.WithCancel(context.Background())
	go app.runSweeper(ctx, SweepInterval)

	startServer(router, cfg.Port)

	cancel()
	app.closeSessions()
	if err := store.Close(); err != nil {
		logWarn("Failed to close storage: %v", err)
	}
}

// assetDirs picks minified assets from dist/ in production when they have been built.
func assetDirs(production bool) (templates, static string) {
	if production && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		return "dist/templates", "dist/static"
	}
	logInfo("Serving development assets from source directories")
	return "templates", "static"
}

// setupRouter wires middleware, templates and routes.
func (app *App) setupRouter(templateDir, staticDir string) *gin.Engine {
	router := gin.Default()
	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".mp3"}),
		ginGzip.WithExcludedPaths([]string{"/static/audio"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(app.applyCacheHeaders)

	router.SetFuncMap(template.FuncMap{
		"upper":   strings.ToUpper,
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f) },
	})
	router.LoadHTMLGlob(templateDir + "/*.html")
	router.Static("/static", staticDir)

	limited := router.Group("/", app.rateLimitMiddleware())
	limited.POST(RouteStart, app.startHandler)
	limited.POST(RouteGuess, app.guessHandler)
	limited.POST(RouteLobby, app.lobbyHandler)
	limited.POST(RouteDifficulty, app.difficultyHandler)
	limited.POST(RouteVolume, app.volumeHandler)
	limited.POST(RouteTheme, app.themeHandler)
	limited.POST(RouteSettingsToggle, app.settingsToggleHandler)
	limited.POST(RouteSettingsDismiss, app.settingsDismissHandler)
	limited.POST(RouteInteract, app.interactHandler)
	limited.POST(RouteLeaderboardClear, app.leaderboardClearHandler)

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteGameState, app.gameStateHandler)
	router.GET(RouteAPIState, app.apiStateHandler)
	router.GET(RouteHealthz, app.healthzHandler)
	return router
}

func startServer(router *gin.Engine, port string) {
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}

// applyCacheHeaders allows caching of static assets in production only.
func (app *App) applyCacheHeaders(c *gin.Context) {
	if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}
