// Package ui serves the run dashboard: a runs index and a per-run
// detail page with the rendered analysis report.
package ui

import (
	"embed"
	"html/template"
	"net/http"

	"qics/internal"
	"qics/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	repo      ports.ResultRepository
	templates *template.Template
	logger    *internal.Logger
}

// Config holds dashboard configuration
type Config struct {
	Port string
}

// NewApp creates the dashboard over a result repository.
func NewApp(repo ports.ResultRepository) (*App, error) {
	funcMap := template.FuncMap{
		"pct": func(v float64) float64 { return v * 100 },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	app := &App{
		router:    chi.NewRouter(),
		repo:      repo,
		templates: templates,
		logger:    internal.NewDefaultLogger().Named("ui"),
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRunDetail)
	a.router.Get("/runs/{id}/report.md", a.handleRunReportMarkdown)
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server on the configured port.
func (a *App) Start(cfg Config) error {
	addr := ":" + cfg.Port
	a.logger.Info("dashboard listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
