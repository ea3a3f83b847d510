package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/api/handlers"
	mw "github.com/DTSP-AI/numen-ai-sub001/internal/api/middleware"
	"github.com/DTSP-AI/numen-ai-sub001/internal/buildconfig"
	"github.com/DTSP-AI/numen-ai-sub001/internal/config"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options tunes the HTTP surface and the summary queue.
type Options struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	SummaryQueueSize int
}

// OptionsFromConfig reads Options from the environment.
func OptionsFromConfig() Options {
	return Options{
		RateLimitRPS:     config.RateLimitRPS(),
		RateLimitBurst:   config.RateLimitBurst(),
		SummaryQueueSize: config.SummaryQueueSize(),
	}
}

// App holds the router and the services whose lifecycle main manages.
type App struct {
	Router    *chi.Mux
	Kernels   *service.KernelService
	Summaries *service.SummaryPublisher

	stores    domain.Stores
	collector *mw.MetricsCollector
	startTime time.Time
}

// NewApp wires services and handlers over one storage backend. embedder may
// be nil. The summary publisher is returned stopped; call Summaries.Start.
func NewApp(stores domain.Stores, embedder domain.EmbeddingClient, opts Options, logger *zap.Logger) *App {
	// Services
	kernelSvc := service.NewKernelService(stores.Kernels, logger)
	agentSvc := service.NewAgentService(stores.Agents, kernelSvc)
	metricSvc := service.NewMetricService(stores.Metrics, logger)
	goalSvc := service.NewGoalService(stores.Goals, logger)
	graphSvc := service.NewBeliefGraphService(stores.Graphs, logger)
	reflex := service.NewReflexEngine(stores.Goals, stores.Graphs, stores.Metrics, logger)
	summaries := service.NewSummaryPublisher(stores.Summaries, embedder, opts.SummaryQueueSize, logger)

	// Derived metrics and long-term memory forwarding
	goalSvc.SetMetricRecorder(metricSvc)
	graphSvc.SetMetricRecorder(metricSvc)
	goalSvc.SetSummarySink(summaries)
	graphSvc.SetSummarySink(summaries)
	reflex.SetSummarySink(summaries)

	// Handlers
	kernelHandler := handlers.NewKernelHandler(kernelSvc, logger)
	agentHandler := handlers.NewAgentHandler(agentSvc, logger)
	goalHandler := handlers.NewGoalHandler(goalSvc, agentSvc, logger)
	graphHandler := handlers.NewGraphHandler(graphSvc, agentSvc, logger)
	metricHandler := handlers.NewMetricHandler(metricSvc, agentSvc, logger)
	reflexHandler := handlers.NewReflexHandler(reflex, agentSvc, logger)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		Kernels:   kernelSvc,
		Summaries: summaries,
		stores:    stores,
		collector: mw.NewMetricsCollector(),
		startTime: time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.collector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)))

	r.Get("/health", app.healthHandler)
	r.Get("/metrics", app.metricsHandler)
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.Tenant)

		r.Route("/kernels", func(r chi.Router) {
			r.Post("/", kernelHandler.Create)
			r.Get("/", kernelHandler.List)
			r.Get("/{version}", kernelHandler.Get)
		})

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", agentHandler.Create)
			r.Route("/{agentID}", func(r chi.Router) {
				r.Get("/", agentHandler.Get)

				r.Route("/users/{userID}", func(r chi.Router) {
					r.Post("/goals", goalHandler.Record)
					r.Get("/goals", goalHandler.ListActive)
					r.Get("/goals/history", goalHandler.History)

					r.Post("/graphs", graphHandler.Build)
					r.Post("/graphs/extend", graphHandler.Extend)
					r.Get("/graphs/latest", graphHandler.Latest)
					r.Get("/graphs/shift", graphHandler.Shift)
					r.Get("/graphs/{graphID}", graphHandler.Get)

					r.Post("/metrics", metricHandler.Record)
					r.Get("/metrics", metricHandler.Series)
					r.Get("/metrics/latest", metricHandler.Latest)

					r.Get("/reflex", reflexHandler.Evaluate)
				})
			})
		})
	})

	return app
}

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	if app.stores.Ping != nil {
		if err := app.stores.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(app.startTime)
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   uptime.Round(time.Second).String(),
		"requests":       app.collector.Snapshot(),
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
			"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
			"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
			"num_gc":         memStats.NumGC,
		},
		"go_version": runtime.Version(),
	})
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildconfig.VersionInfo())
}
