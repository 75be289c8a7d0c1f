package main

import (
	"net/http"
	"time"

	"github.com/farxc/calculo-rescisao/internal/logger"
	"github.com/farxc/calculo-rescisao/internal/rescisao"
	"github.com/farxc/calculo-rescisao/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type application struct {
	config   config
	store    store.Storage
	pipeline *rescisao.Service
	logger   *logger.Logger
}

type config struct {
	addr            string
	env             string
	logLevel        string
	reconcileAtomic bool
	db              dbConfig
}

type dbConfig struct {
	driver       string
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// cors answers preflight requests and lets any origin call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(cors)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Post("/process-proventos-descontos", app.handleProcessVerbas)
		r.Post("/reprocess-ai-response", app.handleReprocessAIResponse)
		r.Post("/clear-calculation-entries", app.handleClearCalculationEntries)

		r.Route("/calculations/{id}", func(r chi.Router) {
			r.Post("/ai-response", app.handleSubmitAIResponse)
			r.Get("/verbas", app.handleGetVerbas)
			r.Get("/verbas.csv", app.handleExportVerbasCSV)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Info("Server", "Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}
