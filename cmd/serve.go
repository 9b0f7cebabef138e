package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightlane/prospect-cli/internal/export"
	"github.com/brightlane/prospect-cli/internal/model"
	"github.com/brightlane/prospect-cli/internal/pipeline"
	"github.com/brightlane/prospect-cli/internal/reconcile"
	"github.com/brightlane/prospect-cli/internal/store"
)

var servePort int

// session holds the last search outcome for the results and export
// endpoints. Reset clears the known field set; nothing ambient survives
// a new search.
type session struct {
	mu      sync.Mutex
	context *model.SearchContext
	outcome *reconcile.Outcome
}

func (s *session) set(sc model.SearchContext, out *reconcile.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = &sc
	s.outcome = out
}

func (s *session) get() (*model.SearchContext, *reconcile.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context, s.outcome
}

func (s *session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = nil
	s.outcome = nil
}

// searchRequest is the POST /api/search body.
type searchRequest struct {
	Mode     string   `json:"mode"` // "typed" or "map"
	Category string   `json:"category"`
	Place    string   `json:"place,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	RadiusM  float64  `json:"radius_m,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		pc, err := initPlaces()
		if err != nil {
			return err
		}
		asm := pipeline.NewAssembler(pc, initEmail())
		engine := reconcile.New(st)
		sess := &session{}

		r := newRouter(asm, engine, st, sess)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API.
func newRouter(asm *pipeline.Assembler, engine *reconcile.Engine, st store.Store, sess *session) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
		var body searchRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		var sc model.SearchContext
		switch body.Mode {
		case "typed":
			sc = model.NewTypedSearch(body.Category, body.Place)
		case "map":
			if body.Lat == nil || body.Lon == nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no location selected, pick a center first"})
				return
			}
			sc = model.NewMapSearch(body.Category, *body.Lat, *body.Lon, body.RadiusM)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be typed or map"})
			return
		}
		if err := sc.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		batch, err := asm.Run(req.Context(), sc)
		if err != nil {
			zap.L().Error("search failed", zap.String("run_id", sc.RunID), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "search failed"})
			return
		}
		if len(batch) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"notice": "no results found", "records": []model.Record{}})
			return
		}

		outcome, err := engine.Reconcile(req.Context(), batch, sc)
		if err != nil {
			zap.L().Error("store update failed, results are display-only",
				zap.String("run_id", sc.RunID),
				zap.Error(err),
			)
		}
		sess.set(sc, outcome)
		writeJSON(w, http.StatusOK, outcome)
	})

	r.Get("/api/results", func(w http.ResponseWriter, _ *http.Request) {
		_, out := sess.get()
		if out == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no search has run yet"})
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/api/export", func(w http.ResponseWriter, _ *http.Request) {
		sc, out := sess.get()
		if out == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no search has run yet"})
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sc.Filename()))
		if err := export.Write(w, out.Columns, out.Records); err != nil {
			zap.L().Error("export failed", zap.Error(err))
		}
	})

	r.Post("/api/reset", func(w http.ResponseWriter, _ *http.Request) {
		sess.reset()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	})

	r.Get("/api/records", func(w http.ResponseWriter, req *http.Request) {
		snap, err := st.Load(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "load snapshot failed"})
			return
		}
		writeJSON(w, http.StatusOK, snap.Records)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
