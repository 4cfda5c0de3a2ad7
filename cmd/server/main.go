package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tgadmarket/miniapp/internal/api"
	"github.com/tgadmarket/miniapp/internal/config"
	"github.com/tgadmarket/miniapp/internal/dealview"
	"github.com/tgadmarket/miniapp/internal/metrics"
	"github.com/tgadmarket/miniapp/internal/routing"
	"github.com/tgadmarket/miniapp/internal/session"
	"github.com/tgadmarket/miniapp/internal/timeline"
)

//go:embed routes.yaml
var embeddedRoutes embed.FS

const initDataHeader = "X-Telegram-Init-Data"

type Server struct {
	client        *api.Client
	table         *routing.Table
	timelineLimit int

	mu       sync.Mutex
	sessions map[string]*session.Store
}

func main() {
	slog.Info("Starting mini-app gateway...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	table, err := loadRoutesWithFallback(cfg.RoutesConfigPath)
	if err != nil {
		slog.Warn("Failed to load route table. Using defaults.", "error", err)
		table = routing.DefaultTable()
	}

	metrics.Register()

	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, cfg.UpstreamRPS)
	srv := &Server{
		client:        client,
		table:         table,
		timelineLimit: cfg.TimelineLimit,
		sessions:      make(map[string]*session.Store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /routes/resolve", srv.ResolveRouteHandler)
	mux.HandleFunc("GET /deals/{id}/view", srv.DealViewHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

// loadRoutesWithFallback tries the embedded route table first, then the
// external config file.
func loadRoutesWithFallback(configPath string) (*routing.Table, error) {
	data, err := embeddedRoutes.ReadFile("routes.yaml")
	if err == nil {
		table, parseErr := routing.LoadTableFromBytes(data)
		if parseErr == nil {
			slog.Info("Loaded route table from embedded config.")
			return table, nil
		}
		slog.Warn("Embedded route table failed to parse. Trying file fallback.", "error", parseErr)
	}

	if configPath == "" {
		configPath = "config/routes.yaml"
	}
	return routing.LoadTable(configPath)
}

// sessionFor returns the session store bound to one webview's init
// data, so repeated navigations share a single profile bootstrap.
func (s *Server) sessionFor(initData string) *session.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.sessions[initData]
	if !ok {
		store = session.NewStore(s.client.WithInitData(initData))
		s.sessions[initData] = store
	}
	return store
}

func (s *Server) ResolveRouteHandler(w http.ResponseWriter, r *http.Request) {
	metrics.GuardDecisionsTotal.Inc()

	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	guard := routing.NewGuard(s.sessionFor(r.Header.Get(initDataHeader)), s.table)
	decision, err := guard.Decide(r.Context(), path)
	if err != nil {
		metrics.UpstreamErrorsTotal.Inc()
		slog.Error("Route guard failed", "path", path, "error", err)
		writeError(w, http.StatusBadGateway, "could not resolve session")
		return
	}

	if decision.Proceed {
		writeJSON(w, http.StatusOK, map[string]any{"proceed": true})
		return
	}
	metrics.GuardRedirectsTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"proceed": false, "redirect": decision.Redirect})
}

type timelineEventView struct {
	EventType   string  `json:"event_type"`
	FromState   *string `json:"from_state,omitempty"`
	ToState     *string `json:"to_state,omitempty"`
	ActorID     *int64  `json:"actor_id"`
	Payload     any     `json:"payload,omitempty"`
	CreatedAt   string  `json:"created_at"`
	DisplayTime string  `json:"display_time"`
}

func (s *Server) DealViewHandler(w http.ResponseWriter, r *http.Request) {
	metrics.DealViewRequestsTotal.Inc()
	started := time.Now()
	defer func() {
		metrics.DealViewRequestDuration.Observe(time.Since(started).Seconds())
	}()

	dealID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deal id")
		return
	}

	initData := r.Header.Get(initDataHeader)
	sess := s.sessionFor(initData)
	user, err := sess.Bootstrap(r.Context())
	if err != nil {
		metrics.UpstreamErrorsTotal.Inc()
		writeError(w, http.StatusBadGateway, "could not resolve session")
		return
	}

	client := s.client.WithInitData(initData)
	store := timeline.NewStore(client, s.timelineLimit)
	ctrl := dealview.New(client, store, dealID, user.ID)
	if err := ctrl.Load(r.Context()); err != nil {
		metrics.UpstreamErrorsTotal.Inc()
		slog.Error("Failed to load deal view", "deal_id", dealID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	metrics.TimelinePagesFetchedTotal.Inc()

	deal, _ := ctrl.Deal()
	actions := ctrl.Actions()
	snapshot := store.Snapshot()

	now := time.Now()
	events := make([]timelineEventView, 0, len(snapshot.Events))
	for _, event := range snapshot.Events {
		view := timelineEventView{
			EventType:   event.EventType,
			ActorID:     event.ActorID,
			CreatedAt:   event.CreatedAt.Format(time.RFC3339),
			DisplayTime: dealview.FormatEventTime(event.CreatedAt, now),
		}
		if event.FromState != nil {
			from := string(*event.FromState)
			view.FromState = &from
		}
		if event.ToState != nil {
			to := string(*event.ToState)
			view.ToState = &to
		}
		if payload, err := event.DecodePayload(); err == nil && payload != nil {
			view.Payload = payload
		}
		events = append(events, view)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deal": deal,
		"actions": map[string]bool{
			"can_edit":    actions.CanEdit,
			"can_approve": actions.CanApprove,
			"can_reject":  actions.CanReject,
		},
		"timeline": map[string]any{
			"items":    events,
			"has_more": snapshot.HasMore,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
