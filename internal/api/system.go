package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency probe of /health.
const healthCheckTimeout = 2 * time.Second

// Component states reported by /health.
const (
	componentOK           = "ok"
	componentError        = "error"
	componentConnected    = "connected"
	componentDisconnected = "disconnected"
	componentDisabled     = "disabled"
)

// RootResponse describes the service.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Redoc   string `json:"redoc"`
}

// HealthResponse reports service health. Only the database decides the
// status; the brokers are informational.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// RouteInfo is one entry of the route index.
type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// handleRoot returns the project name, version and documentation paths.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: s.project.Name,
		Version: s.projectVersion(),
		Docs:    s.cfg.DocsURL,
		Redoc:   s.cfg.RedocURL,
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.projectVersion(),
		Components: map[string]string{
			"database": componentOK,
			"mqtt":     componentDisabled,
			"influxdb": componentDisabled,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check: database unavailable", "error", err)
		resp.Status = "degraded"
		resp.Components["database"] = componentError
		status = http.StatusServiceUnavailable
	}
	if s.mqtt != nil {
		resp.Components["mqtt"] = connectionState(s.mqtt.IsConnected())
	}
	if s.influx != nil {
		resp.Components["influxdb"] = connectionState(s.influx.IsConnected())
	}

	writeJSON(w, status, resp)
}

// handleRouteIndex lists every registered route. It is served at the
// configured docs and redoc paths.
func (s *Server) handleRouteIndex(w http.ResponseWriter, r *http.Request) {
	if s.routes == nil {
		writeInternalError(w, "router not initialised")
		return
	}

	var routes []RouteInfo
	err := chi.Walk(s.routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.ReplaceAll(route, "/*/", "/")
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		routes = append(routes, RouteInfo{Method: method, Path: route})
		return nil
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"title":   s.project.Name,
		"version": s.projectVersion(),
		"routes":  routes,
	})
}

func (s *Server) projectVersion() string {
	if s.project.Version != "" {
		return s.project.Version
	}
	return s.version
}

func connectionState(connected bool) string {
	if connected {
		return componentConnected
	}
	return componentDisconnected
}
